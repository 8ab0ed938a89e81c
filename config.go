package gsg

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/gsg/view"
)

// PowerOf2Mode selects how textures are resized to power-of-two dimensions.
type PowerOf2Mode string

const (
	// PowerOf2None keeps sizes as is where the backend allows it.
	PowerOf2None PowerOf2Mode = "none"
	// PowerOf2Down shrinks to the next lower power of two.
	PowerOf2Down PowerOf2Mode = "down"
	// PowerOf2Up grows to the next higher power of two.
	PowerOf2Up PowerOf2Mode = "up"
)

// Config holds guardian settings. Zero limits mean "use the backend value";
// positive limits clamp what the backend reports.
type Config struct {
	MaxLights           int `toml:"max-lights"`
	MaxClipPlanes       int `toml:"max-clip-planes"`
	MaxTextureStages    int `toml:"max-texture-stages"`
	MaxTextureDimension int `toml:"max-texture-dimension"`

	TexturesPower2 PowerOf2Mode `toml:"textures-power-2"`

	SupportOcclusionQuery bool `toml:"support-occlusion-query"`
	ColorScaleViaLighting bool `toml:"color-scale-via-lighting"`
	AlphaScaleViaTexture  bool `toml:"alpha-scale-via-texture"`
	DepthOffsetDecals     bool `toml:"depth-offset-decals"`
	AutoDetectShaderModel bool `toml:"auto-detect-shader-model"`

	// MungerCacheLimit bounds the munger cache; 0 is unbounded.
	MungerCacheLimit int `toml:"munger-cache-limit"`
	// ComposeCacheSize is the number of remembered state compositions.
	ComposeCacheSize int `toml:"compose-cache-size"`

	CoordinateSystem string  `toml:"coordinate-system"`
	Gamma            float64 `toml:"gamma"`
	StrictProtocol   bool    `toml:"strict-protocol"`
}

// DefaultConfig returns the settings used when no config is given.
func DefaultConfig() Config {
	return Config{
		TexturesPower2:        PowerOf2None,
		SupportOcclusionQuery: true,
		ColorScaleViaLighting: true,
		AlphaScaleViaTexture:  true,
		AutoDetectShaderModel: true,
		ComposeCacheSize:      1024,
		CoordinateSystem:      view.CSZupRight.String(),
		Gamma:                 1,
	}
}

// ParseConfig decodes TOML over DefaultConfig. Unknown keys are an error.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return cfg, finishConfig(cfg, md)
}

// LoadConfig reads a TOML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	return cfg, finishConfig(cfg, md)
}

func finishConfig(cfg Config, md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys %s", ErrConfig, strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"max-lights":            c.MaxLights,
		"max-clip-planes":       c.MaxClipPlanes,
		"max-texture-stages":    c.MaxTextureStages,
		"max-texture-dimension": c.MaxTextureDimension,
		"munger-cache-limit":    c.MungerCacheLimit,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrConfig, name)
		}
	}
	if c.ComposeCacheSize <= 0 {
		return fmt.Errorf("%w: compose-cache-size must be positive", ErrConfig)
	}
	switch c.TexturesPower2 {
	case PowerOf2None, PowerOf2Down, PowerOf2Up:
	default:
		return fmt.Errorf("%w: textures-power-2 %q", ErrConfig, c.TexturesPower2)
	}
	if _, err := view.ParseCoordinateSystem(c.CoordinateSystem); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("%w: gamma must be positive", ErrConfig)
	}
	return nil
}
