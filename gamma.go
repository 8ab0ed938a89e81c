package gsg

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gsg/driver"
)

// GammaTableSize is the number of entries in a gamma ramp.
const GammaTableSize = 256

// CreateGammaTable returns the 16-bit ramp applying 1/gamma to each of the
// GammaTableSize input levels.
func CreateGammaTable(gamma float64) []uint16 {
	table := make([]uint16, GammaTableSize)
	if gamma <= 0 {
		gamma = 1
	}
	for i := range table {
		v := math.Pow(float64(i)/(GammaTableSize-1), 1/gamma) * 65535
		table[i] = uint16(math.Round(math.Min(v, 65535)))
	}
	return table
}

// SetGamma loads the ramp for gamma into the backend. The value is
// re-applied after every reset.
func (g *Guardian) SetGamma(gamma float64) bool {
	if !g.valid {
		g.lastErr = ErrInvalid
		return false
	}
	if !g.settle() {
		return false
	}
	if gamma <= 0 || math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		g.lastErr = fmt.Errorf("%w: gamma %v", ErrConfig, gamma)
		return false
	}
	if err := g.backend.SetGammaTable(CreateGammaTable(gamma)); err != nil {
		if errors.Is(err, driver.ErrUnsupported) {
			g.lastErr = err
			g.logger().Debug("gsg: gamma ramp unsupported", "backend", g.backend.Name())
			return false
		}
		g.absorb("SetGammaTable", err)
		return false
	}
	g.gamma = gamma
	return true
}

// Gamma returns the gamma last applied.
func (g *Guardian) Gamma() float64 { return g.gamma }

// RestoreGamma loads the identity ramp.
func (g *Guardian) RestoreGamma() bool { return g.SetGamma(1) }
