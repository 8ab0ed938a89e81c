package gsg

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/internal/cache"
	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
	"github.com/gogpu/gsg/view"
)

// phase is the position in the frame protocol.
type phase uint8

const (
	phaseInactive phase = iota
	phaseFrame
	phaseScene
	phasePrimitives
)

func (p phase) String() string {
	switch p {
	case phaseInactive:
		return "inactive"
	case phaseFrame:
		return "frame"
	case phaseScene:
		return "scene"
	case phasePrimitives:
		return "primitives"
	default:
		return "unknown"
	}
}

// drawState is the vertex data bound between BeginDrawPrimitives and
// EndDrawPrimitives.
type drawState struct {
	data   *gobj.VertexData
	munger driver.Munger
	rows   int
}

// Guardian sits between a renderer and a driver.Backend. It issues only
// the state changes that differ from what the backend already has, owns
// the backend resources prepared on the renderer's behalf, and enforces
// the begin/end frame, scene and primitive protocol.
//
// A Guardian is driven by one goroutine. QueuePrepare and QueueRelease may
// be called from any goroutine.
type Guardian struct {
	backend driver.Backend
	log     *slog.Logger
	sink    stats.Sink
	cfg     Config
	strict  bool

	active     bool
	valid      bool
	needsReset bool
	isNew      bool
	lastErr    error

	phase phase
	caps  *Capabilities

	cs          view.CoordinateSystem
	csTransform *state.TransformState

	clearColor   mgl32.Vec4
	clearDepth   float32
	clearStencil uint32

	scene      *view.SceneSetup
	projection mgl32.Mat4
	viewXform  *state.TransformState
	modelXform *state.TransformState

	composer   *state.Composer
	baseTarget *state.RenderState
	target     *state.RenderState
	slotFP     [state.NumSlots]uint64
	slotValid  state.Mask
	xformFP    uint64
	xformValid bool
	route      driver.ColorScaleRoute

	effTexture      []driver.TextureBinding
	effTextureKey   uint64
	effTextureValid bool

	lights slotBinder
	planes slotBinder

	mungers *cache.Cache[uint64, driver.Munger]

	resources *prepared.Manager
	draw      drawState

	query     prepared.Context
	queryOpen bool

	decal *state.RenderState
	gamma float64
}

// New creates a guardian for b and performs the initial reset. The
// guardian starts active.
func New(b driver.Backend, opts ...Option) (*Guardian, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrConfig)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	cs, _ := view.ParseCoordinateSystem(o.config.CoordinateSystem)

	composer, err := state.NewComposer(o.config.ComposeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	g := &Guardian{
		backend:    b,
		log:        o.logger,
		sink:       o.sink,
		cfg:        o.config,
		strict:     o.config.StrictProtocol,
		active:     true,
		valid:      true,
		cs:         cs.Resolve(),
		clearDepth: 1,
		composer:   composer,
		mungers:    cache.New[uint64, driver.Munger](o.config.MungerCacheLimit),
		resources:  prepared.NewManager(),
		gamma:      1,
	}
	if o.strict != nil {
		g.strict = *o.strict
	}

	if err := g.reset(); err != nil {
		return nil, err
	}
	if o.config.Gamma != 1 {
		g.SetGamma(o.config.Gamma)
	}
	return g, nil
}

// logger returns the guardian's logger, following SetLogger when none was
// given.
func (g *Guardian) logger() *slog.Logger {
	if g.log != nil {
		return g.log
	}
	return Logger()
}

// Backend returns the driven backend.
func (g *Guardian) Backend() driver.Backend { return g.backend }

// Config returns the configuration the guardian was created with.
func (g *Guardian) Config() Config { return g.cfg }

// Capabilities returns the current capability snapshot.
func (g *Guardian) Capabilities() *Capabilities { return g.caps }

// SetActive enables or disables rendering. An inactive guardian refuses
// BeginFrame; resources stay prepared.
func (g *Guardian) SetActive(active bool) {
	if active && !g.valid {
		return
	}
	g.active = active
}

// IsActive reports whether the guardian renders.
func (g *Guardian) IsActive() bool { return g.active && g.valid }

// IsValid reports whether the guardian is usable at all. It turns false
// after Close or PanicDeactivate and never turns true again.
func (g *Guardian) IsValid() bool { return g.valid }

// NeedsReset reports whether a reset is pending.
func (g *Guardian) NeedsReset() bool { return g.needsReset || g.isNew }

// MarkNew requests a reset before the next state-changing call, for example
// after the output window was recreated.
func (g *Guardian) MarkNew() { g.isNew = true }

// LastError returns the most recent error the guardian absorbed.
func (g *Guardian) LastError() error { return g.lastErr }

// ResetIfNew resets the guardian when a reset is pending. It reports
// whether the guardian is usable afterwards.
func (g *Guardian) ResetIfNew() bool {
	if !g.valid {
		return false
	}
	if !g.NeedsReset() {
		return true
	}
	return g.Reset()
}

// Reset reinitializes the backend, refreshes capabilities and forgets all
// cached device state so the next state application issues every slot.
// Reset is only allowed between frames. A failed reset deactivates the
// guardian for good.
func (g *Guardian) Reset() bool {
	if !g.valid {
		g.lastErr = ErrInvalid
		return false
	}
	if g.phase != phaseInactive {
		return g.violation("Reset")
	}
	if err := g.reset(); err != nil {
		g.lastErr = err
		return false
	}
	if g.gamma != 1 {
		g.SetGamma(g.gamma)
	}
	return true
}

func (g *Guardian) reset() error {
	caps := driver.DefaultCaps()
	if err := g.backend.Reset(&caps); err != nil {
		g.sink.Count(stats.ResetFailure, 1)
		g.logger().Error("gsg: reset failed", "backend", g.backend.Name(), "err", err)
		g.PanicDeactivate()
		return fmt.Errorf("gsg: reset %s: %w", g.backend.Name(), err)
	}
	clampCaps(&caps, g.cfg)
	g.caps = newCapabilities(caps)

	g.mungers.Clear()
	g.lights.reset(caps.MaxLights)
	g.planes.reset(caps.MaxClipPlanes)
	g.invalidateState()
	g.csTransform = state.MakeMat(view.ConvertMat(g.cs, caps.InternalCoordinateSystem))

	g.needsReset = false
	g.isNew = false
	g.sink.Count(stats.Reset, 1)
	g.logger().Info("gsg: reset",
		"backend", g.backend.Name(),
		"shader_model", caps.ShaderModel.String(),
		"max_lights", caps.MaxLights,
		"max_texture_stages", caps.MaxTextureStages)
	return nil
}

// invalidateState forgets everything the backend is believed to hold.
func (g *Guardian) invalidateState() {
	g.slotValid = 0
	g.xformValid = false
	g.effTextureValid = false
	g.route = driver.ColorScaleRoute{}
}

// PanicDeactivate makes the guardian permanently unusable. It is safe to
// call in any state; later calls fail with ErrInvalid.
func (g *Guardian) PanicDeactivate() {
	if !g.valid {
		return
	}
	g.valid = false
	g.active = false
	g.phase = phaseInactive
	g.queryOpen = false
	g.draw = drawState{}
	g.logger().Error("gsg: guardian deactivated", "backend", g.backend.Name())
}

// Close releases every prepared resource and the backend. The guardian is
// invalid afterwards.
func (g *Guardian) Close() error {
	if g.phase != phaseInactive {
		g.logger().Warn("gsg: close inside a frame", "phase", g.phase.String())
	}
	n := g.releaseAll()
	g.valid = false
	g.active = false
	g.phase = phaseInactive
	err := g.backend.Close()
	g.logger().Info("gsg: closed", "backend", g.backend.Name(), "released", n)
	if err != nil {
		return fmt.Errorf("gsg: close %s: %w", g.backend.Name(), err)
	}
	return nil
}

// usable reports whether op may run at all.
func (g *Guardian) usable() bool {
	switch {
	case !g.valid:
		g.lastErr = ErrInvalid
		return false
	case !g.active:
		g.lastErr = ErrInactive
		return false
	}
	return true
}

// ready reports whether state and draw calls may reach the backend. A
// pending reset runs first between frames; inside a frame the calls fail
// softly until the next frame boundary.
func (g *Guardian) ready() bool {
	if !g.usable() {
		return false
	}
	return g.settle()
}

// settle runs a pending reset before a state-changing call.
func (g *Guardian) settle() bool {
	if !g.NeedsReset() {
		return true
	}
	if g.phase == phaseInactive {
		return g.ResetIfNew()
	}
	g.lastErr = ErrNeedsReset
	return false
}

// violation records a call made in the wrong phase.
func (g *Guardian) violation(op string) bool {
	err := fmt.Errorf("%w: %s in phase %s", ErrProtocol, op, g.phase)
	g.lastErr = err
	g.sink.Count(stats.ProtocolViolation, 1)
	if g.strict {
		panic(err)
	}
	g.logger().Error("gsg: protocol violation", "op", op, "phase", g.phase.String())
	return false
}

// absorb records a backend error. Device loss schedules a reset.
func (g *Guardian) absorb(op string, err error) {
	g.lastErr = fmt.Errorf("gsg: %s: %w", op, err)
	if errors.Is(err, driver.ErrDeviceLost) {
		g.needsReset = true
		g.logger().Warn("gsg: device lost", "op", op)
		return
	}
	g.logger().Warn("gsg: backend call failed", "op", op, "err", err)
}

// SetCoordinateSystem sets the axis convention of incoming transforms.
func (g *Guardian) SetCoordinateSystem(cs view.CoordinateSystem) {
	if g.valid && g.phase == phaseInactive {
		g.ResetIfNew()
	}
	g.cs = cs.Resolve()
	g.csTransform = state.MakeMat(view.ConvertMat(g.cs, g.caps.InternalCoordinateSystem()))
	g.xformValid = false
	g.slotValid &^= state.SlotLight.Bit() | state.SlotClipPlane.Bit()
}

// CoordinateSystem returns the axis convention of incoming transforms.
func (g *Guardian) CoordinateSystem() view.CoordinateSystem { return g.cs }

// CSTransform converts from the guardian's coordinate system into the
// backend's internal one.
func (g *Guardian) CSTransform() *state.TransformState { return g.csTransform }

// InvCSTransform is the inverse of CSTransform.
func (g *Guardian) InvCSTransform() *state.TransformState { return g.csTransform.Invert() }

// ComputeDistanceTo returns the distance of a camera-space point along the
// forward axis of the coordinate system.
func (g *Guardian) ComputeDistanceTo(p mgl32.Vec3) float32 {
	return p.Dot(g.cs.Forward())
}
