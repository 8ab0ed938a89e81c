package gsg

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
)

// slotBinder tracks which light or clip plane each fixed hardware slot
// holds. Entries are assigned to slots in order; the first len(bound) win.
type slotBinder struct {
	bound   []uint64
	enabled []bool
	next    int
	dropped int
}

func (b *slotBinder) reset(n int) {
	if n < 0 {
		n = 0
	}
	b.bound = make([]uint64, n)
	b.enabled = make([]bool, n)
	b.next = 0
	b.dropped = 0
}

func (b *slotBinder) begin() {
	b.next = 0
	b.dropped = 0
}

// bind claims the next slot for key. rebind reports that the slot holds a
// different entry, enable that it is currently disabled. ok is false when
// every slot is taken.
func (b *slotBinder) bind(key uint64) (slot int, rebind, enable, ok bool) {
	if b.next >= len(b.bound) {
		b.dropped++
		return -1, false, false, false
	}
	slot = b.next
	b.next++
	return slot, b.bound[slot] != key, !b.enabled[slot], true
}

// commit records that slot now holds key and is enabled.
func (b *slotBinder) commit(slot int, key uint64) {
	b.bound[slot] = key
	b.enabled[slot] = true
}

// end returns the slots enabled before but not claimed since begin.
func (b *slotBinder) end() []int {
	var stale []int
	for slot := b.next; slot < len(b.enabled); slot++ {
		if b.enabled[slot] {
			stale = append(stale, slot)
		}
	}
	return stale
}

func (b *slotBinder) disable(slot int) { b.enabled[slot] = false }

// used returns the number of slots claimed since begin.
func (b *slotBinder) used() int { return b.next }

// eyeTransform maps world space to eye space in the backend's coordinate
// system.
func (g *Guardian) eyeTransform() *state.TransformState {
	return g.csTransform.Compose(g.viewXform)
}

// bindLights assigns the non-ambient lights of a to hardware slots and
// loads the summed ambient color. Light colors are multiplied by the part
// of the color scale routed through lighting.
func (g *Guardian) bindLights(a state.LightAttrib, route driver.ColorScaleRoute) error {
	eye := g.eyeTransform()
	scale := route.Lighting
	scaleFP := state.HashVec4(scale)

	var ambient mgl32.Vec4
	g.lights.begin()
	for _, l := range a.Lights {
		if l.IsAmbient() {
			ambient = ambient.Add(l.LightColor())
			continue
		}
		key := state.Combine(state.LightFingerprint(l), eye.Fingerprint(), scaleFP)
		slot, rebind, enable, ok := g.lights.bind(key)
		if !ok {
			continue
		}
		if rebind {
			if err := g.backend.BindLight(slot, l, eye.Mat(), scale); err != nil {
				return err
			}
		}
		if enable {
			if err := g.backend.EnableLight(slot, true); err != nil {
				return err
			}
		}
		g.lights.commit(slot, key)
	}
	if g.lights.dropped > 0 {
		g.sink.Count(stats.LightsDropped, g.lights.dropped)
		g.logger().Debug("gsg: lights dropped", "dropped", g.lights.dropped, "max", len(g.lights.bound))
	}
	for _, slot := range g.lights.end() {
		if err := g.backend.EnableLight(slot, false); err != nil {
			return err
		}
		g.lights.disable(slot)
	}

	if len(a.Lights) == 0 {
		if !route.ViaLighting {
			return g.backend.EnableLighting(false)
		}
		// Unlit geometry still gets the scale through a lit ambient term.
		ambient = scale
	} else {
		for i := 0; i < 3; i++ {
			ambient[i] *= scale[i]
		}
		ambient[3] = 1
	}
	if err := g.backend.EnableLighting(true); err != nil {
		return err
	}
	return g.backend.SetAmbientLight(ambient)
}

// bindClipPlanes assigns the planes of a to hardware clip-plane slots.
func (g *Guardian) bindClipPlanes(a state.ClipPlaneAttrib) error {
	eye := g.eyeTransform()

	g.planes.begin()
	for _, p := range a.Planes {
		key := state.Combine(p.Fingerprint(), eye.Fingerprint())
		slot, rebind, enable, ok := g.planes.bind(key)
		if !ok {
			continue
		}
		if rebind {
			if err := g.backend.BindClipPlane(slot, p, eye.Mat()); err != nil {
				return err
			}
		}
		if enable {
			if err := g.backend.EnableClipPlane(slot, true); err != nil {
				return err
			}
		}
		g.planes.commit(slot, key)
	}
	if g.planes.dropped > 0 {
		g.sink.Count(stats.ClipPlanesDropped, g.planes.dropped)
		g.logger().Debug("gsg: clip planes dropped", "dropped", g.planes.dropped, "max", len(g.planes.bound))
	}
	for _, slot := range g.planes.end() {
		if err := g.backend.EnableClipPlane(slot, false); err != nil {
			return err
		}
		g.planes.disable(slot)
	}
	return g.backend.EnableClipPlanes(g.planes.used() > 0)
}
