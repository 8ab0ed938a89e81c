package state

import "strings"

// RenderState is an immutable set of attributes, at most one per slot.
// Unset slots read as their Default. States are shared by pointer; a nil
// *RenderState behaves as the empty state.
type RenderState struct {
	attribs [NumSlots]Attrib
	hashes  [NumSlots]uint64
	present Mask
	fp      uint64
}

var empty = build([NumSlots]Attrib{})

// Empty returns the shared state with every slot at its default.
func Empty() *RenderState { return empty }

// New builds a state from attributes. A later attribute replaces an
// earlier one in the same slot.
func New(attribs ...Attrib) *RenderState {
	var set [NumSlots]Attrib
	for _, a := range attribs {
		if a != nil {
			set[a.Slot()] = a
		}
	}
	return build(set)
}

func build(set [NumSlots]Attrib) *RenderState {
	s := &RenderState{attribs: set}
	parts := make([]uint64, 0, NumSlots)
	for slot := Slot(0); slot < NumSlots; slot++ {
		if a := set[slot]; a != nil {
			s.present |= slot.Bit()
			s.hashes[slot] = Hash(a)
		} else {
			s.hashes[slot] = defaultHashes[slot]
		}
		parts = append(parts, s.hashes[slot])
	}
	s.fp = Combine(parts...)
	return s
}

func (s *RenderState) orEmpty() *RenderState {
	if s == nil {
		return empty
	}
	return s
}

// Get returns the attribute in slot, or the slot default when unset.
func (s *RenderState) Get(slot Slot) Attrib {
	s = s.orEmpty()
	if a := s.attribs[slot]; a != nil {
		return a
	}
	return defaultAttribs[slot]
}

// Has reports whether slot is explicitly set.
func (s *RenderState) Has(slot Slot) bool {
	return s.orEmpty().present.Has(slot)
}

// Present returns the mask of explicitly set slots.
func (s *RenderState) Present() Mask { return s.orEmpty().present }

// With returns a copy of s with a in its slot.
func (s *RenderState) With(a Attrib) *RenderState {
	set := s.orEmpty().attribs
	set[a.Slot()] = a
	return build(set)
}

// Without returns a copy of s with slot unset.
func (s *RenderState) Without(slot Slot) *RenderState {
	s = s.orEmpty()
	if !s.present.Has(slot) {
		return s
	}
	set := s.attribs
	set[slot] = nil
	return build(set)
}

// Compose returns s overlaid with the set slots of o. Slots o leaves unset
// keep their value from s.
func (s *RenderState) Compose(o *RenderState) *RenderState {
	s, o = s.orEmpty(), o.orEmpty()
	if o.present == 0 {
		return s
	}
	if s.present == 0 {
		return o
	}
	set := s.attribs
	for slot := Slot(0); slot < NumSlots; slot++ {
		if a := o.attribs[slot]; a != nil {
			set[slot] = a
		}
	}
	return build(set)
}

// Fingerprint returns the whole-state fingerprint.
func (s *RenderState) Fingerprint() uint64 { return s.orEmpty().fp }

// SlotFingerprint returns the fingerprint of the effective attribute in
// slot. An unset slot has its default's fingerprint, so an unset slot and
// an explicit default compare equal.
func (s *RenderState) SlotFingerprint(slot Slot) uint64 {
	return s.orEmpty().hashes[slot]
}

// Equal reports identity or fingerprint equality.
func (s *RenderState) Equal(o *RenderState) bool {
	s, o = s.orEmpty(), o.orEmpty()
	return s == o || s.fp == o.fp
}

// Diff returns the slots whose effective attributes differ.
func (s *RenderState) Diff(o *RenderState) Mask {
	s, o = s.orEmpty(), o.orEmpty()
	var m Mask
	for slot := Slot(0); slot < NumSlots; slot++ {
		if s.hashes[slot] != o.hashes[slot] {
			m |= slot.Bit()
		}
	}
	return m
}

// Color returns the color attribute.
func (s *RenderState) Color() ColorAttrib { return s.Get(SlotColor).(ColorAttrib) }

// ColorScale returns the color scale attribute.
func (s *RenderState) ColorScale() ColorScaleAttrib {
	return s.Get(SlotColorScale).(ColorScaleAttrib)
}

// Texture returns the texture attribute.
func (s *RenderState) Texture() TextureAttrib { return s.Get(SlotTexture).(TextureAttrib) }

// ClipPlanes returns the clip plane attribute.
func (s *RenderState) ClipPlanes() ClipPlaneAttrib {
	return s.Get(SlotClipPlane).(ClipPlaneAttrib)
}

// Material returns the material attribute.
func (s *RenderState) Material() MaterialAttrib { return s.Get(SlotMaterial).(MaterialAttrib) }

// Lights returns the light attribute.
func (s *RenderState) Lights() LightAttrib { return s.Get(SlotLight).(LightAttrib) }

// RenderMode returns the render mode attribute.
func (s *RenderState) RenderMode() RenderModeAttrib {
	return s.Get(SlotRenderMode).(RenderModeAttrib)
}

// Shader returns the shader attribute.
func (s *RenderState) Shader() ShaderAttrib { return s.Get(SlotShader).(ShaderAttrib) }

// String lists the explicitly set slots.
func (s *RenderState) String() string {
	s = s.orEmpty()
	if s.present == 0 {
		return "RenderState{}"
	}
	var names []string
	for slot := Slot(0); slot < NumSlots; slot++ {
		if s.present.Has(slot) {
			names = append(names, slot.String())
		}
	}
	return "RenderState{" + strings.Join(names, " ") + "}"
}

// mungerSlots are the slots that change how vertex data must be munged.
var mungerSlots = []Slot{SlotColor, SlotColorScale, SlotTexture, SlotRenderMode, SlotShader}

// MungerKey fingerprints the subset of s that selects a geometry munger.
func MungerKey(s *RenderState) uint64 {
	parts := make([]uint64, len(mungerSlots))
	for i, slot := range mungerSlots {
		parts[i] = s.SlotFingerprint(slot)
	}
	return Combine(parts...)
}
