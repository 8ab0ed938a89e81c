package state

// Slot identifies one attribute category of a render state.
// Slots are declared in the order a guardian issues them.
type Slot uint8

const (
	SlotColor Slot = iota
	SlotColorScale
	SlotTexture
	SlotClipPlane
	SlotMaterial
	SlotLight
	SlotAlphaTest
	SlotDepthTest
	SlotDepthWrite
	SlotDepthOffset
	SlotStencil
	SlotBlend
	SlotColorWrite
	SlotCullFace
	SlotRenderMode
	SlotFog
	SlotShader

	NumSlots
)

var slotNames = [NumSlots]string{
	"color",
	"color-scale",
	"texture",
	"clip-plane",
	"material",
	"light",
	"alpha-test",
	"depth-test",
	"depth-write",
	"depth-offset",
	"stencil",
	"blend",
	"color-write",
	"cull-face",
	"render-mode",
	"fog",
	"shader",
}

// String returns the slot name.
func (s Slot) String() string {
	if s < NumSlots {
		return slotNames[s]
	}
	return "unknown"
}

// Mask is a set of slots.
type Mask uint32

// Bit returns the mask holding only s.
func (s Slot) Bit() Mask { return 1 << s }

// Has reports whether s is in the mask.
func (m Mask) Has(s Slot) bool { return m&s.Bit() != 0 }

// AllSlots is the mask of every slot.
const AllSlots Mask = 1<<NumSlots - 1
