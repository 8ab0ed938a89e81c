package gobj

// ShaderModel is a coarse shader capability tier.
type ShaderModel uint8

const (
	SM00 ShaderModel = iota // no programmable pipeline
	SM11
	SM20
	SM2X
	SM30
	SM40
)

// String returns the conventional name of the model.
func (m ShaderModel) String() string {
	switch m {
	case SM00:
		return "sm-0.0"
	case SM11:
		return "sm-1.1"
	case SM20:
		return "sm-2.0"
	case SM2X:
		return "sm-2.x"
	case SM30:
		return "sm-3.0"
	case SM40:
		return "sm-4.0"
	default:
		return "sm-unknown"
	}
}

// Shader is a WGSL program with vertex and fragment entry points.
type Shader struct {
	counter

	id            uint64
	Name          string
	Source        string
	VertexEntry   string
	FragmentEntry string
	RequiredModel ShaderModel
}

// NewShader creates a shader with the conventional vs_main/fs_main entry points.
func NewShader(name, source string) *Shader {
	return &Shader{
		id:            newID(),
		Name:          name,
		Source:        source,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		RequiredModel: SM20,
	}
}

// ID returns the shader's unique identifier.
func (s *Shader) ID() uint64 { return s.id }
