package native

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/fixed.wgsl
var fixedShaderWGSL string

// Entry points of the fixed-function shader.
const (
	entryVertexColor = "vs_color"
	entryVertexFlat  = "vs_flat"
	entryFragment    = "fs_main"
)

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// createShaderModule compiles source and creates a HAL module from it.
func createShaderModule(device hal.Device, label, source string) (hal.ShaderModule, error) {
	code, err := compileWGSL(source)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, deviceErr("create shader module", err)
	}
	return module, nil
}
