// Package native provides a driver.Backend on the gogpu/wgpu HAL.
//
// The backend renders into an offscreen RGBA8 color target with a
// Depth24PlusStencil8 depth-stencil target. Fixed-function state is
// emulated by a WGSL shader compiled with gogpu/naga; per-draw state is
// uploaded into a uniform block bound with a dynamic offset, and every
// combination of depth, stencil, blend, cull and vertex layout selects a
// cached render pipeline.
//
// # Registration
//
// Importing the package registers two backends:
//
//   - "noop": the headless noop HAL device, always available. It
//     exercises the whole command path without a GPU.
//   - "native": the first HAL backend that talks to a device. It is only
//     available when such a backend (Vulkan, Metal, GLES, DX12) has been
//     linked into the program.
//
// # Limitations
//
// WebGPU has no triangle fans, polygon modes or gamma ramps, and the HAL
// render pass exposes no occlusion queries. Fans are decomposed by the
// guardian's munger; wireframe renders filled; SetGammaTable and occlusion
// queries report driver.ErrUnsupported.
package native
