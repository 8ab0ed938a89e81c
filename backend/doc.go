// Package backend keeps the registry of rendering backends a guardian can
// drive.
//
// Backends register themselves from init() functions, so importing a
// backend package is enough to make it available:
//
//	import _ "github.com/gogpu/gsg/backend/recording"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default()
//	b := backend.Get(backend.BackendNoop)
//
// Open and InitDefault additionally reset the device once, so a backend
// that cannot run is reported as an error instead of failing later.
//
// # Available Backends
//
//   - "native": gogpu/wgpu HAL on the first real adapter
//   - "noop": gogpu/wgpu HAL on the headless noop device
//   - "recording": records every call, renders nothing
package backend
