package backend

import (
	"errors"

	"github.com/gogpu/gsg/driver"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Well-known backend names.
const (
	// BackendNative renders through gogpu/wgpu HAL.
	BackendNative = "native"
	// BackendNoop is the native backend on the headless noop HAL device.
	BackendNoop = "noop"
	// BackendRecording records every call without rendering.
	BackendRecording = "recording"
)

// Factory creates a new backend instance, or nil when the backend cannot
// run on this system.
type Factory func() driver.Backend
