package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsg/driver"
)

// Package errors for the native backend.
var (
	// ErrNotInitialized is returned when operations are called before Reset.
	ErrNotInitialized = errors.New("native: device not initialized")

	// ErrNoAdapter is returned when the HAL instance exposes no adapter.
	ErrNoAdapter = errors.New("native: no adapter available")

	// ErrNoPass is returned when drawing outside a scene.
	ErrNoPass = errors.New("native: no render pass open")

	// ErrInvalidDimensions is returned when a target or texture size is invalid.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrShaderCompile is returned when WGSL fails to compile.
	ErrShaderCompile = errors.New("native: shader compilation failed")
)

// deviceErr maps HAL device loss onto driver.ErrDeviceLost so the guardian
// schedules a reset. Other errors are wrapped with op.
func deviceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, hal.ErrDeviceLost) {
		return fmt.Errorf("native: %s: %w: %w", op, driver.ErrDeviceLost, err)
	}
	return fmt.Errorf("native: %s: %w", op, err)
}
