package gsg

import "errors"

// Guardian errors. Guardian methods report failure as false or a null
// context; the cause is available from LastError.
var (
	// ErrInactive is returned when the guardian has been deactivated with
	// SetActive(false).
	ErrInactive = errors.New("gsg: guardian is not active")

	// ErrInvalid is returned after Close or PanicDeactivate.
	ErrInvalid = errors.New("gsg: guardian is not valid")

	// ErrProtocol is returned for calls out of frame/scene/primitive order.
	ErrProtocol = errors.New("gsg: protocol violation")

	// ErrNeedsReset is returned by state and draw calls between a device
	// loss and the reset at the next frame boundary.
	ErrNeedsReset = errors.New("gsg: guardian needs reset")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("gsg: invalid configuration")

	// ErrNotPrepared is returned when a resource has no live context.
	ErrNotPrepared = errors.New("gsg: resource not prepared")

	// ErrUnsupportedTexture is returned for textures the backend cannot hold.
	ErrUnsupportedTexture = errors.New("gsg: unsupported texture")

	// ErrShaderModel is returned for shaders needing a higher shader model
	// than the backend runs.
	ErrShaderModel = errors.New("gsg: shader model too low")

	// ErrInvalidScene is returned by SetScene for a setup without a lens or
	// display region.
	ErrInvalidScene = errors.New("gsg: incomplete scene setup")

	// ErrMalformedPrimitive is returned for primitives that fail validation.
	ErrMalformedPrimitive = errors.New("gsg: malformed primitive")
)
