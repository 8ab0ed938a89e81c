package view

import "github.com/gogpu/gsg/state"

// SceneSetup is everything a guardian needs to know about the scene it is
// about to render. It is set once per scene and not modified afterwards.
type SceneSetup struct {
	Lens    *Lens
	Region  *DisplayRegion
	Channel StereoChannel

	// CameraTransform places the camera in world space.
	CameraTransform *state.TransformState

	// InitialState is composed under every state set during the scene.
	InitialState *state.RenderState
}

// ViewTransform returns the world-to-camera transform.
func (s *SceneSetup) ViewTransform() *state.TransformState {
	return s.CameraTransform.Invert()
}
