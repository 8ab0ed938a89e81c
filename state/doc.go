// Package state holds the immutable render-state snapshots a renderer asks
// a guardian to realize.
//
// A RenderState carries at most one Attrib per Slot; unset slots read as
// their default. Every attribute, state and transform carries an xxhash
// fingerprint so that a guardian can detect redundant transitions slot by
// slot without comparing attribute contents.
//
//	rs := state.New(
//		state.DepthWriteAttrib{Enabled: false},
//		state.AlphaBlend(),
//	)
//	decal := rs.With(state.DepthOffsetAttrib{Offset: 1})
package state
