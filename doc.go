// Package gsg provides a render-state guardian for Go.
//
// # Overview
//
// A Guardian sits between a scene-graph renderer and a graphics backend.
// The renderer hands it the state it wants for each draw (transform,
// textures, lights, blending, clip planes, shaders) and the guardian issues
// only the backend commands needed to get there. It also owns the lifetime
// of prepared backend resources, negotiates capabilities, and enforces the
// frame and scene bracketing every backend relies on.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/gsg"
//		"github.com/gogpu/gsg/backend"
//		_ "github.com/gogpu/gsg/backend/native"
//	)
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	g, err := gsg.New(b)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//
//	g.BeginFrame()
//	g.SetScene(setup)
//	g.BeginScene()
//	g.SetStateAndTransform(rs, ts)
//	g.BeginDrawPrimitives(nil, nil, data, false)
//	g.DrawTriangles(prim, false)
//	g.EndDrawPrimitives()
//	g.EndScene()
//	g.EndFrame()
//
// # Lifecycle
//
// A guardian moves between the inactive, frame, scene and primitives
// phases. Calls made in the wrong phase are protocol violations: they are
// logged and counted, and return false without reaching the backend.
// WithStrictProtocol turns them into panics. A backend reporting
// driver.ErrDeviceLost, or a call to MarkNew, schedules a reset. It runs
// before the next state-changing call made between frames; inside a frame
// state and draw calls fail until the next BeginFrame.
//
// # Resources
//
// Textures, shaders, geoms, vertex and index buffers are prepared once per
// guardian and addressed by prepared.Context values. Contexts carry a
// generation, so a released context never aliases a newer resource.
// Preparation may be queued from any goroutine with QueuePrepare and is
// applied at the next BeginFrame.
//
// # Configuration
//
// Options configure logging (WithLogger), statistics (WithStatsSink) and
// capability overrides (WithConfig). Config can be loaded from TOML with
// LoadConfig.
//
// # Architecture
//
// The module is organized into:
//   - gsg: the Guardian
//   - state, gobj, view: the immutable inputs a renderer passes in
//   - driver: the backend contract and the standard geometry munger
//   - prepared: the resource context table
//   - stats: statistics sinks, including Prometheus
//   - backend: the backend registry, with recording and native backends
package gsg

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
