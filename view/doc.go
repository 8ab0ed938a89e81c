// Package view describes where and how a scene is rendered: lenses,
// display regions, stereo channels, clear settings and coordinate-system
// conventions.
package view
