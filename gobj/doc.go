// Package gobj defines the source objects a renderer hands to a guardian:
// textures, shaders, vertex data, primitives and geoms.
//
// Every object carries a process-unique ID and a modification counter.
// The guardian keys prepared backend resources by ID and re-uploads an
// object when its counter moves. Objects never reference backend state.
package gobj
