// Package driver defines the contract between a guardian and a rendering
// backend.
//
// A Backend reports its Caps during Reset, then receives already-filtered
// work: only state slots that actually changed, only resources that are not
// yet prepared, and geometry converted by a Munger into a form the backend
// renders natively. Backends live in the backend/ tree and register
// themselves with backend.Register.
package driver
