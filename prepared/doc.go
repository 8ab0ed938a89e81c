// Package prepared tracks backend resources that a guardian has created on
// behalf of source objects.
//
// Each resource kind has its own table. A Context is a generational index
// into one table: releasing a context bumps the slot generation, so a stale
// or repeated release is detected instead of freeing a handle twice.
// Sources are looked up by their object ID, which makes preparation
// idempotent.
//
// Requests from goroutines other than the owner are staged with Stage and
// drained by the owner with TakeStaged.
package prepared
