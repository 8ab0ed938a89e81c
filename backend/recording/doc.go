// Package recording provides a backend that renders nothing and records
// every call a guardian makes.
//
// It is the reference for what a guardian sends downstream: tests assert on
// the recorded call list, tools use it for dry runs, and FailNext injects
// backend errors such as device loss.
//
//	rec := recording.New()
//	g, _ := gsg.New(rec)
//	...
//	n := rec.Count(recording.OpIssueAttrib)
//
// The package registers itself as backend "recording" on import.
package recording
