// Package state defines the storage contract behind program settings
// snapshots: a Store[T] loads, saves and deletes one snapshot per Ref.
//
// The params package keeps one snapshot per program id through
// params.Settings, which wraps a Store[*params.Store]. MemoryStore is the
// in-process implementation used by default; other backends only need to
// implement Store[T].
//
// Deterministic keys:
//
//	Ref.Identifier() renders `<namespace>/<program>`, with the namespace
//	defaulting to `params`. Program ids may not contain `/`.
//
// Concurrency:
//
//	Meta.ETag guards read-modify-write cycles through Update; a mismatch
//	returns ErrETagMismatch without saving.
package state
