// Package pipeline is the batch orchestration layer. A [Session] tracks the
// entries of the current selection through validation, preview generation,
// conversion and download, and keeps that state consistent across
// re-selection, cancellation and per-entry failure.
//
// Every stage holds a [Token] minted when it started. Session state is only
// mutated while the token is still current; a stage that finds its token
// stale returns without side effects. The session lock is released around
// every engine call and tokens are re-checked once it is re-acquired.
// Engine calls themselves are serialized so decode and encode work never
// interleave.
//
// Files:
//   - token.go: Sequence and Token (monotonic counter plus abort signal)
//   - registry.go: Entry Registry with handle disposal
//   - validate.go: Selection Validator
//   - preview.go, convert.go, download.go: the sequential stages
//   - session.go: user actions and derived UI state
//   - surface.go: serializes engine calls
//   - discover.go: expands paths into file descriptors for hosts
package pipeline
