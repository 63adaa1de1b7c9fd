// Package pipeline defines shared utilities consumed by every curation stage.
//
// Key responsibilities:
//   - Sentinel error markers (discovery, missing timestamp, parse, write,
//     validation, configuration) plus the Wrap helper that stamps stage and
//     operation context onto failures while keeping errors.Is classification.
//   - Context helpers that carry the run ID, subject, and session ID so log
//     lines and manifest rows can be correlated.
//
// Use these helpers when wiring new stage logic so error reporting and
// observability stay uniform across discovery, grouping, copying, and
// container assembly.
package pipeline
