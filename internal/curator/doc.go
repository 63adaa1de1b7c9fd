// Package curator orchestrates a curation run: discovery, session grouping,
// timestamp resolution, classification, copying into the canonical
// sub-<subject>/ses-<id> layout, and optional container assembly.
//
// Sessions are processed sequentially. By default the first failing session
// aborts the run; with continue-on-error each session failure is recorded in
// the Report and the remaining sessions still run. Every run holds an
// exclusive lock on the output directory and is recorded in the manifest when
// a store is supplied.
package curator
