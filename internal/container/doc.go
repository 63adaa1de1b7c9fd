// Package container assembles the per-session multi-stream container.
//
// A container bundles session and subject metadata, one device per physical
// camera or sensor, an imaging-plane descriptor when a miniscope stream is
// present, the session's relative timestamp series (stored once), and one
// acquisition stream per file role. Streams reference the copied recordings by
// file name, so the container only stays valid next to the files it was
// written with.
//
// Documents are checked against an embedded JSON Schema and serialized as
// RFC 8785 canonical JSON, which keeps re-runs over the same inputs
// byte-stable apart from the generated identifier.
package container
