// Package main hosts the curator CLI entrypoint and command graph.
//
// The root command runs a curation pass over a raw acquisition tree. The
// sessions subcommand previews what would be curated, history lists recorded
// runs from the manifest, and config scaffolds configuration files. The
// package resolves configuration, logging, and the manifest store once so
// subcommands only translate flags into internal package calls.
package main
