// Package preflight provides readiness checks for the filesystem paths a
// curation run depends on.
//
// The curator runs these once per run after sessions are planned and before
// any file is copied: the base directory must be readable, the output
// directory (or its nearest existing ancestor) writable, and the output
// filesystem must have room for every file the run will copy. Dry runs
// report the results without failing.
package preflight
