// Package output decides where rendered notes go and writes them.
//
// Plan resolves a Strategy from the command line and the decoded data: one
// combined file, or one note per record inside a directory. Namer derives
// per-record note names and Writer persists them, resolving name collisions
// within a run and optionally asking before overwriting or printing a diff
// instead of writing.
package output
