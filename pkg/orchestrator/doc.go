// Package orchestrator wires the data loader, the template engine and the
// output writer into one pipeline: load and decode a data document, select
// the records, name each note, render it and write the result as one file or
// one note per record.
package orchestrator
