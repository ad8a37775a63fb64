// Package data loads the records rendered into Markdown notes. Documents are
// fetched through a Loader (file, fs.FS or HTTP), decoded from JSON, CSV or
// YAML, and navigated with dotted paths.
package data
