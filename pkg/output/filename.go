package output

import "strings"

var unsafeFilename = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFilename replaces characters that are invalid in file names with
// "_". Forward slashes are kept when allowPaths is set so names can address
// subdirectories.
func SanitizeFilename(name string, allowPaths bool) string {
	name = unsafeFilename.Replace(name)
	if !allowPaths {
		name = strings.ReplaceAll(name, "/", "_")
	}
	return name
}
