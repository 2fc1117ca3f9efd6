package web

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// safeFilename rewrites name so it is safe to use as a download filename: characters that are
// special on common filesystems become underscores, leading/trailing spaces and dots are
// trimmed, and remaining spaces become underscores.
func safeFilename(name string) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, " .")
	return strings.ReplaceAll(safe, " ", "_")
}
