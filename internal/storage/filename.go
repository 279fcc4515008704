package storage

import (
	"path"
	"regexp"
	"strings"
)

// AllowedExtensions is the upload allow-list. Anything else is rejected
// before it reaches the namespace.
var AllowedExtensions = map[string]bool{
	"txt":  true,
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"doc":  true,
	"docx": true,
	"ppt":  true,
	"pptx": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client-supplied filename to a safe flat
// name: path components are stripped, spaces become underscores, any
// character outside [A-Za-z0-9_.-] is removed, and leading dots are
// trimmed so traversal segments collapse to nothing. Returns an empty
// string when nothing safe remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Extension returns the lowercased extension of a filename without the
// dot, or an empty string when there is none.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// AllowedExtension reports whether the filename carries an allow-listed
// extension.
func AllowedExtension(name string) bool {
	ext := Extension(name)
	return ext != "" && AllowedExtensions[ext]
}
