package scanner

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// imageExtensions is the fixed allow-list, lower case, without the dot.
var imageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"bmp":  {},
	"gif":  {},
	"svg":  {},
	"ico":  {},
}

// Extensions returns the accepted extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(imageExtensions))
	for ext := range imageExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extension returns the lower-cased text after the last dot of the base
// name. Leading dots do not count, so ".png" has no extension.
func Extension(name string) string {
	base := strings.TrimLeft(path.Base(filepath.ToSlash(name)), ".")
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// IsImage reports whether name carries one of the accepted extensions.
func IsImage(name string) bool {
	_, ok := imageExtensions[Extension(name)]
	return ok
}
