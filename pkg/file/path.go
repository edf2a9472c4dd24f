package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext, which may be given
// with or without the leading dot. Dotfiles and extension-less names
// get ext appended; empty paths pass through unchanged.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	return filepath.Join(dir, name+ext)
}
