package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Standard default permissions
// File: u=rw, g=rw, o=r
const PermFile os.FileMode = 0664

// Dir:  u=rwx, g=rwx, o=rx (Requires +x to traverse)
const PermDir os.FileMode = 0775

// Exec: u=rwx, g=rx, o=rx (for generated batch scripts)
const PermExec os.FileMode = 0755

// FileExists checks if a path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates the directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	if err := os.MkdirAll(path, PermDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// RelativeToCwd shortens a path for display: relative to the working
// directory when possible (prefixed with "./"), with the tool root, home
// directory and $SCRATCH collapsed back to their symbolic forms.
func RelativeToCwd(path, root string) string {
	display := path
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
			display = "./" + rel
		}
	}
	if root != "" {
		display = strings.ReplaceAll(display, root, "$root")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		display = strings.ReplaceAll(display, home, "~")
	}
	if scratch := os.Getenv("SCRATCH"); scratch != "" {
		display = strings.ReplaceAll(display, scratch, "$SCRATCH")
	}
	return display
}
