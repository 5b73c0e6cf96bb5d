package config

import (
	"os"
	"path/filepath"
)

const VERSION = "0.4.2"

// Config holds global application settings
type Config struct {
	Debug        bool
	Root         string // tool root; the $root token resolves here
	ConfigDir    string
	TemplatesDir string
	JobsDir      string
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults locates the tool root and fills Global. The root is the
// directory above the executable when it carries a config/ tree, otherwise
// the working directory (running from a source checkout).
func LoadDefaults(executablePath string) {
	programDir := filepath.Dir(executablePath)
	root := filepath.Dir(programDir)

	if _, err := os.Stat(filepath.Join(root, "config")); os.IsNotExist(err) {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}

	Global = Config{
		Debug:        false,
		Root:         root,
		ConfigDir:    filepath.Join(root, "config"),
		TemplatesDir: filepath.Join(root, "config", "templates"),
		JobsDir:      filepath.Join(root, "config", "jobs"),
	}
}
