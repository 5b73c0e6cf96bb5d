package confmap

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// envRefRe matches $NAME and ${NAME} environment variable references.
var envRefRe = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// Resolver expands the reserved $root / $repoName tokens and environment
// variables inside configuration strings. Root is the absolute path of the
// tool's root directory.
type Resolver struct {
	Root string
}

// ExpandVars substitutes $root and $repoName, then any remaining
// environment variable references. References to variables that are not set
// are passed through unchanged, so values like "$SLURM_TMPDIR" survive until
// the scheduler expands them at job runtime.
func (r Resolver) ExpandVars(s string) string {
	candidate := strings.ReplaceAll(s, "$root", r.Root)
	candidate = strings.ReplaceAll(candidate, "$repoName", filepath.Base(r.Root))
	if !strings.Contains(candidate, "$") {
		return candidate
	}
	return envRefRe.ReplaceAllStringFunc(candidate, func(ref string) string {
		name := strings.Trim(ref, "${}")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return ref
	})
}

// ResolvePath expands variables and the user home directory, then returns an
// absolute, cleaned path. An empty input resolves to an empty string without
// error.
func (r Resolver) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded := r.ExpandVars(path)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
