package confmap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandVars(t *testing.T) {
	res := Resolver{Root: "/repos/gflownet"}
	t.Setenv("LNC_TEST_USER", "alice")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"root token", "$root/config", "/repos/gflownet/config"},
		{"repo name token", "logs/$repoName", "logs/gflownet"},
		{"env var", "$LNC_TEST_USER", "alice"},
		{"braced env var", "${LNC_TEST_USER}/runs", "alice/runs"},
		{"unset var passes through", "$LNC_TEST_UNSET_VAR/x", "$LNC_TEST_UNSET_VAR/x"},
		{"no vars", "plain/path", "plain/path"},
		{"mixed", "$root/out/$LNC_TEST_USER", "/repos/gflownet/out/alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := res.ExpandVars(tt.input); got != tt.want {
				t.Errorf("ExpandVars(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	res := Resolver{Root: "/repos/gflownet"}

	got, err := res.ResolvePath("$root/config/../config/jobs")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if got != "/repos/gflownet/config/jobs" {
		t.Errorf("ResolvePath = %q; want /repos/gflownet/config/jobs", got)
	}
}

func TestResolvePathEmpty(t *testing.T) {
	res := Resolver{Root: "/repos/gflownet"}
	got, err := res.ResolvePath("")
	if err != nil {
		t.Fatalf("ResolvePath(\"\"): %v", err)
	}
	if got != "" {
		t.Errorf("ResolvePath(\"\") = %q; want empty", got)
	}
}

func TestResolvePathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	res := Resolver{Root: "/repos/gflownet"}

	got, err := res.ResolvePath("~/scratch/out")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if got != filepath.Join(home, "scratch", "out") {
		t.Errorf("ResolvePath(~/scratch/out) = %q", got)
	}
}
