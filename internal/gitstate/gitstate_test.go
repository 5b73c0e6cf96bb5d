package gitstate

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestSSHToHTTPS(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"ssh url", "git@github.com:alice/gflownet.git", "https://github.com/alice/gflownet.git", false},
		{"https passthrough", "https://github.com/alice/gflownet.git", "https://github.com/alice/gflownet.git", false},
		{"unknown scheme", "svn://example.com/repo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SSHToHTTPS(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SSHToHTTPS(%q) expected error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("SSHToHTTPS(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("SSHToHTTPS(%q) = %q; want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:alice/gflownet.git", "gflownet"},
		{"https://github.com/alice/gflownet.git", "gflownet"},
		{"https://github.com/alice/gflownet", "gflownet"},
	}

	for _, tt := range tests {
		if got := RepoName(tt.url); got != tt.want {
			t.Errorf("RepoName(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

// initTestRepo creates a throwaway git repository with one commit and an
// origin remote, or skips the test when git is unavailable.
func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git not available: %v", err)
	}

	root := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	git("init", "-b", "main")
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("hi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	git("add", "README")
	git("commit", "-m", "initial")
	git("remote", "add", "origin", "git@github.com:alice/gflownet.git")
	return root
}

func TestCheckCleanRepo(t *testing.T) {
	root := initTestRepo(t)

	status, err := Check(root, "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.Branch != "main" {
		t.Errorf("Branch = %q; want main", status.Branch)
	}
	if status.Dirty {
		t.Error("fresh repo reported dirty")
	}
	// origin was never fetched, so main cannot be resolved there
	if len(status.Notes) != 1 || !strings.Contains(status.Notes[0], "origin") {
		t.Errorf("Notes = %v; want one note about origin", status.Notes)
	}
}

func TestCheckDirtyRepo(t *testing.T) {
	root := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("changed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	status, err := Check(root, "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !status.Dirty {
		t.Error("modified repo not reported dirty")
	}
}

func TestClonePreamble(t *testing.T) {
	root := initTestRepo(t)

	preamble, err := ClonePreamble(root, "", true)
	if err != nil {
		t.Fatalf("ClonePreamble: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(preamble), "\n")
	if lines[0] != "$SLURM_TMPDIR" {
		t.Errorf("first line = %q; want $SLURM_TMPDIR", lines[0])
	}
	want := []string{
		"git clone https://github.com/alice/gflownet.git tmp-gflownet",
		"cd tmp-gflownet",
		"git checkout main",
	}
	for i, w := range want {
		if lines[i+1] != w {
			t.Errorf("line %d = %q; want %q", i+1, lines[i+1], w)
		}
	}
	if !strings.Contains(lines[len(lines)-1], "git rev-parse HEAD") {
		t.Errorf("last line should echo the commit, got %q", lines[len(lines)-1])
	}
}
