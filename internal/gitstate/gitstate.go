// Package gitstate inspects the repository the launcher runs from, to warn
// about state that will not survive into a submitted job (uncommitted
// changes, unpushed commits) and to build the $SLURM_TMPDIR checkout
// preamble.
package gitstate

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Status summarizes the repository state relevant before submission.
type Status struct {
	Branch  string         // current branch name
	Dirty   bool           // worktree has uncommitted changes
	Behinds map[string]int // commits behind <remote>/<checkout>, per remote
	Aheads  map[string]int // commits ahead of <remote>/<checkout>, per remote
	Notes   []string       // remotes where the checkout does not exist
}

func run(root string, args ...string) (string, error) {
	gitArgs := append([]string{"-C", root}, args...)
	output, err := exec.Command("git", gitArgs...).Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the checked-out branch name.
func CurrentBranch(root string) (string, error) {
	return run(root, "rev-parse", "--abbrev-ref", "HEAD")
}

// IsDirty reports whether the worktree has uncommitted changes.
func IsDirty(root string) (bool, error) {
	out, err := run(root, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// OriginURL returns the URL of the origin remote.
func OriginURL(root string) (string, error) {
	return run(root, "config", "--get", "remote.origin.url")
}

// Remotes lists the configured remote names.
func Remotes(root string) ([]string, error) {
	out, err := run(root, "remote")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func revCount(root, from, to string) (int, error) {
	out, err := run(root, "rev-list", "--count", from+".."+to)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// Check gathers the repository status for the given checkout (branch or
// commit). An empty checkout uses the current branch. Remotes where the
// checkout cannot be resolved are recorded in Notes rather than failing
// the whole check.
func Check(root, checkout string) (*Status, error) {
	branch, err := CurrentBranch(root)
	if err != nil {
		return nil, err
	}
	if checkout == "" {
		checkout = branch
	}

	dirty, err := IsDirty(root)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Branch:  branch,
		Dirty:   dirty,
		Behinds: map[string]int{},
		Aheads:  map[string]int{},
	}

	remotes, err := Remotes(root)
	if err != nil {
		return nil, err
	}
	for _, remote := range remotes {
		ref := remote + "/" + checkout
		behind, err := revCount(root, checkout, ref)
		if err != nil {
			status.Notes = append(status.Notes,
				fmt.Sprintf("checkout %s not found on remote %s", checkout, remote))
			continue
		}
		status.Behinds[remote] = behind
		if ahead, err := revCount(root, ref, checkout); err == nil {
			status.Aheads[remote] = ahead
		}
	}
	return status, nil
}

// SSHToHTTPS converts an ssh git URL to its https form.
func SSHToHTTPS(url string) (string, error) {
	if strings.Contains(url, "https://") {
		return url, nil
	}
	if strings.Contains(url, "git@") {
		parts := strings.SplitN(url, ":", 2)
		if len(parts) == 2 {
			return "https://github.com/" + parts[1], nil
		}
	}
	return "", fmt.Errorf("could not convert %s to https", url)
}

// RepoName extracts the repository name from a remote URL.
func RepoName(url string) string {
	trimmed := strings.Split(url, ".git")[0]
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}

// ClonePreamble builds the multi-line value substituted for {code_dir}
// when the code dir points into $SLURM_TMPDIR: the job clones the repo
// into the node-local scratch and checks out the requested revision. The
// caller prepends "cd " in the template.
func ClonePreamble(root, checkout string, asHTTPS bool) (string, error) {
	if checkout == "" {
		branch, err := CurrentBranch(root)
		if err != nil {
			return "", err
		}
		checkout = branch
	}

	repoURL, err := OriginURL(root)
	if err != nil {
		return "", err
	}
	if asHTTPS {
		repoURL, err = SSHToHTTPS(repoURL)
		if err != nil {
			return "", err
		}
	}
	repoName := RepoName(repoURL)

	checkoutLine := ""
	if checkout != "" {
		checkoutLine = "git checkout " + checkout
	}

	return fmt.Sprintf(`$SLURM_TMPDIR
git clone %s tmp-%s
cd tmp-%s
%s
echo "Current commit: $(git rev-parse HEAD)"
`, repoURL, repoName, repoName, checkoutLine), nil
}
