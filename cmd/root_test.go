package cmd

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/slurmkit/slaunch/internal/confmap"
)

func TestCollectFlagsOnlyChanged(t *testing.T) {
	args := []string{"--mem", "64G", "--dry-run", "--cpus-per-task", "4", "--git-checkout", "main"}
	if err := rootCmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}

	cli := collectFlags(rootCmd)

	// only flags the user set, keyed by their snake_case config name
	want := confmap.Map{
		"mem":           "64G",
		"dry_run":       true,
		"cpus_per_task": 4,
		"git_checkout":  "main",
	}
	if diff := deep.Equal(cli, want); diff != nil {
		t.Error(diff)
	}
}
