package confmap

import (
	"testing"

	"github.com/go-test/deep"
)

func TestDeepMergeOverridePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		base     Map
		override Map
		want     Map
	}{
		{
			name:     "scalar override wins",
			base:     Map{"mem": "16G"},
			override: Map{"mem": "32G"},
			want:     Map{"mem": "32G"},
		},
		{
			name:     "base-only keys preserved",
			base:     Map{"mem": "16G", "gres": "gpu:1"},
			override: Map{"mem": "32G"},
			want:     Map{"mem": "32G", "gres": "gpu:1"},
		},
		{
			name:     "override-only keys added",
			base:     Map{"mem": "16G"},
			override: Map{"partition": "main"},
			want:     Map{"mem": "16G", "partition": "main"},
		},
		{
			name: "nested maps recurse",
			base: Map{
				"gflownet": map[string]interface{}{
					"policy": map[string]interface{}{"backward": "uniform", "forward": "mlp"},
				},
			},
			override: Map{
				"gflownet": map[string]interface{}{
					"policy": map[string]interface{}{"backward": nil},
				},
			},
			want: Map{
				"gflownet": map[string]interface{}{
					"policy": map[string]interface{}{"backward": nil, "forward": "mlp"},
				},
			},
		},
		{
			name:     "map replaced by scalar",
			base:     Map{"gflownet": map[string]interface{}{"__value__": "flowmatch"}},
			override: Map{"gflownet": "trajectorybalance"},
			want:     Map{"gflownet": "trajectorybalance"},
		},
		{
			name:     "scalar replaced by map",
			base:     Map{"gflownet": "flowmatch"},
			override: Map{"gflownet": map[string]interface{}{"__value__": "trajectorybalance"}},
			want:     Map{"gflownet": map[string]interface{}{"__value__": "trajectorybalance"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeepMerge(tt.base, tt.override, nil)
			if diff := deep.Equal(got, tt.want); diff != nil {
				t.Errorf("DeepMerge mismatch: %v", diff)
			}
		})
	}
}

func TestDeepMergeIdempotent(t *testing.T) {
	m := Map{
		"mem": "16G",
		"script": map[string]interface{}{
			"user": "alice",
			"gflownet": map[string]interface{}{
				"__value__": "trajectorybalance",
			},
		},
	}

	warned := false
	got := DeepMerge(m, m, func(string) { warned = true })
	if diff := deep.Equal(got, m); diff != nil {
		t.Errorf("DeepMerge(A, A) != A: %v", diff)
	}
	if warned {
		t.Error("merging a map with itself should not warn")
	}
}

func TestDeepMergeDoesNotMutateBase(t *testing.T) {
	base := Map{
		"slurm": map[string]interface{}{"mem": "16G"},
	}
	override := Map{
		"slurm": map[string]interface{}{"mem": "32G"},
	}

	_ = DeepMerge(base, override, nil)

	inner, err := SubMap(base, "slurm")
	if err != nil {
		t.Fatalf("SubMap: %v", err)
	}
	if inner["mem"] != "16G" {
		t.Errorf("base mutated: slurm.mem = %v; want 16G", inner["mem"])
	}
}

func TestDeepMergeWarnPaths(t *testing.T) {
	base := Map{
		"mem": "16G",
		"script": map[string]interface{}{
			"user": "alice",
		},
	}
	override := Map{
		"mem": "32G",
		"script": map[string]interface{}{
			"user": "bob",
		},
	}

	var paths []string
	DeepMerge(base, override, func(path string) { paths = append(paths, path) })

	want := map[string]bool{"mem": true, "script.user": true}
	if len(paths) != len(want) {
		t.Fatalf("got %d warnings (%v); want %d", len(paths), paths, len(want))
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("unexpected warning path %q", p)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Map{
		"slurm": map[string]interface{}{"mem": "16G"},
		"list":  []interface{}{"a", "b"},
	}
	clone := Clone(orig)

	inner, _ := AsMap(clone["slurm"])
	inner["mem"] = "64G"
	clone["list"].([]interface{})[0] = "z"

	origInner, _ := AsMap(orig["slurm"])
	if origInner["mem"] != "16G" {
		t.Error("clone shares nested map with original")
	}
	if orig["list"].([]interface{})[0] != "a" {
		t.Error("clone shares slice with original")
	}
}
