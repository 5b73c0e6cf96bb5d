// Package jobs loads job-set YAML files: a shared baseline plus a list of
// per-job overrides, each merged into a full job descriptor.
package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slurmkit/slaunch/internal/confmap"
	"github.com/slurmkit/slaunch/internal/utils"
)

// ErrMissingJobsList indicates the document has no "jobs" list, which is
// the one mandatory section of a job-set file.
var ErrMissingJobsList = errors.New("job-set file has no \"jobs\" list")

// Job is one entry of a job-set, after merging with the shared baseline.
// Slurm carries scheduler resource parameters, Script the arguments
// forwarded to the launched program, Extra any other entry-level fields
// (they override the launch configuration as-is).
type Job struct {
	Slurm  confmap.Map
	Script confmap.Map
	Extra  confmap.Map
}

// Load reads a job-set YAML file and returns one descriptor per entry of
// the "jobs" list, in list order. Each entry's slurm and script sub-maps
// are merged onto shared.slurm and shared.script respectively; warn
// receives the dotted path of every overridden leaf. An empty path returns
// an empty set without error.
func Load(path string, warn confmap.WarnFunc) ([]Job, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job-set file: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	shared, err := confmap.SubMap(doc, "shared")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sharedSlurm, err := confmap.SubMap(shared, "slurm")
	if err != nil {
		return nil, fmt.Errorf("%s: shared: %w", path, err)
	}
	sharedScript, err := confmap.SubMap(shared, "script")
	if err != nil {
		return nil, fmt.Errorf("%s: shared: %w", path, err)
	}

	raw, ok := doc["jobs"]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingJobsList)
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: \"jobs\" must be a list, got %T", path, raw)
	}

	out := make([]Job, 0, len(list))
	for i, rawEntry := range list {
		entry := confmap.Map{}
		if rawEntry != nil {
			m, ok := confmap.AsMap(rawEntry)
			if !ok {
				return nil, fmt.Errorf("%s: job %d: expected a mapping, got %T", path, i, rawEntry)
			}
			entry = m
		}

		entrySlurm, err := confmap.SubMap(entry, "slurm")
		if err != nil {
			return nil, fmt.Errorf("%s: job %d: %w", path, i, err)
		}
		entryScript, err := confmap.SubMap(entry, "script")
		if err != nil {
			return nil, fmt.Errorf("%s: job %d: %w", path, i, err)
		}

		extra := confmap.Clone(entry)
		delete(extra, "slurm")
		delete(extra, "script")

		out = append(out, Job{
			Slurm:  confmap.DeepMerge(sharedSlurm, entrySlurm, warn),
			Script: confmap.DeepMerge(sharedScript, entryScript, warn),
			Extra:  extra,
		})
	}
	return out, nil
}

// Locate resolves the --jobs value to a job-set file path and the output
// directory for the generated sbatch files.
//
// An empty spec means no jobs file; sbatch files go to <sbatchRoot>/_other_.
// A spec naming an existing YAML file is used directly. Anything else is
// treated as a (possibly nested) name under <root>/config/jobs, matched
// with extension and "external/" or "jobs/" prefixes stripped; zero matches
// is an error, several matches warn and use the first.
func Locate(spec string, res confmap.Resolver, sbatchRoot string) (string, string, error) {
	if spec == "" {
		return "", filepath.Join(sbatchRoot, "_other_"), nil
	}

	direct, err := res.ResolvePath(spec)
	if err != nil {
		utils.PrintDebug("could not resolve %q as a path, falling back to a name lookup: %v", spec, err)
	} else if utils.FileExists(direct) {
		if !strings.HasSuffix(direct, ".yaml") && !strings.HasSuffix(direct, ".yml") {
			return "", "", fmt.Errorf("jobs file must be a yaml file: %s", direct)
		}
		return direct, filepath.Join(sbatchRoot, filepath.Base(filepath.Dir(direct))), nil
	}

	name := spec
	name = strings.TrimSuffix(name, ".yaml")
	name = strings.TrimSuffix(name, ".yml")
	name = strings.TrimPrefix(name, "external/")
	name = strings.TrimPrefix(name, "jobs/")

	jobsDir := filepath.Join(res.Root, "config", "jobs")
	matches, err := filepath.Glob(filepath.Join(jobsDir, name+".y*ml"))
	if err != nil {
		return "", "", fmt.Errorf("invalid jobs name %q: %w", spec, err)
	}
	if len(matches) == 0 {
		return "", "", fmt.Errorf("could not find %s.y(a)ml in %s", name, jobsDir)
	}
	if len(matches) > 1 {
		utils.PrintWarning("found multiple job-set matches, using the first:\n  - %s", strings.Join(matches, "\n  - "))
	}

	path := matches[0]
	rel, err := filepath.Rel(jobsDir, filepath.Dir(path))
	if err != nil {
		rel = ""
	}
	return path, filepath.Join(sbatchRoot, rel), nil
}
