// Package launcher orchestrates a launch: layer configuration per job,
// render the sbatch template, write the script, submit it, and record the
// resulting job IDs.
package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/slurmkit/slaunch/internal/confmap"
	"github.com/slurmkit/slaunch/internal/gitstate"
	"github.com/slurmkit/slaunch/internal/jobs"
	"github.com/slurmkit/slaunch/internal/script"
	"github.com/slurmkit/slaunch/internal/template"
	"github.com/slurmkit/slaunch/internal/utils"
)

// Submitter hands a batch script to the scheduler and returns the assigned
// job ID plus the scheduler's raw output.
type Submitter interface {
	Submit(scriptPath string) (jobID, output string, err error)
}

// Result records one submitted job.
type Result struct {
	JobID      string
	SbatchPath string
	OutputFile string
}

// Launcher runs the submission pipeline for one invocation.
type Launcher struct {
	Conf          confmap.Map      // launch configuration (defaults, file, env)
	CLIArgs       confmap.Map      // explicitly set CLI flags; applied last, always win
	CLIScriptArgs string           // passthrough script args (everything after --)
	Resolver      confmap.Resolver // $root-aware path resolution
	Submitter     Submitter        // nil is only valid in dry-run mode

	// gitWarned makes the git warnings fire once per run even when several
	// jobs are submitted; explicit state instead of a process-wide flag.
	gitWarned bool
}

// nowStamp identifies all artifacts of one invocation, e.g. "2026-08-31_14-03-59".
func nowStamp() string {
	return time.Now().Format("2006-01-02_15-04-05")
}

// Run executes the full pipeline and returns one Result per submitted job.
// The first failing job aborts the remaining batch.
func (l *Launcher) Run() ([]Result, error) {
	verbose := confmap.GetBool(l.Conf, "verbose")
	dryRun := confmap.GetBool(l.Conf, "dry_run")
	force := confmap.GetBool(l.Conf, "force")

	warn := l.mergeWarnFunc(verbose)

	if verbose {
		utils.PrintMessage("%s", utils.StyleTitle("Current launch configuration:"))
		for _, line := range FormatMap(l.Conf) {
			utils.PrintMessage("  - %s", line)
		}
	}

	tmpl, err := l.loadTemplate()
	if err != nil {
		return nil, err
	}

	outdir, err := l.Resolver.ResolvePath(confmap.GetString(l.Conf, "outdir"))
	if err != nil {
		return nil, err
	}
	if !dryRun {
		if err := utils.EnsureDir(outdir); err != nil {
			return nil, err
		}
	}

	sbatchRoot, err := l.Resolver.ResolvePath(confmap.GetString(l.Conf, "sbatch_files_root"))
	if err != nil {
		return nil, err
	}
	jobsPath, localOutDir, err := jobs.Locate(confmap.GetString(l.Conf, "jobs"), l.Resolver, sbatchRoot)
	if err != nil {
		return nil, err
	}
	if jobsPath != "" {
		utils.PrintMessage("Using jobs file: %s", utils.StylePath(utils.RelativeToCwd(jobsPath, l.Resolver.Root)))
	}

	jobSet, err := jobs.Load(jobsPath, warn)
	if err != nil {
		return nil, err
	}
	if len(jobSet) == 0 {
		// No jobs file: submit a single job from the CLI configuration.
		jobSet = []jobs.Job{{Slurm: confmap.Map{}, Script: confmap.Map{}, Extra: confmap.Map{}}}
	}

	if !force && !dryRun {
		if err := l.validateGit(); err != nil {
			return nil, err
		}
		if verbose {
			utils.PrintMessage("Candidate job configs:")
			for i, job := range jobSet {
				utils.PrintMessage("  - %d: slurm=%v script=%v", i, job.Slurm, job.Script)
			}
		}
		if !utils.Confirm(fmt.Sprintf("Submit %d job(s)?", len(jobSet))) {
			utils.PrintMessage("Aborted")
			return nil, nil
		}
	}

	now := nowStamp()
	var results []Result

	for i, job := range jobSet {
		jobConf, err := l.layerJob(job, warn)
		if err != nil {
			return results, fmt.Errorf("job %d: %w", i, err)
		}

		scriptArgs, err := script.Flatten(jobConf.script)
		if err != nil {
			return results, fmt.Errorf("job %d: %w", i, err)
		}
		if scriptArgs != "" && l.CLIScriptArgs != "" {
			scriptArgs += " "
		}
		scriptArgs += l.CLIScriptArgs
		jobConf.conf["script_args"] = scriptArgs

		rendered, err := template.Render(tmpl, jobConf.conf)
		if err != nil {
			return results, fmt.Errorf("job %d: %w", i, err)
		}

		sbatchPath := l.sbatchPath(localOutDir, jobsPath, jobConf.conf, now, i)

		if !dryRun {
			result, finalPath, finalText, err := l.submitOne(sbatchPath, rendered, jobConf.conf, outdir, now)
			if err != nil {
				return results, fmt.Errorf("job %d: %w", i, err)
			}
			results = append(results, result)
			sbatchPath, rendered = finalPath, finalText
		}

		if dryRun || verbose {
			if dryRun {
				utils.PrintNote("DRY RUN: would have written sbatch file: %s", utils.StylePath(sbatchPath))
			}
			printFramed(rendered)
		}
	}

	l.recap(results, jobSet)

	if jobsPath != "" {
		if err := l.writeSummary(jobsPath, localOutDir, now, results, dryRun); err != nil {
			return results, err
		}
	}
	return results, nil
}

// layeredJob pairs the fully merged configuration of one job with its
// script sub-map.
type layeredJob struct {
	conf   confmap.Map
	script confmap.Map
}

// layerJob applies the precedence order for one job: launch configuration
// <- job slurm block <- job passthrough fields (incl. script) <- CLI flags.
func (l *Launcher) layerJob(job jobs.Job, warn confmap.WarnFunc) (layeredJob, error) {
	jobConf := confmap.DeepMerge(l.Conf, job.Slurm, warn)

	overrides := confmap.Clone(job.Extra)
	overrides["script"] = job.Script
	jobConf = confmap.DeepMerge(jobConf, overrides, warn)

	// CLI has the final say
	jobConf = confmap.DeepMerge(jobConf, l.CLIArgs, warn)

	codeDir, err := l.resolveCodeDir(jobConf)
	if err != nil {
		return layeredJob{}, err
	}
	jobConf["code_dir"] = codeDir

	for _, key := range []string{"outdir", "venv"} {
		resolved, err := l.Resolver.ResolvePath(confmap.GetString(jobConf, key))
		if err != nil {
			return layeredJob{}, err
		}
		jobConf[key] = resolved
	}

	scriptMap, err := confmap.SubMap(jobConf, "script")
	if err != nil {
		return layeredJob{}, err
	}
	return layeredJob{conf: jobConf, script: scriptMap}, nil
}

// resolveCodeDir returns the {code_dir} value: the clone preamble when the
// configured dir lives in $SLURM_TMPDIR, a resolved path otherwise.
func (l *Launcher) resolveCodeDir(jobConf confmap.Map) (string, error) {
	codeDir := confmap.GetString(jobConf, "code_dir")
	if !strings.Contains(codeDir, "SLURM_TMPDIR") {
		return l.Resolver.ResolvePath(codeDir)
	}
	return gitstate.ClonePreamble(
		l.Resolver.Root,
		confmap.GetString(jobConf, "git_checkout"),
		confmap.GetBool(jobConf, "clone_as_https"),
	)
}

// loadTemplate reads the sbatch template, trying the configured path first
// and then the same file name under the templates directory.
func (l *Launcher) loadTemplate() (string, error) {
	templatePath, err := l.Resolver.ResolvePath(confmap.GetString(l.Conf, "template"))
	if err != nil {
		return "", err
	}
	if !utils.FileExists(templatePath) {
		alternative := filepath.Join(l.Resolver.Root, "config", "templates", filepath.Base(templatePath))
		if !utils.FileExists(alternative) {
			return "", fmt.Errorf("could not find template file at %s or %s", templatePath, alternative)
		}
		templatePath = alternative
	}
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// sbatchPath names the script for job i of this invocation.
func (l *Launcher) sbatchPath(localOutDir, jobsPath string, jobConf confmap.Map, now string, i int) string {
	if jobsPath != "" {
		stem := strings.TrimSuffix(filepath.Base(jobsPath), filepath.Ext(jobsPath))
		return filepath.Join(localOutDir, fmt.Sprintf("%s_%s_%d.sbatch", stem, now, i))
	}
	return filepath.Join(localOutDir, fmt.Sprintf("%s_%s.sbatch", confmap.GetString(jobConf, "job_name"), now))
}

// submitOne writes the rendered script, submits it, renames the file with
// the returned job ID and appends the ID and output path as trailing
// comments.
func (l *Launcher) submitOne(sbatchPath, rendered string, jobConf confmap.Map, outdir, now string) (Result, string, string, error) {
	if l.Submitter == nil {
		return Result{}, "", "", fmt.Errorf("no scheduler available (is sbatch on PATH?)")
	}

	if err := utils.EnsureDir(filepath.Dir(sbatchPath)); err != nil {
		return Result{}, "", "", err
	}
	if err := os.WriteFile(sbatchPath, []byte(rendered), utils.PermExec); err != nil {
		return Result{}, "", "", fmt.Errorf("failed to write sbatch file: %w", err)
	}

	jobID, out, err := l.Submitter.Submit(sbatchPath)
	if err != nil {
		return Result{}, "", "", err
	}
	utils.PrintSuccess("%s", out)

	// Rename with the assigned job ID so artifacts sort by job.
	stem := strings.TrimSuffix(filepath.Base(sbatchPath), ".sbatch")
	prefix := strings.Split(stem, "_"+now)[0]
	newName := fmt.Sprintf("%s_%s_%s.sbatch", prefix, jobID, now)
	finalPath := filepath.Join(filepath.Dir(sbatchPath), newName)
	if err := os.Rename(sbatchPath, finalPath); err != nil {
		return Result{}, "", "", fmt.Errorf("failed to rename sbatch file: %w", err)
	}
	utils.PrintMessage("Created %s", utils.StylePath(utils.RelativeToCwd(finalPath, l.Resolver.Root)))

	outputFile := filepath.Join(outdir, fmt.Sprintf("%s-%s.out", confmap.GetString(jobConf, "job_name"), jobID))
	utils.PrintMessage("Job output file will be: %s", utils.StylePath(utils.RelativeToCwd(outputFile, l.Resolver.Root)))

	rendered += fmt.Sprintf("\n# SLURM_JOB_ID: %s\n# Output file: %s\n", jobID, outputFile)
	if err := os.WriteFile(finalPath, []byte(rendered), utils.PermExec); err != nil {
		return Result{}, "", "", fmt.Errorf("failed to rewrite sbatch file: %w", err)
	}

	return Result{JobID: jobID, SbatchPath: finalPath, OutputFile: outputFile}, finalPath, rendered, nil
}

// validateGit surfaces repository state that will not make it into the
// job (missing checkout flag, dirty worktree, unpushed commits) and asks
// for confirmation when anything is worth flagging. Warnings fire at most
// once per run.
func (l *Launcher) validateGit() error {
	if l.gitWarned || confmap.GetBool(l.Conf, "allow_no_checkout") {
		return nil
	}
	l.gitWarned = true

	checkout := confmap.GetString(l.Conf, "git_checkout")
	status, err := gitstate.Check(l.Resolver.Root, checkout)
	if err != nil {
		utils.PrintDebug("git status check skipped: %v", err)
		return nil
	}

	var warnings []string
	if checkout == "" {
		warnings = append(warnings,
			fmt.Sprintf("--git-checkout not provided. Using current branch: %s", status.Branch))
		checkout = status.Branch
	}
	if status.Dirty && !confmap.GetBool(l.Conf, "allow_unclean_repo") {
		warnings = append(warnings,
			"your repo contains uncommitted changes; they will *not* be available when cloning happens within the job")
	}
	for remote, n := range status.Behinds {
		if n > 0 {
			warnings = append(warnings, fmt.Sprintf("you are %d commits behind %s/%s", n, remote, checkout))
		}
	}
	for remote, n := range status.Aheads {
		if n > 0 {
			warnings = append(warnings, fmt.Sprintf("you are %d commits ahead of %s/%s", n, remote, checkout))
		}
	}
	warnings = append(warnings, status.Notes...)

	if len(warnings) == 0 {
		return nil
	}
	for _, w := range warnings {
		utils.PrintWarning("%s", w)
	}
	if !utils.Confirm("Continue anyway?") {
		return fmt.Errorf("aborted on git warnings")
	}
	return nil
}

// recap prints the submitted job IDs, useful for a later scancel.
func (l *Launcher) recap(results []Result, jobSet []jobs.Job) {
	if len(results) == 0 {
		utils.PrintWarning("No job submitted!")
		return
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.JobID
	}
	utils.PrintSuccess("Submitted %s/%s job(s): %s",
		utils.StyleNumber(len(results)), utils.StyleNumber(len(jobSet)), strings.Join(ids, " "))
}

// writeSummary copies the original job-set file next to the generated
// sbatch files and appends the command line, the submitted job IDs and the
// output file paths as comments.
func (l *Launcher) writeSummary(jobsPath, localOutDir, now string, results []Result, dryRun bool) error {
	original, err := os.ReadFile(jobsPath)
	if err != nil {
		return fmt.Errorf("failed to re-read jobs file: %w", err)
	}

	jobsLine := "No job submitted!"
	if len(results) > 0 {
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.JobID
		}
		jobsLine = "All jobs submitted: " + strings.Join(ids, " ")
	}

	var sb strings.Builder
	sb.Write(original)
	sb.WriteString(fmt.Sprintf("\n# Command run: %s\n", strings.Join(os.Args, " ")))
	sb.WriteString("\n# " + jobsLine + "\n")
	sb.WriteString("\n# Job output files:\n")
	for _, r := range results {
		sb.WriteString("#  - " + r.OutputFile + "\n")
	}

	stem := strings.TrimSuffix(filepath.Base(jobsPath), filepath.Ext(jobsPath))
	summaryPath := filepath.Join(localOutDir, fmt.Sprintf("%s_%s.yaml", stem, now))
	if dryRun {
		return nil
	}
	if err := utils.EnsureDir(localOutDir); err != nil {
		return err
	}
	if err := os.WriteFile(summaryPath, []byte(sb.String()), utils.PermFile); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	utils.PrintMessage("Created summary YAML in %s", utils.StylePath(utils.RelativeToCwd(summaryPath, l.Resolver.Root)))
	return nil
}

// mergeWarnFunc returns the warning sink for configuration merges; silent
// unless verbose mode is on.
func (l *Launcher) mergeWarnFunc(verbose bool) confmap.WarnFunc {
	if !verbose {
		return nil
	}
	return func(path string) {
		utils.PrintWarning("overwriting %s", utils.StyleName(path))
	}
}

// FormatMap renders a Map for display: sorted keys padded to equal width.
func FormatMap(m confmap.Map) []string {
	keys := make([]string, 0, len(m))
	width := 0
	for k := range m {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		value := confmap.Stringify(m[k])
		if value == "" {
			value = `""`
		}
		lines = append(lines, fmt.Sprintf("%-*s %s", width+1, k+":", value))
	}
	return lines
}

// printFramed prints a rendered sbatch script between marker lines,
// indented for readability.
func printFramed(rendered string) {
	frame := strings.Repeat("#", 40)
	fmt.Println("     " + frame + " <sbatch> " + frame)
	for _, line := range strings.Split(rendered, "\n") {
		fmt.Println("     " + line)
	}
	fmt.Println("     " + frame + " </sbatch> " + frame)
}
