package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/slurmkit/slaunch/internal/config"
	"github.com/slurmkit/slaunch/internal/confmap"
	"github.com/slurmkit/slaunch/internal/launcher"
	"github.com/slurmkit/slaunch/internal/scheduler"
	"github.com/slurmkit/slaunch/internal/utils"
)

var (
	debugMode bool
	quietMode bool
)

var rootCmd = &cobra.Command{
	Use:           "slaunch [flags] [-- script args...]",
	Short:         "slaunch: layer YAML job sets over launch defaults and submit them to SLURM.",
	Version:       config.VERSION,
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		exe, err := os.Executable()
		if err != nil {
			utils.PrintError("Failed to determine executable path: %v", err)
			os.Exit(1)
		}

		// Step 1: Locate the tool root and its config/ tree
		config.LoadDefaults(exe)

		// Step 2: Initialize Viper (defaults file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintDebug("Error reading config file: %v", err)
		}

		// Step 3: Apply command-line flags (highest priority)
		if quietMode {
			utils.QuietMode = true
		}
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("slaunch Version: %s", utils.StyleInfo(config.VERSION))
			utils.PrintDebug("Executable: %s", exe)
			utils.PrintDebug("Root: %s", config.Global.Root)
			utils.PrintDebug("Templates Directory: %s", config.Global.TemplatesDir)
			utils.PrintDebug("Jobs Directory: %s", config.Global.JobsDir)
		}
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.Defaults()
		cli := collectFlags(cmd)

		// Flags override the layered defaults at the top level too, so
		// --dry-run and friends are visible before any job is merged.
		conf = confmap.DeepMerge(conf, cli, nil)

		res := confmap.Resolver{Root: config.Global.Root}

		scriptArgs := ""
		if len(args) > 0 {
			scriptArgs = shellquote.Join(args...)
		}

		var submitter launcher.Submitter
		if slurm, err := scheduler.NewSlurm(); err == nil {
			if !slurm.IsAvailable() {
				utils.PrintWarning("%v; nested submissions are usually a mistake", scheduler.ErrInsideJob)
			}
			if debugMode {
				utils.PrintDebug("sbatch binary: %s", utils.StyleCommand(slurm.Binary()))
				if v, err := slurm.Version(); err == nil {
					utils.PrintDebug("SLURM version: %s", v)
				}
			}
			submitter = slurm
		} else {
			utils.PrintDebug("scheduler not available: %v", err)
			if !confmap.GetBool(conf, "dry_run") {
				utils.PrintHint("no sbatch on PATH; use --dry-run to render scripts without submitting")
			}
		}

		l := &launcher.Launcher{
			Conf:          conf,
			CLIArgs:       cli,
			CLIScriptArgs: scriptArgs,
			Resolver:      res,
			Submitter:     submitter,
		}
		_, err := l.Run()
		return err
	},
}

// collectFlags gathers only the flags the user actually set, keyed by the
// snake_case configuration name. Unset flags must not shadow job-set values,
// hence Visit instead of VisitAll.
func collectFlags(cmd *cobra.Command) confmap.Map {
	cli := confmap.Map{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(f.Name)
			cli[key] = v
		case "int":
			v, _ := cmd.Flags().GetInt(f.Name)
			cli[key] = v
		default:
			v, _ := cmd.Flags().GetString(f.Name)
			cli[key] = v
		}
	})
	delete(cli, "debug")
	delete(cli, "quiet")
	return cli
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra's automatic error printing is silenced. For submission
		// errors print the captured sbatch output (trimmed), then the
		// error itself.
		var se *scheduler.SubmissionError
		if errors.As(err, &se) {
			if out := strings.TrimSpace(se.Output); out != "" {
				fmt.Fprintln(os.Stderr, out)
			}
		}
		utils.PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress informational output (errors and warnings still shown)")

	f := rootCmd.Flags()
	f.String("job-name", "", "SLURM job name (not the script's)")
	f.String("outdir", "", "Where to write the slurm .out files")
	f.Int("cpus-per-task", 0, "CPUs per task")
	f.String("mem", "", "Job memory, e.g. 32G")
	f.String("gres", "", "Generic resources, e.g. gpu:1")
	f.String("partition", "", "SLURM partition")
	f.String("time", "", "Wall time, e.g. 1-00:00:00")
	f.String("modules", "", "Modules to load, space-separated")
	f.String("conda-env", "", "Conda environment to activate")
	f.String("venv", "", "Path to a virtualenv to activate")
	f.String("template", "", "Path to the sbatch template file")
	f.String("code-dir", "", "Directory to run the command from; $SLURM_TMPDIR clones the repo in the job")
	f.String("git-checkout", "", "Branch, tag or commit to checkout when cloning in the job")
	f.String("jobs", "", "Job-set file: a path or a name under config/jobs/")
	f.BoolP("dry-run", "n", false, "Render and print the sbatch files without writing or submitting anything")
	f.Bool("verbose", false, "Print the sbatch files and merge warnings")
	f.BoolP("force", "f", false, "Skip all confirmations and git checks")
	f.String("command", "", "Command to run, e.g. python")
	f.String("script-path", "", "Script handed to the command, e.g. main.py")
	f.String("sbatch-files-root", "", "Where to write the generated sbatch files")
	f.Bool("allow-unclean-repo", false, "Do not warn about uncommitted changes")
	f.Bool("allow-no-checkout", false, "Skip git state checks entirely")
	f.Bool("clone-as-https", false, "Rewrite the ssh origin URL to https when cloning in the job")
}
