package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/slurmkit/slaunch/internal/confmap"
)

// ConfigFilename is the name of the launch defaults file (without extension)
const ConfigFilename = "launch.conf"

// ConfigType is the type of config file
const ConfigType = "yaml"

// InitViper initializes Viper with proper search paths and defaults.
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra, layered later)
// 2. Environment variables (SLAUNCH_*)
// 3. Project defaults file ($root/config/templates/launch.conf.yaml)
// 4. User config file (~/.config/slaunch/launch.conf.yaml)
// 5. Built-in defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// Project defaults travel with the repository (highest-priority file)
	viper.AddConfigPath(Global.TemplatesDir)

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, "slaunch"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".slaunch"))
	}

	viper.SetEnvPrefix("SLAUNCH")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No launch.conf.yaml anywhere; built-in defaults apply
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setDefaults sets built-in values for every launch key.
func setDefaults() {
	viper.SetDefault("job_name", "slaunch")
	viper.SetDefault("outdir", "$SCRATCH/$repoName/logs/slurm")
	viper.SetDefault("cpus_per_task", 2)
	viper.SetDefault("mem", "32G")
	viper.SetDefault("gres", "gpu:1")
	viper.SetDefault("partition", "")
	viper.SetDefault("time", "")
	viper.SetDefault("modules", "")
	viper.SetDefault("conda_env", "")
	viper.SetDefault("venv", "")
	viper.SetDefault("template", "$root/config/templates/main.sbatch")
	viper.SetDefault("code_dir", "$root")
	viper.SetDefault("git_checkout", "")
	viper.SetDefault("jobs", "")
	viper.SetDefault("dry_run", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("force", false)
	viper.SetDefault("command", "python")
	viper.SetDefault("script_path", "main.py")
	viper.SetDefault("sbatch_files_root", "$root/data/sbatch")
	viper.SetDefault("allow_unclean_repo", false)
	viper.SetDefault("allow_no_checkout", false)
	viper.SetDefault("clone_as_https", true)
}

// Defaults snapshots the layered launch settings (built-ins, config file,
// environment) into a Map, the base layer of the per-job merge pipeline.
func Defaults() confmap.Map {
	settings := viper.AllSettings()
	return confmap.Clone(settings)
}
