package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// initTestViper points every config search path at a scratch directory so
// tests never pick up a real launch.conf.yaml, then runs InitViper.
func initTestViper(t *testing.T, confYaml string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := t.TempDir()
	templatesDir := filepath.Join(root, "config", "templates")
	if err := os.MkdirAll(templatesDir, 0o775); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	t.Setenv("HOME", filepath.Join(root, "home"))

	Global = Config{
		Root:         root,
		ConfigDir:    filepath.Join(root, "config"),
		TemplatesDir: templatesDir,
		JobsDir:      filepath.Join(root, "config", "jobs"),
	}

	if confYaml != "" {
		path := filepath.Join(templatesDir, ConfigFilename+"."+ConfigType)
		if err := os.WriteFile(path, []byte(confYaml), 0o664); err != nil {
			t.Fatal(err)
		}
	}

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper returned error: %v", err)
	}
}

func TestDefaultsBuiltIns(t *testing.T) {
	initTestViper(t, "")

	d := Defaults()
	cases := map[string]interface{}{
		"job_name":       "slaunch",
		"mem":            "32G",
		"cpus_per_task":  2,
		"command":        "python",
		"script_path":    "main.py",
		"clone_as_https": true,
		"dry_run":        false,
	}
	for key, want := range cases {
		if got, ok := d[key]; !ok || got != want {
			t.Errorf("Defaults()[%q] = %v (present %v); want %v", key, got, ok, want)
		}
	}
}

func TestConfigFileOverridesBuiltIns(t *testing.T) {
	initTestViper(t, "job_name: crystals\nmem: 48G\n")

	d := Defaults()
	if d["job_name"] != "crystals" {
		t.Errorf("job_name = %v; want config file value", d["job_name"])
	}
	if d["mem"] != "48G" {
		t.Errorf("mem = %v; want config file value", d["mem"])
	}
	// keys absent from the file keep their built-in value
	if d["command"] != "python" {
		t.Errorf("command = %v; want built-in default", d["command"])
	}
}

func TestEnvOverridesFileAndBuiltIns(t *testing.T) {
	t.Setenv("SLAUNCH_MEM", "64G")
	t.Setenv("SLAUNCH_PARTITION", "main")
	initTestViper(t, "mem: 48G\n")

	d := Defaults()
	if d["mem"] != "64G" {
		t.Errorf("mem = %v; env should beat the config file", d["mem"])
	}
	if d["partition"] != "main" {
		t.Errorf("partition = %v; env should beat the built-in default", d["partition"])
	}
}
