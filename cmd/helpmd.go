package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slurmkit/slaunch/internal/config"
	"github.com/slurmkit/slaunch/internal/launcher"
)

var helpMdCmd = &cobra.Command{
	Use:   "help-md",
	Short: "Print the extended markdown help (job-set format, templates, examples)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(config.Global.TemplatesDir, "help.md")
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("extended help not found at %s: %w", path, err)
		}
		help := strings.ReplaceAll(string(data), "{yaml_example}", yamlExample())

		fmt.Println("# 🤝 slaunch help")
		fmt.Println()
		fmt.Println("## 💻 Command-line help")
		fmt.Println()
		fmt.Println("In the following, `$root` refers to the root of the current repository.")
		fmt.Println()
		fmt.Println("```sh")
		fmt.Print(cmd.Root().UsageString())
		fmt.Println("```")
		fmt.Println()
		fmt.Println("## 🎛️ Default values")
		fmt.Println()
		fmt.Println("```yaml")
		for _, line := range launcher.FormatMap(config.Defaults()) {
			fmt.Println(line)
		}
		fmt.Println("```")
		fmt.Print(help)
		return nil
	},
}

// yamlExample returns the example job-set shipped with the tool, trimmed to
// its yaml content (everything from "shared:" onward).
func yamlExample() string {
	path := filepath.Join(config.Global.JobsDir, "example-jobs.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("😅 %s not found", path)
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "shared:") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return string(data)
}

func init() {
	rootCmd.AddCommand(helpMdCmd)
}
