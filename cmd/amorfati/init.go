package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold the config and journal directories",
	Long: `Create the config and journal directories plus a sample event type
definition to start from.

This command is idempotent - safe to run multiple times.
Existing files are never overwritten.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const sampleDefinition = `# Event type "run". One definition per file, named <type>.yaml.
# unit is required; value defaults to 1 and calc to linear.
unit: time
value: 1.0
calc: linear
meta:
  intensity:
    prompt: "Intensity 1-10"
    weight: 1.2
  weather:
    weight: 0.1
`

func runInit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	for _, dir := range []string{a.cfg.ConfigDir, a.cfg.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		fmt.Fprintf(out, "dir %s\n", dir)
	}

	sample := filepath.Join(a.cfg.ConfigDir, "run.yaml")
	switch _, err := os.Stat(sample); {
	case err == nil:
		fmt.Fprintf(out, "kept %s\n", sample)
	case os.IsNotExist(err):
		if err := os.WriteFile(sample, []byte(sampleDefinition), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", sample)
	default:
		return err
	}
	return nil
}
