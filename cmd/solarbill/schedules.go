package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jgoulah/solarbill/internal/pipeline"
)

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Print the rate schedules in effect",
	Long:  `Validates and prints the configured rate schedules as YAML, or the built-in E1 and E6 when none are configured.`,
	RunE:  runSchedules,
}

func init() {
	rootCmd.AddCommand(schedulesCmd)
}

func runSchedules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	schedules := cfg.GetSchedules()
	if _, err := pipeline.Engines(schedules); err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"schedules": schedules}); err != nil {
		return fmt.Errorf("encoding schedules: %w", err)
	}
	return enc.Close()
}
