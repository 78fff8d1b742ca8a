package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/solarbill/internal/pipeline"
	"github.com/jgoulah/solarbill/internal/report"
)

var (
	reportInputs inputFlags
	reportMode   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print monthly bills with and without solar",
	Long: `Merges hourly usage with modeled solar production and prints one row per month (or per
hour with --mode hourly) with the cost under each rate schedule, followed by a total row.`,
	RunE: runReport,
}

func init() {
	reportInputs.register(reportCmd, true)
	reportCmd.Flags().StringVar(&reportMode, "mode", "", "rows per month or per hour (monthly or hourly)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "output format (csv or table)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if reportMode != "" {
		cfg.Report.Mode = reportMode
	}
	if reportFormat != "" {
		cfg.Report.Format = reportFormat
	}

	opts, err := reportInputs.options(cmd, cfg)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	var table *report.Table
	switch cfg.GetMode() {
	case report.ModeMonthly:
		table = report.MonthlyTable(result.Months, result.Schedules)
	case report.ModeHourly:
		table = report.HourlyTable(result.Records)
	default:
		return fmt.Errorf("unknown report mode %q (want %s or %s)", cfg.GetMode(), report.ModeMonthly, report.ModeHourly)
	}

	return report.Write(cmd.OutOrStdout(), table, cfg.GetFormat())
}
