package main

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jgoulah/solarbill/internal/config"
	"github.com/jgoulah/solarbill/internal/pipeline"
)

var listInputs inputFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List daily usage from the configured source",
	Long:  `Displays daily kWh totals from the interval file or usage database, in the meter's time zone.`,
	RunE:  runList,
}

func init() {
	listInputs.register(listCmd, false)
	rootCmd.AddCommand(listCmd)
}

type dailyUsage struct {
	kwh   float64
	hours int
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts, err := listInputs.options(cmd, cfg)
	if err != nil {
		return err
	}

	usage, err := pipeline.LoadUsage(cmd.Context(), opts)
	if err != nil {
		return err
	}

	days := make(map[string]*dailyUsage)
	for _, reading := range usage {
		start := reading.Start.In(opts.Location)
		if (!opts.Since.IsZero() && start.Before(opts.Since)) || (!opts.Until.IsZero() && !start.Before(opts.Until)) {
			continue
		}
		day := start.Format(config.DateLayout)
		if days[day] == nil {
			days[day] = &dailyUsage{}
		}
		days[day].kwh += reading.UsageWh / 1000
		days[day].hours++
	}

	out := cmd.OutOrStdout()
	if len(days) == 0 {
		fmt.Fprintln(out, "No usage data found")
		return nil
	}

	keys := lo.Keys(days)
	slices.Sort(keys)

	fmt.Fprintln(out, "----------------------------------------")
	fmt.Fprintf(out, "%-12s  %10s  %5s\n", "Date", "kWh", "Hours")
	fmt.Fprintln(out, "----------------------------------------")

	var total float64
	for _, day := range keys {
		d := days[day]
		fmt.Fprintf(out, "%-12s  %10.2f  %5d\n", day, d.kwh, d.hours)
		total += d.kwh
	}

	fmt.Fprintln(out, "----------------------------------------")
	fmt.Fprintf(out, "Total: %s kWh (%s days)\n", humanize.FormatFloat("#,###.##", total), humanize.Comma(int64(len(keys))))
	return nil
}
