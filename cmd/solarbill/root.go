package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/solarbill/internal/config"
	"github.com/jgoulah/solarbill/internal/log"
	"github.com/jgoulah/solarbill/internal/pipeline"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "solarbill",
	Short: "Estimate electric bills with and without rooftop solar",
	Long: `solarbill replays a household's metered hourly usage against modeled solar production
and computes what each monthly bill would have been under flat tiered and time-of-use rate
schedules, with and without the solar offset.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetDefaultLogLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// inputFlags are the pipeline inputs shared by report, publish and list
type inputFlags struct {
	usage       string
	usageDB     string
	service     string
	south       string
	west        string
	southDerate float64
	westDerate  float64
	since       string
	until       string
	location    string
}

func (f *inputFlags) register(cmd *cobra.Command, withSolar bool) {
	cmd.Flags().StringVar(&f.usage, "usage", "", "ESPI interval data file (overrides usage.interval_file)")
	cmd.Flags().StringVar(&f.usageDB, "usage-db", "", "gridscraper database to read usage from (overrides usage.database)")
	cmd.Flags().StringVar(&f.service, "service", "", "service to read from the database (overrides usage.service)")
	cmd.Flags().StringVar(&f.since, "since", "", "first day to bill (YYYY-MM-DD or relative like 30d)")
	cmd.Flags().StringVar(&f.until, "until", "", "day to stop billing, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.location, "location", "", "time zone of the meter (default America/Los_Angeles)")
	if withSolar {
		cmd.Flags().StringVar(&f.south, "south", "", "PVWatts hourly export for the south array (.csv or .xlsx)")
		cmd.Flags().StringVar(&f.west, "west", "", "PVWatts hourly export for the west array (.csv or .xlsx)")
		cmd.Flags().Float64Var(&f.southDerate, "south-derate", 1.0, "scale factor for south array output")
		cmd.Flags().Float64Var(&f.westDerate, "west-derate", 1.0, "scale factor for west array output")
	}
}

// options merges the config with any flags set on cmd
func (f *inputFlags) options(cmd *cobra.Command, cfg *config.Config) (pipeline.Options, error) {
	flags := cmd.Flags()
	if flags.Changed("location") {
		cfg.Location = f.location
	}
	loc, err := cfg.GetLocation()
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		IntervalFile: cfg.Usage.IntervalFile,
		Database:     cfg.Usage.Database,
		Service:      cfg.Usage.Service,
		South:        pipeline.Array{File: cfg.Solar.South.File, Derate: cfg.Solar.South.GetDerate()},
		West:         pipeline.Array{File: cfg.Solar.West.File, Derate: cfg.Solar.West.GetDerate()},
		Location:     loc,
		Schedules:    cfg.GetSchedules(),
	}
	// an explicit database on the command line beats an interval file from the config
	if flags.Changed("usage-db") {
		opts.Database = f.usageDB
		opts.IntervalFile = ""
	}
	if flags.Changed("usage") {
		opts.IntervalFile = f.usage
	}
	if flags.Changed("service") {
		opts.Service = f.service
	}
	opts.Rate = cfg.GetRate(opts.Service)

	if flags.Lookup("south") != nil {
		if flags.Changed("south") {
			opts.South.File = f.south
		}
		if flags.Changed("west") {
			opts.West.File = f.west
		}
		if flags.Changed("south-derate") {
			opts.South.Derate = f.southDerate
		}
		if flags.Changed("west-derate") {
			opts.West.Derate = f.westDerate
		}
	}

	if opts.Since, err = cfg.GetSince(loc); err != nil {
		return pipeline.Options{}, err
	}
	if opts.Until, err = cfg.GetUntil(loc); err != nil {
		return pipeline.Options{}, err
	}
	if f.since != "" {
		if opts.Since, err = parseDate(f.since, loc); err != nil {
			return pipeline.Options{}, fmt.Errorf("parsing --since date: %w", err)
		}
	}
	if f.until != "" {
		if opts.Until, err = parseDate(f.until, loc); err != nil {
			return pipeline.Options{}, fmt.Errorf("parsing --until date: %w", err)
		}
	}
	if !opts.Since.IsZero() && !opts.Until.IsZero() && !opts.Since.Before(opts.Until) {
		return pipeline.Options{}, fmt.Errorf("since (%s) must be before until (%s)",
			opts.Since.Format(config.DateLayout), opts.Until.Format(config.DateLayout))
	}
	return opts, nil
}

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d")
func parseDate(dateStr string, loc *time.Location) (time.Time, error) {
	// Try absolute date format first
	t, err := time.ParseInLocation(config.DateLayout, dateStr, loc)
	if err == nil {
		return t, nil
	}

	// Try relative format (e.g., "7d" for 7 days ago), snapped to midnight
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(dateStr[:len(dateStr)-1], "%d", &days); err == nil {
			now := time.Now().In(loc)
			return time.Date(now.Year(), now.Month(), now.Day()-days, 0, 0, 0, 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}
