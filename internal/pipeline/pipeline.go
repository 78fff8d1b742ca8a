package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jgoulah/solarbill/internal/billing"
	"github.com/jgoulah/solarbill/internal/database"
	"github.com/jgoulah/solarbill/internal/log"
	"github.com/jgoulah/solarbill/internal/schedule"
	"github.com/jgoulah/solarbill/internal/source"
	"github.com/jgoulah/solarbill/pkg/models"
)

// Array is one solar array's production model
type Array struct {
	File   string // PVWatts CSV or .xlsx; empty means no array
	Derate float64
}

// Options configures a billing run
type Options struct {
	IntervalFile string  // ESPI XML; wins over Database
	Database     string  // gridscraper SQLite database
	Service      string  // service to read from Database
	Rate         float64 // $/kWh used as the actual cost of Database rows

	South Array
	West  Array

	Since time.Time // inclusive, zero for open
	Until time.Time // exclusive, zero for open

	Location  *time.Location
	Schedules []schedule.Schedule
}

// Result is everything a report needs
type Result struct {
	Records   []models.HourlyRecord   // merged hours in range, with solar applied
	Months    []models.MonthlySummary // one per calendar month, with a cost per schedule
	Schedules []string                // schedule names in column order
}

// Run reads the inputs and bills every month under every schedule
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := log.Ctx(ctx)
	if opts.Location == nil {
		opts.Location = time.Local
	}

	engines, err := Engines(opts.Schedules)
	if err != nil {
		return nil, err
	}

	usage, err := LoadUsage(ctx, opts)
	if err != nil {
		return nil, err
	}
	south, err := loadArray(ctx, "south", opts.South)
	if err != nil {
		return nil, err
	}
	west, err := loadArray(ctx, "west", opts.West)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := billing.Merge(usage, south, west, opts.Location)
	records = billing.FilterRange(records, opts.Since, opts.Until)
	records = billing.ApplySolar(records)
	logger.Info("merged usage with production", "hours", humanize.Comma(int64(len(records))))

	result := &Result{Records: records}
	for _, e := range engines {
		result.Schedules = append(result.Schedules, e.Name())
	}

	for _, bucket := range billing.GroupByMonth(records) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary := bucket.Summarize()
		for _, e := range engines {
			cost, err := e.MonthlyCost(bucket)
			if err != nil {
				return nil, fmt.Errorf("billing %s under %s: %w", bucket.Month.Format("2006-01"), e.Name(), err)
			}
			summary.Costs[e.Name()] = cost
		}
		logger.Debug("billed month", "month", bucket.Month.Format("2006-01"), "days", bucket.DaysObserved, "hours", len(bucket.Records))
		result.Months = append(result.Months, summary)
	}
	return result, nil
}

// Engines validates schedules and returns an engine for each. Names must be unique since
// they label report columns.
func Engines(schedules []schedule.Schedule) ([]billing.RateEngine, error) {
	if len(schedules) == 0 {
		return nil, fmt.Errorf("no rate schedules configured")
	}
	seen := make(map[string]bool)
	engines := make([]billing.RateEngine, 0, len(schedules))
	for _, s := range schedules {
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate schedule name %q", s.Name)
		}
		seen[s.Name] = true

		e, err := billing.New(s)
		if err != nil {
			return nil, fmt.Errorf("loading schedule: %w", err)
		}
		engines = append(engines, e)
	}
	return engines, nil
}

// LoadUsage reads hourly usage from the interval file, or from the database if no file is set
func LoadUsage(ctx context.Context, opts Options) (models.UsageMap, error) {
	switch {
	case opts.IntervalFile != "":
		return source.LoadIntervals(ctx, opts.IntervalFile)
	case opts.Database != "":
		if opts.Service == "" {
			return nil, fmt.Errorf("a service is required to read usage from %s", opts.Database)
		}
		db, err := database.Open(opts.Database)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		loc := opts.Location
		if loc == nil {
			loc = time.Local
		}
		usage, err := db.ListHourlyUsage(opts.Service, loc, opts.Rate)
		if err != nil {
			return nil, fmt.Errorf("reading %s usage: %w", opts.Service, err)
		}
		log.Ctx(ctx).Info("loaded usage from database", "path", opts.Database, "service", opts.Service, "hours", humanize.Comma(int64(len(usage))))
		return usage, nil
	default:
		return nil, fmt.Errorf("no usage source configured: set an interval file or a database")
	}
}

func loadArray(ctx context.Context, name string, a Array) (models.ProductionMap, error) {
	if a.File == "" {
		log.Ctx(ctx).Warn("no production model, array produces nothing", "array", name)
		return models.ProductionMap{}, nil
	}
	production, err := source.LoadProduction(ctx, a.File, a.Derate)
	if err != nil {
		return nil, fmt.Errorf("loading %s array: %w", name, err)
	}
	return production, nil
}
