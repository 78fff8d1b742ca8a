package billing

import (
	"fmt"

	"github.com/jgoulah/solarbill/internal/schedule"
	"github.com/jgoulah/solarbill/pkg/models"
)

// RateEngine computes a month's bill under one rate schedule
type RateEngine interface {
	// Name returns the schedule name used to label report columns.
	Name() string

	// MonthlyCost returns the bill for raw usage and for solar-adjusted usage.
	MonthlyCost(bucket MonthlyBucket) (models.Cost, error)
}

// New returns the engine for s
func New(s schedule.Schedule) (RateEngine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch s.Type {
	case schedule.TypeFlat:
		return &FlatEngine{schedule: s}, nil
	case schedule.TypeTOU:
		return &TOUEngine{schedule: s}, nil
	default:
		return nil, fmt.Errorf("unsupported schedule type: %s", s.Type)
	}
}

// usageOf selects raw or solar-adjusted usage from a record
type usageOf func(r models.HourlyRecord) float64

func rawUsage(r models.HourlyRecord) float64   { return r.UsageWh }
func solarUsage(r models.HourlyRecord) float64 { return r.SolarUsageWh }

// bothCosts runs fn for raw and solar-adjusted usage
func bothCosts(fn func(usageOf) (float64, error)) (models.Cost, error) {
	noSolar, err := fn(rawUsage)
	if err != nil {
		return models.Cost{}, err
	}
	solar, err := fn(solarUsage)
	if err != nil {
		return models.Cost{}, err
	}
	return models.Cost{NoSolar: noSolar, Solar: solar}, nil
}
