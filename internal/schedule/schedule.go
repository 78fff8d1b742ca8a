package schedule

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jgoulah/solarbill/pkg/models"
)

// Type is the billing algorithm a schedule uses
type Type string

const (
	TypeFlat Type = "flat"
	TypeTOU  Type = "tou"
)

// Strategy selects how a month's usage is turned into a cost
type Strategy string

const (
	// StrategyAggregate sums the whole month and then applies the tiers
	StrategyAggregate Strategy = "aggregate"
	// StrategyIncremental bills each hour at the marginal tier reached so far in the month
	StrategyIncremental Strategy = "incremental"
)

// Day types for time-of-use windows
const (
	DaysWeekday = "weekday"
	DaysWeekend = "weekend"
	DaysAll     = "all"
)

// Schedule is a complete rate schedule
type Schedule struct {
	Name     string   `yaml:"name" validate:"required"`
	Type     Type     `yaml:"type" validate:"oneof=flat tou"`
	Strategy Strategy `yaml:"strategy,omitempty" validate:"omitempty,oneof=aggregate incremental"`
	Seasons  []Season `yaml:"seasons" validate:"required,min=1,dive"`
}

// Season holds the baseline, time-of-use windows and tier prices for a set of months
type Season struct {
	Name              string                         `yaml:"name" validate:"required"`
	Months            []time.Month                   `yaml:"months" validate:"required,min=1,dive,min=1,max=12"`
	BaselinePerDayKWh float64                        `yaml:"baseline_per_day_kwh" validate:"gt=0"`
	Windows           []Window                       `yaml:"windows,omitempty" validate:"dive"`
	Tiers             map[models.UsageKind]TierTable `yaml:"tiers" validate:"required,min=1,dive"`
}

// Window assigns a usage kind to hours [HourStart, HourEnd) on the given days
type Window struct {
	Kind      models.UsageKind `yaml:"kind" validate:"oneof=off partial peak"`
	Days      string           `yaml:"days" validate:"oneof=weekday weekend all"`
	HourStart int              `yaml:"hour_start" validate:"min=0,max=23"`
	HourEnd   int              `yaml:"hour_end" validate:"min=1,max=24,gtfield=HourStart"`
}

// TierTable is a price staircase. Boundaries are multiples of the baseline allowance and the
// last price applies to everything above the last boundary.
type TierTable struct {
	Boundaries []float64 `yaml:"boundaries" validate:"dive,gt=0"`
	Prices     []float64 `yaml:"prices" validate:"required,min=1,dive,gte=0"`
}

var validate = validator.New()

// Validate checks the schedule for structural errors
func (s *Schedule) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("schedule %q: %w", s.Name, err)
	}

	seen := make(map[time.Month]string)
	for _, season := range s.Seasons {
		for _, m := range season.Months {
			if other, ok := seen[m]; ok {
				return fmt.Errorf("schedule %q: month %s is in both %s and %s", s.Name, m, other, season.Name)
			}
			seen[m] = season.Name
		}

		for kind, table := range season.Tiers {
			if err := table.validate(); err != nil {
				return fmt.Errorf("schedule %q season %s tier %s: %w", s.Name, season.Name, kind, err)
			}
		}

		switch s.Type {
		case TypeFlat:
			if _, ok := season.Tiers[models.KindTotal]; !ok {
				return fmt.Errorf("schedule %q season %s: flat schedules need a %q tier table", s.Name, season.Name, models.KindTotal)
			}
		case TypeTOU:
			if _, ok := season.Tiers[models.KindOff]; !ok {
				return fmt.Errorf("schedule %q season %s: missing %q tier table", s.Name, season.Name, models.KindOff)
			}
			for _, w := range season.Windows {
				if _, ok := season.Tiers[w.Kind]; !ok {
					return fmt.Errorf("schedule %q season %s: window uses %q but has no tier table for it", s.Name, season.Name, w.Kind)
				}
			}
		}
	}

	for m := time.January; m <= time.December; m++ {
		if _, ok := seen[m]; !ok {
			return fmt.Errorf("schedule %q: month %s is not in any season", s.Name, m)
		}
	}
	return nil
}

func (t TierTable) validate() error {
	if len(t.Prices) != len(t.Boundaries)+1 {
		return fmt.Errorf("need %d prices for %d boundaries, got %d", len(t.Boundaries)+1, len(t.Boundaries), len(t.Prices))
	}
	for i := 1; i < len(t.Boundaries); i++ {
		if t.Boundaries[i] <= t.Boundaries[i-1] {
			return fmt.Errorf("boundaries must be ascending: %v", t.Boundaries)
		}
	}
	return nil
}

// GetStrategy returns the billing strategy, defaulting to aggregate
func (s *Schedule) GetStrategy() Strategy {
	if s.Strategy == "" {
		return StrategyAggregate
	}
	return s.Strategy
}

// SeasonFor returns the season that covers month m
func (s *Schedule) SeasonFor(m time.Month) (*Season, error) {
	for i := range s.Seasons {
		for _, sm := range s.Seasons[i].Months {
			if sm == m {
				return &s.Seasons[i], nil
			}
		}
	}
	return nil, fmt.Errorf("schedule %q has no season for %s", s.Name, m)
}

// Classify returns the usage kind of the hour starting at t. The first matching window wins
// and hours outside every window are off.
func (s *Season) Classify(t time.Time) models.UsageKind {
	for _, w := range s.Windows {
		if w.Contains(t) {
			return w.Kind
		}
	}
	return models.KindOff
}

// Contains checks if the hour starting at t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if h := t.Hour(); h < w.HourStart || h >= w.HourEnd {
		return false
	}
	switch w.Days {
	case DaysWeekday:
		return isWeekday(t)
	case DaysWeekend:
		return !isWeekday(t)
	default:
		return true
	}
}

func isWeekday(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}
