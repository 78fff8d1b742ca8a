package schedule

import (
	"time"

	"github.com/jgoulah/solarbill/pkg/models"
)

var (
	winterMonths = []time.Month{time.November, time.December, time.January, time.February, time.March, time.April}
	summerMonths = []time.Month{time.May, time.June, time.July, time.August, time.September, time.October}

	// tier bounds as multiples of the baseline allowance: 100%, 130%, 200%, unbounded
	baselineMultiples = []float64{1.0, 1.3, 2.0}
)

// Defaults returns the built-in E1 (flat tiered) and E6 (time-of-use) residential schedules
func Defaults() []Schedule {
	return []Schedule{E1(), E6()}
}

// E1 returns the flat tiered residential schedule
func E1() Schedule {
	total := TierTable{
		Boundaries: baselineMultiples,
		Prices:     []float64{0.13627, 0.15491, 0.31955, 0.35955},
	}
	return Schedule{
		Name:     "E1",
		Type:     TypeFlat,
		Strategy: StrategyAggregate,
		Seasons: []Season{
			{
				Name:              "summer",
				Months:            summerMonths,
				BaselinePerDayKWh: 11.0,
				Tiers:             map[models.UsageKind]TierTable{models.KindTotal: total},
			},
			{
				Name:              "winter",
				Months:            winterMonths,
				BaselinePerDayKWh: 11.0,
				Tiers:             map[models.UsageKind]TierTable{models.KindTotal: total},
			},
		},
	}
}

// E6 returns the time-of-use residential schedule
func E6() Schedule {
	return Schedule{
		Name:     "E6",
		Type:     TypeTOU,
		Strategy: StrategyAggregate,
		Seasons: []Season{
			{
				Name:              "summer",
				Months:            summerMonths,
				BaselinePerDayKWh: 10.9,
				Windows: []Window{
					{Kind: models.KindPeak, Days: DaysWeekday, HourStart: 13, HourEnd: 19},
					{Kind: models.KindPartial, Days: DaysWeekday, HourStart: 10, HourEnd: 13},
					{Kind: models.KindPartial, Days: DaysWeekend, HourStart: 17, HourEnd: 20},
				},
				Tiers: map[models.UsageKind]TierTable{
					models.KindOff: {
						Boundaries: baselineMultiples,
						Prices:     []float64{0.11456, 0.13778, 0.22518, 0.28518},
					},
					models.KindPartial: {
						Boundaries: baselineMultiples,
						Prices:     []float64{0.19134, 0.21455, 0.30196, 0.36196},
					},
					models.KindPeak: {
						Boundaries: baselineMultiples,
						Prices:     []float64{0.30661, 0.32982, 0.41723, 0.47723},
					},
				},
			},
			{
				Name:              "winter",
				Months:            winterMonths,
				BaselinePerDayKWh: 10.1,
				Windows: []Window{
					{Kind: models.KindPartial, Days: DaysWeekday, HourStart: 17, HourEnd: 20},
				},
				Tiers: map[models.UsageKind]TierTable{
					models.KindOff: {
						Boundaries: baselineMultiples,
						Prices:     []float64{0.11890, 0.14211, 0.22952, 0.28952},
					},
					models.KindPartial: {
						Boundaries: baselineMultiples,
						Prices:     []float64{0.13573, 0.15894, 0.24635, 0.30635},
					},
				},
			},
		},
	}
}
