package billing

import (
	"github.com/jgoulah/solarbill/internal/schedule"
	"github.com/jgoulah/solarbill/pkg/models"
)

// FlatEngine bills cumulative monthly usage on a single tiered staircase (E1 style)
type FlatEngine struct {
	schedule schedule.Schedule
}

func (e *FlatEngine) Name() string {
	return e.schedule.Name
}

func (e *FlatEngine) MonthlyCost(bucket MonthlyBucket) (models.Cost, error) {
	season, err := e.schedule.SeasonFor(bucket.Month.Month())
	if err != nil {
		return models.Cost{}, err
	}
	table := season.Tiers[models.KindTotal]

	return bothCosts(func(usage usageOf) (float64, error) {
		if e.schedule.GetStrategy() == schedule.StrategyIncremental {
			return e.incremental(bucket, season.BaselinePerDayKWh, table, usage), nil
		}
		var total float64
		for _, r := range bucket.Records {
			total += usage(r)
		}
		return e.TierCost(total, bucket.DaysObserved, season.BaselinePerDayKWh, table), nil
	})
}

// TierCost prices a month's usage given the number of days observed. Net export bills as 0.
func (e *FlatEngine) TierCost(usageWh float64, days int, baselinePerDayKWh float64, table schedule.TierTable) float64 {
	if usageWh <= 0 {
		return 0
	}
	return ApplyTier(usageWh, baselinePerDayKWh*float64(days), table)
}

// incremental bills hour by hour at the marginal tier reached by earlier hours of the month.
// The allowance grows as new days appear and exported hours bill 0 without lowering the total.
func (e *FlatEngine) incremental(bucket MonthlyBucket, baselinePerDayKWh float64, table schedule.TierTable, usage usageOf) float64 {
	days := make(map[int]struct{})
	var cost, cumulative float64
	for _, r := range bucket.Records {
		days[r.Timestamp.Day()] = struct{}{}
		wh := usage(r)
		if wh <= 0 {
			continue
		}
		baseline := baselinePerDayKWh * float64(len(days))
		cost += marginalCost(cumulative, wh, baseline, table)
		cumulative += wh
	}
	return cost
}
