package billing

import (
	"fmt"
	"math"

	"github.com/jgoulah/solarbill/internal/schedule"
	"github.com/jgoulah/solarbill/pkg/models"
)

// kindSumTolerance is how far off+partial+peak may drift from total, in watt-hours
const kindSumTolerance = 1e-2

var touKinds = []models.UsageKind{models.KindOff, models.KindPartial, models.KindPeak}

// TOUEngine classifies each hour as off, partial or peak and bills each kind on its own
// staircase, splitting the monthly baseline across kinds by their share of usage (E6 style).
type TOUEngine struct {
	schedule schedule.Schedule
}

func (e *TOUEngine) Name() string {
	return e.schedule.Name
}

func (e *TOUEngine) MonthlyCost(bucket MonthlyBucket) (models.Cost, error) {
	season, err := e.schedule.SeasonFor(bucket.Month.Month())
	if err != nil {
		return models.Cost{}, err
	}

	return bothCosts(func(usage usageOf) (float64, error) {
		if e.schedule.GetStrategy() == schedule.StrategyIncremental {
			return e.incremental(bucket, season, usage)
		}
		sums, err := e.Aggregate(bucket, season, usage)
		if err != nil {
			return 0, err
		}
		return e.TierCost(sums, bucket.DaysObserved, season)
	})
}

// Aggregate sums the bucket's usage per kind. The kind sums are checked against the total.
func (e *TOUEngine) Aggregate(bucket MonthlyBucket, season *schedule.Season, usage usageOf) (models.KindUsage, error) {
	var sums models.KindUsage
	for _, r := range bucket.Records {
		sums.Add(season.Classify(r.Timestamp), usage(r))
	}
	if diff := sums.Total - (sums.Off + sums.Partial + sums.Peak); math.Abs(diff) >= kindSumTolerance {
		return sums, fmt.Errorf("usage kinds for %s don't add up to total: off=%f partial=%f peak=%f total=%f",
			bucket.Month.Format("2006-01"), sums.Off, sums.Partial, sums.Peak, sums.Total)
	}
	return sums, nil
}

// TierCost bills per-kind monthly sums. Negative kind sums are clamped to 0 before the
// baseline is apportioned, so an exporting kind neither earns a credit nor shrinks another
// kind's allowance. A month with no positive usage costs 0.
func (e *TOUEngine) TierCost(sums models.KindUsage, days int, season *schedule.Season) (float64, error) {
	var clamped models.KindUsage
	for _, kind := range touKinds {
		clamped.Add(kind, math.Max(sums.Get(kind), 0))
	}
	if clamped.Total <= 0 {
		return 0, nil
	}

	baseline := season.BaselinePerDayKWh * float64(days)
	var cost float64
	for _, kind := range touKinds {
		wh := clamped.Get(kind)
		if wh <= 0 {
			// summer-only peak never shows up in winter
			continue
		}
		table, ok := season.Tiers[kind]
		if !ok {
			return 0, fmt.Errorf("season %s has %s usage but no tier table for it", season.Name, kind)
		}
		cost += ApplyTier(wh, baseline*(wh/clamped.Total), table)
	}
	return cost, nil
}

// incremental bills each hour at the marginal tier of its kind. The kind's allowance is the
// month-to-date baseline scaled by the kind's month-to-date share of usage.
func (e *TOUEngine) incremental(bucket MonthlyBucket, season *schedule.Season, usage usageOf) (float64, error) {
	days := make(map[int]struct{})
	var cumulative models.KindUsage
	var cost float64
	for _, r := range bucket.Records {
		days[r.Timestamp.Day()] = struct{}{}
		wh := usage(r)
		if wh <= 0 {
			continue
		}
		kind := season.Classify(r.Timestamp)
		table, ok := season.Tiers[kind]
		if !ok {
			return 0, fmt.Errorf("season %s has %s usage but no tier table for it", season.Name, kind)
		}

		prior := cumulative.Get(kind)
		cumulative.Add(kind, wh)
		share := cumulative.Get(kind) / cumulative.Total
		baseline := season.BaselinePerDayKWh * float64(len(days)) * share
		cost += marginalCost(prior, wh, baseline, table)
	}
	return cost, nil
}
