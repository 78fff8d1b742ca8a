package billing

import (
	"testing"
	"time"

	"github.com/jgoulah/solarbill/internal/schedule"
	"github.com/jgoulah/solarbill/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hours builds one record per hour for each day in days, using usage(hour) for every day
func hours(year int, month time.Month, days []int, usage func(h int) float64) []models.HourlyRecord {
	var records []models.HourlyRecord
	for _, d := range days {
		for h := 0; h < 24; h++ {
			wh := usage(h)
			records = append(records, models.HourlyRecord{
				Timestamp:    time.Date(year, month, d, h, 0, 0, 0, time.UTC),
				UsageWh:      wh,
				SolarUsageWh: wh,
			})
		}
	}
	return records
}

func dayRange(from, to int) []int {
	var days []int
	for d := from; d <= to; d++ {
		days = append(days, d)
	}
	return days
}

func flatEngine(t *testing.T, s schedule.Schedule) *FlatEngine {
	t.Helper()
	e, err := New(s)
	require.NoError(t, err)
	fe, ok := e.(*FlatEngine)
	require.True(t, ok)
	return fe
}

func touEngine(t *testing.T, s schedule.Schedule) *TOUEngine {
	t.Helper()
	e, err := New(s)
	require.NoError(t, err)
	te, ok := e.(*TOUEngine)
	require.True(t, ok)
	return te
}

func singleBucket(t *testing.T, records []models.HourlyRecord) MonthlyBucket {
	t.Helper()
	buckets := GroupByMonth(records)
	require.Len(t, buckets, 1)
	return buckets[0]
}

func TestApplyTier(t *testing.T) {
	table := schedule.TierTable{
		Boundaries: []float64{1.0, 1.3, 2.0},
		Prices:     []float64{0.10, 0.20, 0.30, 0.40},
	}

	t.Run("zero and negative usage", func(t *testing.T) {
		assert.Equal(t, 0.0, ApplyTier(0, 100, table))
		assert.Equal(t, 0.0, ApplyTier(-5000, 100, table))
	})

	t.Run("each tier", func(t *testing.T) {
		// baseline 100 kWh: tiers are 100, 30, 70, then unbounded
		assert.InDelta(t, 5.0, ApplyTier(50_000, 100, table), 1e-9)
		assert.InDelta(t, 10.0, ApplyTier(100_000, 100, table), 1e-9)
		assert.InDelta(t, 10.0+30*0.20, ApplyTier(130_000, 100, table), 1e-9)
		assert.InDelta(t, 10.0+6.0+70*0.30, ApplyTier(200_000, 100, table), 1e-9)
		assert.InDelta(t, 10.0+6.0+21.0+50*0.40, ApplyTier(250_000, 100, table), 1e-9)
	})

	t.Run("doubling within first tier doubles cost", func(t *testing.T) {
		assert.InDelta(t, 2*ApplyTier(20_000, 100, table), ApplyTier(40_000, 100, table), 1e-9)
	})

	t.Run("monotonic", func(t *testing.T) {
		prev := 0.0
		for wh := 0.0; wh <= 400_000; wh += 2_500 {
			cost := ApplyTier(wh, 100, table)
			assert.GreaterOrEqual(t, cost, prev, "usage %f", wh)
			prev = cost
		}
	})

	t.Run("zero baseline bills everything at the top tier", func(t *testing.T) {
		assert.InDelta(t, 4.0, ApplyTier(10_000, 0, table), 1e-9)
	})

	t.Run("single price", func(t *testing.T) {
		assert.InDelta(t, 4.5, ApplyTier(10_000, 100, schedule.TierTable{Prices: []float64{0.45}}), 1e-9)
	})
}

func TestFlatEngine(t *testing.T) {
	e := flatEngine(t, schedule.E1())
	assert.Equal(t, "E1", e.Name())
	table := schedule.E1().Seasons[0].Tiers[models.KindTotal]

	t.Run("tier cost of zero and negative usage", func(t *testing.T) {
		assert.Equal(t, 0.0, e.TierCost(0, 30, 11, table))
		assert.Equal(t, 0.0, e.TierCost(-12_000, 30, 11, table))
	})

	t.Run("hand computed staircase", func(t *testing.T) {
		// 1 kWh every hour for ten days is 240 kWh against a 110 kWh baseline:
		// 110 @ 0.13627 + 33 @ 0.15491 + 77 @ 0.31955 + 20 @ 0.35955
		records := hours(2014, time.July, dayRange(1, 10), func(int) float64 { return 1000 })
		bucket := singleBucket(t, records)
		assert.Equal(t, 10, bucket.DaysObserved)

		cost, err := e.MonthlyCost(bucket)
		require.NoError(t, err)
		assert.InDelta(t, 51.89808, cost.NoSolar, 1e-6)
		assert.InDelta(t, 51.89808, cost.Solar, 1e-6)
	})

	t.Run("partial month uses days observed", func(t *testing.T) {
		records := hours(2014, time.July, dayRange(1, 10), func(int) float64 { return 1000 })
		cost, err := e.MonthlyCost(singleBucket(t, records))
		require.NoError(t, err)

		assert.InDelta(t, e.TierCost(240_000, 10, 11, table), cost.NoSolar, 1e-9)
		// a 31 day baseline would keep all 240 kWh in the first tier
		assert.InDelta(t, 240*0.13627, e.TierCost(240_000, 31, 11, table), 1e-9)
		assert.Greater(t, cost.NoSolar, 240*0.13627)
	})

	t.Run("net export month costs zero", func(t *testing.T) {
		records := hours(2014, time.June, dayRange(1, 30), func(int) float64 { return 500 })
		for i := range records {
			records[i].SolarSouthWh = 800
		}
		records = ApplySolar(records)

		cost, err := e.MonthlyCost(singleBucket(t, records))
		require.NoError(t, err)
		assert.Greater(t, cost.NoSolar, 0.0)
		assert.Equal(t, 0.0, cost.Solar)
	})
}

func TestTOUEngine(t *testing.T) {
	e := touEngine(t, schedule.E6())
	assert.Equal(t, "E6", e.Name())

	t.Run("kinds add up to total", func(t *testing.T) {
		for _, month := range []time.Month{time.January, time.July} {
			records := hours(2014, month, dayRange(1, 28), func(h int) float64 { return 250 + float64(h*37%11)*91.3 })
			for i := range records {
				records[i].SolarWestWh = float64(i%7) * 120.7
			}
			records = ApplySolar(records)
			bucket := singleBucket(t, records)
			season, err := e.schedule.SeasonFor(month)
			require.NoError(t, err)

			for i, usage := range []usageOf{rawUsage, solarUsage} {
				sums, err := e.Aggregate(bucket, season, usage)
				require.NoError(t, err)
				assert.InDelta(t, sums.Total, sums.Off+sums.Partial+sums.Peak, 1e-2)
				if month == time.January {
					assert.Equal(t, 0.0, sums.Peak)
				} else if i == 0 {
					assert.Greater(t, sums.Peak, 0.0)
				}
			}
		}
	})

	t.Run("hand computed winter day", func(t *testing.T) {
		// Wednesday: 17:00-20:00 is partial, the rest is off. 21 kWh off and 3 kWh partial
		// split a 10.1 kWh baseline 21:3.
		records := hours(2014, time.January, []int{1}, func(int) float64 { return 1000 })
		cost, err := e.MonthlyCost(singleBucket(t, records))
		require.NoError(t, err)
		assert.InDelta(t, 4.4048557, cost.NoSolar, 1e-6)
	})

	t.Run("all usage exported", func(t *testing.T) {
		records := hours(2014, time.July, dayRange(1, 3), func(int) float64 { return 300 })
		for i := range records {
			records[i].SolarSouthWh = 400
		}
		records = ApplySolar(records)

		cost, err := e.MonthlyCost(singleBucket(t, records))
		require.NoError(t, err)
		assert.Greater(t, cost.NoSolar, 0.0)
		assert.Equal(t, 0.0, cost.Solar)
	})

	t.Run("zero usage month", func(t *testing.T) {
		records := hours(2014, time.March, dayRange(1, 2), func(int) float64 { return 0 })
		cost, err := e.MonthlyCost(singleBucket(t, records))
		require.NoError(t, err)
		assert.Equal(t, models.Cost{}, cost)
	})

	t.Run("negative kind is clamped", func(t *testing.T) {
		season, err := e.schedule.SeasonFor(time.July)
		require.NoError(t, err)

		withExport, err := e.TierCost(models.KindUsage{Off: -5000, Partial: 3000, Total: -2000}, 1, season)
		require.NoError(t, err)
		partialOnly, err := e.TierCost(models.KindUsage{Partial: 3000, Total: 3000}, 1, season)
		require.NoError(t, err)
		assert.InDelta(t, partialOnly, withExport, 1e-9)
		assert.Greater(t, withExport, 0.0)
	})

	t.Run("missing tier table", func(t *testing.T) {
		season := &schedule.Season{
			Name:              "bare",
			BaselinePerDayKWh: 10,
			Tiers:             map[models.UsageKind]schedule.TierTable{models.KindOff: {Prices: []float64{0.1}}},
		}
		_, err := e.TierCost(models.KindUsage{Peak: 1000, Total: 1000}, 1, season)
		assert.Error(t, err)
	})
}

func TestStrategies(t *testing.T) {
	incrementalE1 := schedule.E1()
	incrementalE1.Strategy = schedule.StrategyIncremental
	incrementalE6 := schedule.E6()
	incrementalE6.Strategy = schedule.StrategyIncremental

	aggFlat := flatEngine(t, schedule.E1())
	incFlat := flatEngine(t, incrementalE1)
	aggTOU := touEngine(t, schedule.E6())
	incTOU := touEngine(t, incrementalE6)

	t.Run("flat agrees on a single positive day", func(t *testing.T) {
		records := hours(2014, time.August, []int{5}, func(h int) float64 { return 200 + float64(h)*150 })
		bucket := singleBucket(t, records)

		agg, err := aggFlat.MonthlyCost(bucket)
		require.NoError(t, err)
		inc, err := incFlat.MonthlyCost(bucket)
		require.NoError(t, err)
		assert.InDelta(t, agg.NoSolar, inc.NoSolar, 1e-9)
	})

	t.Run("tou agrees when one kind holds all usage", func(t *testing.T) {
		// Saturday in winter has no partial window
		records := hours(2013, time.December, []int{7}, func(h int) float64 { return 900 + float64(h)*40 })
		bucket := singleBucket(t, records)

		agg, err := aggTOU.MonthlyCost(bucket)
		require.NoError(t, err)
		inc, err := incTOU.MonthlyCost(bucket)
		require.NoError(t, err)
		assert.InDelta(t, agg.NoSolar, inc.NoSolar, 1e-9)
	})

	t.Run("net export diverges", func(t *testing.T) {
		// daytime export offsets nighttime use in aggregate but not hour by hour
		records := hours(2014, time.August, []int{5}, func(h int) float64 { return 2000 })
		for i := range records {
			if h := records[i].Timestamp.Hour(); h >= 8 && h < 20 {
				records[i].SolarSouthWh = 3000
			}
		}
		records = ApplySolar(records)
		bucket := singleBucket(t, records)

		agg, err := aggFlat.MonthlyCost(bucket)
		require.NoError(t, err)
		inc, err := incFlat.MonthlyCost(bucket)
		require.NoError(t, err)
		assert.Greater(t, inc.Solar, agg.Solar)
		assert.InDelta(t, agg.NoSolar, inc.NoSolar, 1e-9)
	})

	t.Run("multiple days diverge", func(t *testing.T) {
		// early hours see a smaller month-to-date allowance and climb the staircase sooner
		records := hours(2014, time.August, dayRange(1, 5), func(int) float64 { return 1500 })
		bucket := singleBucket(t, records)

		agg, err := aggFlat.MonthlyCost(bucket)
		require.NoError(t, err)
		inc, err := incFlat.MonthlyCost(bucket)
		require.NoError(t, err)
		assert.Greater(t, inc.NoSolar, agg.NoSolar)
	})

	t.Run("incremental tou never bills exported hours", func(t *testing.T) {
		records := hours(2014, time.July, []int{14}, func(int) float64 { return 100 })
		for i := range records {
			records[i].SolarWestWh = 500
		}
		records = ApplySolar(records)

		cost, err := incTOU.MonthlyCost(singleBucket(t, records))
		require.NoError(t, err)
		assert.Equal(t, 0.0, cost.Solar)
		assert.Greater(t, cost.NoSolar, 0.0)
	})
}

func TestNew(t *testing.T) {
	_, err := New(schedule.Schedule{Name: "broken", Type: schedule.TypeFlat})
	assert.Error(t, err)

	e, err := New(schedule.E6())
	require.NoError(t, err)
	assert.IsType(t, &TOUEngine{}, e)
}
