package models

import "time"

// UsageData is one row of a gridscraper usage database
type UsageData struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`       // Just the date (for querying)
	StartTime time.Time `json:"start_time"` // Full timestamp, zero for daily totals
	EndTime   time.Time `json:"end_time"`
	KWh       float64   `json:"kwh"`
	Service   string    `json:"service"`
}

// UsageReading represents a single hour of metered electricity usage
type UsageReading struct {
	Start   time.Time `json:"start"`
	UsageWh float64   `json:"usage_wh"`
	Cost    float64   `json:"cost"` // Amount billed by the utility, 0 if the source has none
}

// UsageMap holds usage readings keyed by the hour's epoch seconds
type UsageMap map[int64]UsageReading

// HourKey identifies an hour of a modeled year, independent of the calendar year
type HourKey struct {
	Month time.Month
	Day   int
	Hour  int
}

// HourKeyOf returns the key for t in its own location
func HourKeyOf(t time.Time) HourKey {
	return HourKey{Month: t.Month(), Day: t.Day(), Hour: t.Hour()}
}

// ProductionMap holds modeled solar output in watt-hours per hour of the year
type ProductionMap map[HourKey]float64

// HourlyRecord is one metered hour with the modeled solar production for the same hour
type HourlyRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	UsageWh      float64   `json:"usage_wh"`
	ActualCost   float64   `json:"actual_cost"`
	SolarSouthWh float64   `json:"solar_south_wh"`
	SolarWestWh  float64   `json:"solar_west_wh"`
	SolarUsageWh float64   `json:"solar_usage_wh"` // Usage net of solar, negative when exporting
}
