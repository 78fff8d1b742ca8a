package models

import "time"

// UsageKind classifies an hour for time-of-use pricing
type UsageKind string

const (
	KindTotal   UsageKind = "total"
	KindOff     UsageKind = "off"
	KindPartial UsageKind = "partial"
	KindPeak    UsageKind = "peak"
)

// KindUsage holds watt-hours summed per usage kind
type KindUsage struct {
	Total   float64 `json:"total"`
	Off     float64 `json:"off"`
	Partial float64 `json:"partial"`
	Peak    float64 `json:"peak"`
}

// Add accumulates wh into kind and into the running total
func (u *KindUsage) Add(kind UsageKind, wh float64) {
	switch kind {
	case KindOff:
		u.Off += wh
	case KindPartial:
		u.Partial += wh
	case KindPeak:
		u.Peak += wh
	}
	u.Total += wh
}

// Get returns the watt-hours accumulated for kind
func (u KindUsage) Get(kind UsageKind) float64 {
	switch kind {
	case KindOff:
		return u.Off
	case KindPartial:
		return u.Partial
	case KindPeak:
		return u.Peak
	default:
		return u.Total
	}
}

// Cost is the bill for one month under one schedule
type Cost struct {
	NoSolar float64 `json:"no_solar"`
	Solar   float64 `json:"solar"`
}

// MonthlySummary is one report row: usage totals and computed bills for a calendar month
type MonthlySummary struct {
	Month        time.Time       `json:"month"` // First of the month, local time
	DaysObserved int             `json:"days_observed"`
	UsageWh      float64         `json:"usage_wh"`
	SolarSouthWh float64         `json:"solar_south_wh"`
	SolarWestWh  float64         `json:"solar_west_wh"`
	SolarUsageWh float64         `json:"solar_usage_wh"`
	ActualCost   float64         `json:"actual_cost"`
	Costs        map[string]Cost `json:"costs"` // Keyed by schedule name
}
