// Package ledger holds the credicambios accrual rules: visit-count tiers, the
// points multiplier for each tier, and the arithmetic applied to a customer's
// running totals on purchase and redemption. It has no storage dependencies.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Tier is a customer classification keyed by cumulative visit count.
type Tier string

const (
	TierNew      Tier = "NEW"
	TierFrequent Tier = "FREQUENT"
	TierPremium  Tier = "PREMIUM"
	TierVIP      Tier = "VIP"
)

// pointsPlaces is the number of decimal places points are rounded to.
const pointsPlaces = 2

// unboundedVisits marks the open upper end of the last band.
const unboundedVisits = -1

// Band is one row of the tier table: an inclusive visit range and its multiplier.
type Band struct {
	Tier       Tier
	MinVisits  int
	MaxVisits  int
	Multiplier decimal.Decimal
}

// contains reports whether visits falls inside the band.
func (b Band) contains(visits int) bool {
	if visits < b.MinVisits {
		return false
	}
	return b.MaxVisits == unboundedVisits || visits <= b.MaxVisits
}

// bands are contiguous, non-overlapping and ordered by ascending threshold.
var bands = []Band{
	{Tier: TierNew, MinVisits: 0, MaxVisits: 19, Multiplier: decimal.RequireFromString("0.10")},
	{Tier: TierFrequent, MinVisits: 20, MaxVisits: 49, Multiplier: decimal.RequireFromString("0.12")},
	{Tier: TierPremium, MinVisits: 50, MaxVisits: 99, Multiplier: decimal.RequireFromString("0.15")},
	{Tier: TierVIP, MinVisits: 100, MaxVisits: unboundedVisits, Multiplier: decimal.RequireFromString("0.20")},
}

// fallbackMultiplier applies to tier labels that are not in the table.
var fallbackMultiplier = decimal.RequireFromString("0.05")

// Bands returns a copy of the tier table.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// Classify returns the tier for a visit count. Counts outside every band
// (negative values) fall back to TierNew.
func Classify(visits int) Tier {
	for _, b := range bands {
		if b.contains(visits) {
			return b.Tier
		}
	}
	return TierNew
}

// Multiplier returns the points multiplier for a tier label.
func Multiplier(t Tier) decimal.Decimal {
	for _, b := range bands {
		if b.Tier == t {
			return b.Multiplier
		}
	}
	return fallbackMultiplier
}

// Points returns amount × Multiplier(t) rounded half away from zero to two places.
func Points(amount decimal.Decimal, t Tier) decimal.Decimal {
	return amount.Mul(Multiplier(t)).Round(pointsPlaces)
}

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	for _, b := range bands {
		if b.Tier == t {
			return true
		}
	}
	return false
}
