package ledger

import "github.com/shopspring/decimal"

// Account is the running state the ledger mutates for one customer.
type Account struct {
	Balance decimal.Decimal
	Visits  int
	Tier    Tier
}

// Award describes the effect of a single purchase.
type Award struct {
	// AwardTier is the tier whose multiplier priced this purchase.
	AwardTier  Tier
	Multiplier decimal.Decimal
	Points     decimal.Decimal
	// Account is the state after the purchase has been counted.
	Account Account
}

// ApplyPurchase prices a purchase against the visit count held before it and
// then counts the visit. The multiplier comes from Classify(acc.Visits), not
// from acc.Tier, so a stale stored label never changes the award. The returned
// account carries the tier earned by the new visit count.
func ApplyPurchase(acc Account, amount decimal.Decimal) Award {
	awardTier := Classify(acc.Visits)
	points := Points(amount, awardTier)

	visits := acc.Visits + 1
	return Award{
		AwardTier:  awardTier,
		Multiplier: Multiplier(awardTier),
		Points:     points,
		Account: Account{
			Balance: acc.Balance.Add(points).Round(pointsPlaces),
			Visits:  visits,
			Tier:    Classify(visits),
		},
	}
}

// Redemption describes the effect of redeeming points.
type Redemption struct {
	Requested decimal.Decimal
	// Redeemed is what was actually taken: min(Requested, balance).
	Redeemed decimal.Decimal
	Balance  decimal.Decimal
}

// Redeem subtracts amount from balance, flooring at zero. A request larger
// than the balance consumes only what remains. The amount is rounded to
// points precision first, so all three fields agree.
func Redeem(balance, amount decimal.Decimal) Redemption {
	amount = amount.Round(pointsPlaces)
	remaining := balance.Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	remaining = remaining.Round(pointsPlaces)
	return Redemption{
		Requested: amount,
		Redeemed:  balance.Sub(remaining).Round(pointsPlaces),
		Balance:   remaining,
	}
}
