package ledger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/credicambios/internal/ledger"
)

type accrualTestContext struct {
	account    ledger.Account
	award      ledger.Award
	redemption ledger.Redemption
}

func (c *accrualTestContext) reset() {
	c.account = ledger.Account{Balance: decimal.Zero, Tier: ledger.TierNew}
	c.award = ledger.Award{}
	c.redemption = ledger.Redemption{}
}

func (c *accrualTestContext) aCustomerWithPointsAndVisits(points string, visits int) error {
	balance, err := decimal.NewFromString(points)
	if err != nil {
		return err
	}
	c.account = ledger.Account{Balance: balance, Visits: visits, Tier: ledger.Classify(visits)}
	return nil
}

func (c *accrualTestContext) theCustomerBuysFor(amount string) error {
	return c.theCustomerBuysForTimes(amount, 1)
}

func (c *accrualTestContext) theCustomerBuysForTimes(amount string, times int) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	for i := 0; i < times; i++ {
		c.award = ledger.ApplyPurchase(c.account, value)
		c.account = c.award.Account
	}
	return nil
}

func (c *accrualTestContext) theCustomerRedeems(amount string) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	c.redemption = ledger.Redeem(c.account.Balance, value)
	c.account.Balance = c.redemption.Balance
	return nil
}

func (c *accrualTestContext) theCustomerTierIs(tier string) error {
	if got := ledger.Classify(c.account.Visits); string(got) != tier {
		return fmt.Errorf("expected tier %s, got %s", tier, got)
	}
	return nil
}

func (c *accrualTestContext) thePurchaseAwardsPointsAtMultiplier(points, multiplier string) error {
	if got := c.award.Points.StringFixed(2); got != points {
		return fmt.Errorf("expected %s points, got %s", points, got)
	}
	if got := c.award.Multiplier.StringFixed(2); got != multiplier {
		return fmt.Errorf("expected multiplier %s, got %s", multiplier, got)
	}
	return nil
}

func (c *accrualTestContext) theCustomerHasPointsAndVisits(points string, visits int) error {
	if got := c.account.Balance.StringFixed(2); got != points {
		return fmt.Errorf("expected balance %s, got %s", points, got)
	}
	if c.account.Visits != visits {
		return fmt.Errorf("expected %d visits, got %d", visits, c.account.Visits)
	}
	return nil
}

func (c *accrualTestContext) pointsAreRedeemed(points string) error {
	if got := c.redemption.Redeemed.StringFixed(2); got != points {
		return fmt.Errorf("expected %s redeemed, got %s", points, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &accrualTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a customer with ([\d.]+) points and (\d+) visits$`, tc.aCustomerWithPointsAndVisits)

	// When steps
	ctx.Step(`^the customer buys for ([\d.]+)$`, tc.theCustomerBuysFor)
	ctx.Step(`^the customer buys for ([\d.]+) (\d+) times$`, tc.theCustomerBuysForTimes)
	ctx.Step(`^the customer redeems ([\d.]+)$`, tc.theCustomerRedeems)

	// Then steps
	ctx.Step(`^the customer tier is "([^"]*)"$`, tc.theCustomerTierIs)
	ctx.Step(`^the purchase awards ([\d.]+) points at multiplier ([\d.]+)$`, tc.thePurchaseAwardsPointsAtMultiplier)
	ctx.Step(`^the customer has ([\d.]+) points and (\d+) visits$`, tc.theCustomerHasPointsAndVisits)
	ctx.Step(`^([\d.]+) points are redeemed$`, tc.pointsAreRedeemed)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/ledger.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
