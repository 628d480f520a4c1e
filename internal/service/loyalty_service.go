package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/credicambios/internal/ledger"
	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/pkg/database"
)

// CustomerRepositoryInterface defines the interface for customer data access.
type CustomerRepositoryInterface interface {
	Insert(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Customer, error)
	UpdateTotals(ctx context.Context, tx database.TxQuerier, id string, points float64, visits int, tier string) error
	UpdatePoints(ctx context.Context, tx database.TxQuerier, id string, points float64) error
	List(ctx context.Context, page model.Page) ([]model.Customer, error)
	DeleteAll(ctx context.Context, tx database.TxQuerier) (int64, error)
}

// TransactionRepositoryInterface defines the interface for transaction data access.
type TransactionRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, t *model.Transaction) (int64, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Transaction, error)
	RecentOrders(ctx context.Context, limit int) ([]model.OrderEvent, error)
	ReportByDescription(ctx context.Context) ([]model.ReportRow, error)
	ReportByBranch(ctx context.Context) ([]model.ReportRow, error)
	DeleteAll(ctx context.Context, tx database.TxQuerier) (int64, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (database.Tx, error)
}

// ProfileCache caches assembled customer profiles. Implementations swallow
// their own failures; a miss always falls back to the database.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*model.CustomerProfile, bool)
	Set(ctx context.Context, profile *model.CustomerProfile)
	Invalidate(ctx context.Context, id string)
	Flush(ctx context.Context)
}

// OrderPublisher receives every committed purchase.
type OrderPublisher interface {
	Publish(event model.OrderEvent)
}

// Options holds the ledger settings the service needs.
type Options struct {
	DefaultBranch string
	HistoryLimit  int
}

// Option customizes a LoyaltyService.
type Option func(*LoyaltyService)

// WithProfileCache sets the profile cache. The default caches nothing.
func WithProfileCache(c ProfileCache) Option {
	return func(s *LoyaltyService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithOrderPublisher sets where committed purchases are announced.
func WithOrderPublisher(p OrderPublisher) Option {
	return func(s *LoyaltyService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *LoyaltyService) {
		if now != nil {
			s.now = now
		}
	}
}

// LoyaltyService provides business logic for customers, purchases and redemptions.
type LoyaltyService struct {
	db        TxBeginner
	customers CustomerRepositoryInterface
	txns      TransactionRepositoryInterface
	opts      Options
	cache     ProfileCache
	publisher OrderPublisher
	now       func() time.Time
	locks     *keyLock
}

// NewLoyaltyService creates a new LoyaltyService.
func NewLoyaltyService(db TxBeginner, customers CustomerRepositoryInterface, txns TransactionRepositoryInterface, opts Options, options ...Option) *LoyaltyService {
	s := &LoyaltyService{
		db:        db,
		customers: customers,
		txns:      txns,
		opts:      opts,
		cache:     nopCache{},
		publisher: nopPublisher{},
		now:       time.Now,
		locks:     newKeyLock(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Register creates a new customer with an empty balance at tier NEW.
// Returns ErrCustomerExists if the ID is already registered.
// Returns ErrInvalidRequest if request data is nil or incomplete.
func (s *LoyaltyService) Register(ctx context.Context, req *model.RegisterCustomerRequest) (*model.Customer, error) {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidRequest
	}

	c := &model.Customer{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		Points:    0,
		Visits:    0,
		Tier:      string(ledger.TierNew),
		CreatedAt: s.now().UTC(),
	}
	if err := s.customers.Insert(ctx, c); err != nil {
		if errors.Is(err, ErrCustomerExists) {
			return nil, ErrCustomerExists
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

// GetProfile returns a customer with its most recent transactions, newest first.
// Returns ErrCustomerNotFound if the customer doesn't exist.
func (s *LoyaltyService) GetProfile(ctx context.Context, id string) (*model.CustomerProfile, error) {
	if profile, ok := s.cache.Get(ctx, id); ok {
		return profile, nil
	}

	// Held through Set so a purchase cannot commit and invalidate between
	// the read and the cache fill.
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}

	txns, err := s.txns.ListByCustomer(ctx, id, s.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}

	profile := &model.CustomerProfile{Customer: *c, Transactions: txns}
	s.cache.Set(ctx, profile)
	return profile, nil
}

// RecordPurchase prices a purchase, credits the points and counts the visit.
// The customer row and the new transaction are written in one SQL transaction
// while the customer's key is held, so concurrent purchases never lose updates.
// Returns:
//   - ErrInvalidRequest if the request is nil or has no amount
//   - ErrInvalidAmount if the amount is not positive
//   - ErrCustomerNotFound if the customer doesn't exist (nothing is written)
func (s *LoyaltyService) RecordPurchase(ctx context.Context, req *model.PurchaseRequest) (*model.PurchaseResult, error) {
	if req == nil || req.Amount == nil {
		return nil, ErrInvalidRequest
	}
	if *req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	amount := decimal.NewFromFloat(*req.Amount)

	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = s.opts.DefaultBranch
	}

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Safe: no-op if committed

	// 1. Lock the customer row
	c, err := s.customers.GetForUpdate(ctx, tx, req.ID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer for update: %w", err)
	}

	// 2. Price the purchase against the visits held before it
	award := ledger.ApplyPurchase(ledger.Account{
		Balance: decimal.NewFromFloat(c.Points),
		Visits:  c.Visits,
		Tier:    ledger.Tier(c.Tier),
	}, amount)

	// 3. Record the transaction
	txn := &model.Transaction{
		CustomerID:  c.ID,
		CreatedAt:   s.now().UTC(),
		Amount:      amount.InexactFloat64(),
		Points:      award.Points.InexactFloat64(),
		Multiplier:  award.Multiplier.InexactFloat64(),
		Description: strings.TrimSpace(req.Description),
		Branch:      branch,
		Type:        model.TransactionTypePurchase,
	}
	txn.ID, err = s.txns.Insert(ctx, tx, txn)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	// 4. Write the new running totals
	balance := award.Account.Balance.InexactFloat64()
	tier := string(award.Account.Tier)
	if err := s.customers.UpdateTotals(ctx, tx, c.ID, balance, award.Account.Visits, tier); err != nil {
		return nil, fmt.Errorf("update totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}

	s.cache.Invalidate(ctx, c.ID)
	s.publisher.Publish(model.OrderEvent{
		TransactionID: txn.ID,
		CustomerID:    c.ID,
		CustomerName:  c.Name,
		CreatedAt:     txn.CreatedAt,
		Amount:        txn.Amount,
		Points:        txn.Points,
		Description:   txn.Description,
		Branch:        txn.Branch,
		Tier:          tier,
	})

	return &model.PurchaseResult{
		TransactionID: txn.ID,
		CustomerID:    c.ID,
		Amount:        txn.Amount,
		PointsAwarded: txn.Points,
		Multiplier:    txn.Multiplier,
		AwardTier:     string(award.AwardTier),
		Tier:          tier,
		Points:        balance,
		Visits:        award.Account.Visits,
	}, nil
}

// Redeem subtracts points from a customer's balance, flooring at zero.
// Returns:
//   - ErrInvalidRequest if the request is nil or has no amount
//   - ErrInvalidAmount if the amount is not positive
//   - ErrCustomerNotFound if the customer doesn't exist
func (s *LoyaltyService) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResult, error) {
	if req == nil || req.Amount == nil {
		return nil, ErrInvalidRequest
	}
	if *req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := s.customers.GetForUpdate(ctx, tx, req.ID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer for update: %w", err)
	}

	r := ledger.Redeem(decimal.NewFromFloat(c.Points), decimal.NewFromFloat(*req.Amount))
	balance := r.Balance.InexactFloat64()
	if err := s.customers.UpdatePoints(ctx, tx, c.ID, balance); err != nil {
		return nil, fmt.Errorf("update points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redemption: %w", err)
	}
	s.cache.Invalidate(ctx, c.ID)

	if r.Redeemed.LessThan(r.Requested) {
		log.Debug().
			Str("customer_id", c.ID).
			Str("requested", r.Requested.StringFixed(2)).
			Str("redeemed", r.Redeemed.StringFixed(2)).
			Msg("redemption capped at balance")
	}

	return &model.RedeemResult{
		CustomerID: c.ID,
		Requested:  r.Requested.InexactFloat64(),
		Redeemed:   r.Redeemed.InexactFloat64(),
		Points:     balance,
	}, nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*model.CustomerProfile, bool) { return nil, false }
func (nopCache) Set(context.Context, *model.CustomerProfile)                {}
func (nopCache) Invalidate(context.Context, string)                         {}
func (nopCache) Flush(context.Context)                                      {}

type nopPublisher struct{}

func (nopPublisher) Publish(model.OrderEvent) {}
