package service

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/credicambios/internal/model"
)

// AdminService provides the back-office reads and the bulk reset.
type AdminService struct {
	db        TxBeginner
	customers CustomerRepositoryInterface
	txns      TransactionRepositoryInterface
	cache     ProfileCache
	feedLimit int
}

// NewAdminService creates a new AdminService. cache may be nil.
func NewAdminService(db TxBeginner, customers CustomerRepositoryInterface, txns TransactionRepositoryInterface, cache ProfileCache, feedLimit int) *AdminService {
	if cache == nil {
		cache = nopCache{}
	}
	return &AdminService{
		db:        db,
		customers: customers,
		txns:      txns,
		cache:     cache,
		feedLimit: feedLimit,
	}
}

// ListCustomers returns registered customers, newest first.
func (s *AdminService) ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, error) {
	if page.Limit < 0 || page.Offset < 0 {
		return nil, ErrInvalidRequest
	}
	customers, err := s.customers.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// CustomerHistory returns every transaction of a customer, newest first.
// Returns ErrCustomerNotFound if the customer doesn't exist.
func (s *AdminService) CustomerHistory(ctx context.Context, id string) ([]model.Transaction, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}

	txns, err := s.txns.ListByCustomer(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return txns, nil
}

// ReportByDescription aggregates purchases per description.
func (s *AdminService) ReportByDescription(ctx context.Context) ([]model.ReportRow, error) {
	rows, err := s.txns.ReportByDescription(ctx)
	if err != nil {
		return nil, fmt.Errorf("report by description: %w", err)
	}
	return rows, nil
}

// ReportByBranch aggregates purchases per branch.
func (s *AdminService) ReportByBranch(ctx context.Context) ([]model.ReportRow, error) {
	rows, err := s.txns.ReportByBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("report by branch: %w", err)
	}
	return rows, nil
}

// RecentOrders returns the latest purchases across all customers, newest first.
func (s *AdminService) RecentOrders(ctx context.Context) ([]model.OrderEvent, error) {
	orders, err := s.txns.RecentOrders(ctx, s.feedLimit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return orders, nil
}

// Reset deletes all transactions and then all customers in one transaction
// and empties the profile cache.
func (s *AdminService) Reset(ctx context.Context) (*model.ResetResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txnsDeleted, err := s.txns.DeleteAll(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}
	customersDeleted, err := s.customers.DeleteAll(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("delete customers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	s.cache.Flush(ctx)

	return &model.ResetResult{
		TransactionsDeleted: txnsDeleted,
		CustomersDeleted:    customersDeleted,
	}, nil
}
