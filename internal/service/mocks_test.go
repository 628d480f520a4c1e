package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/pkg/database"
)

// mockCustomerRepository is a mock implementation of CustomerRepositoryInterface.
type mockCustomerRepository struct {
	insertFn       func(ctx context.Context, c *model.Customer) error
	getByIDFn      func(ctx context.Context, id string) (*model.Customer, error)
	getForUpdateFn func(ctx context.Context, tx database.TxQuerier, id string) (*model.Customer, error)
	updateTotalsFn func(ctx context.Context, tx database.TxQuerier, id string, points float64, visits int, tier string) error
	updatePointsFn func(ctx context.Context, tx database.TxQuerier, id string, points float64) error
	listFn         func(ctx context.Context, page model.Page) ([]model.Customer, error)
	deleteAllFn    func(ctx context.Context, tx database.TxQuerier) (int64, error)
}

func (m *mockCustomerRepository) Insert(ctx context.Context, c *model.Customer) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, c)
	}
	return nil
}

func (m *mockCustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCustomerRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Customer, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrCustomerNotFound
}

func (m *mockCustomerRepository) UpdateTotals(ctx context.Context, tx database.TxQuerier, id string, points float64, visits int, tier string) error {
	if m.updateTotalsFn != nil {
		return m.updateTotalsFn(ctx, tx, id, points, visits, tier)
	}
	return nil
}

func (m *mockCustomerRepository) UpdatePoints(ctx context.Context, tx database.TxQuerier, id string, points float64) error {
	if m.updatePointsFn != nil {
		return m.updatePointsFn(ctx, tx, id, points)
	}
	return nil
}

func (m *mockCustomerRepository) List(ctx context.Context, page model.Page) ([]model.Customer, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page)
	}
	return []model.Customer{}, nil
}

func (m *mockCustomerRepository) DeleteAll(ctx context.Context, tx database.TxQuerier) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, tx)
	}
	return 0, nil
}

// mockTransactionRepository is a mock implementation of TransactionRepositoryInterface.
type mockTransactionRepository struct {
	insertFn         func(ctx context.Context, tx database.TxQuerier, t *model.Transaction) (int64, error)
	listByCustomerFn func(ctx context.Context, customerID string, limit int) ([]model.Transaction, error)
	recentOrdersFn   func(ctx context.Context, limit int) ([]model.OrderEvent, error)
	reportByDescFn   func(ctx context.Context) ([]model.ReportRow, error)
	reportByBranchFn func(ctx context.Context) ([]model.ReportRow, error)
	deleteAllFn      func(ctx context.Context, tx database.TxQuerier) (int64, error)
}

func (m *mockTransactionRepository) Insert(ctx context.Context, tx database.TxQuerier, t *model.Transaction) (int64, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, t)
	}
	return 1, nil
}

func (m *mockTransactionRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Transaction, error) {
	if m.listByCustomerFn != nil {
		return m.listByCustomerFn(ctx, customerID, limit)
	}
	return []model.Transaction{}, nil
}

func (m *mockTransactionRepository) RecentOrders(ctx context.Context, limit int) ([]model.OrderEvent, error) {
	if m.recentOrdersFn != nil {
		return m.recentOrdersFn(ctx, limit)
	}
	return []model.OrderEvent{}, nil
}

func (m *mockTransactionRepository) ReportByDescription(ctx context.Context) ([]model.ReportRow, error) {
	if m.reportByDescFn != nil {
		return m.reportByDescFn(ctx)
	}
	return []model.ReportRow{}, nil
}

func (m *mockTransactionRepository) ReportByBranch(ctx context.Context) ([]model.ReportRow, error) {
	if m.reportByBranchFn != nil {
		return m.reportByBranchFn(ctx)
	}
	return []model.ReportRow{}, nil
}

func (m *mockTransactionRepository) DeleteAll(ctx context.Context, tx database.TxQuerier) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, tx)
	}
	return 0, nil
}

// mockTx is a mock implementation of database.Tx for testing transactions.
type mockTx struct {
	commitFn   func() error
	rollbackFn func() error
	committed  bool
}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, errors.New("mockTx: unexpected ExecContext")
}

func (m *mockTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("mockTx: unexpected QueryContext")
}

func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error {
	if m.commitFn != nil {
		return m.commitFn()
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback() error {
	if m.rollbackFn != nil {
		return m.rollbackFn()
	}
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (database.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (database.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

// recordingCache is a ProfileCache that remembers what it was asked to do.
type recordingCache struct {
	mu          sync.Mutex
	profiles    map[string]*model.CustomerProfile
	invalidated []string
	flushed     int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{profiles: make(map[string]*model.CustomerProfile)}
}

func (c *recordingCache) Get(_ context.Context, id string) (*model.CustomerProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.profiles[id]
	return p, ok
}

func (c *recordingCache) Set(_ context.Context, p *model.CustomerProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.Customer.ID] = p
}

func (c *recordingCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, id)
	c.invalidated = append(c.invalidated, id)
}

func (c *recordingCache) Flush(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = make(map[string]*model.CustomerProfile)
	c.flushed++
}

// recordingPublisher collects published order events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
}

func (p *recordingPublisher) Publish(e model.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func float64Ptr(f float64) *float64 {
	return &f
}
