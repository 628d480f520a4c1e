package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/internal/service"
	"github.com/fairyhunter13/credicambios/pkg/database"
)

const customerColumns = `id, name, address, phone, points, visits, tier, created_at`

// CustomerRepository provides data access for customers.
type CustomerRepository struct {
	db      database.TxQuerier
	dialect database.Dialect
}

// NewCustomerRepository creates a new CustomerRepository on the given database.
func NewCustomerRepository(db *database.DB) *CustomerRepository {
	return &CustomerRepository{db: db, dialect: db.Dialect()}
}

// NewCustomerRepositoryWithQuerier creates a CustomerRepository over any TxQuerier.
// This is primarily used for testing.
func NewCustomerRepositoryWithQuerier(q database.TxQuerier, dialect database.Dialect) *CustomerRepository {
	return &CustomerRepository{db: q, dialect: dialect}
}

// Insert inserts a new customer.
// Returns service.ErrCustomerExists if the national ID is already registered.
func (r *CustomerRepository) Insert(ctx context.Context, c *model.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Address, c.Phone, c.Points, c.Visits, c.Tier, c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return service.ErrCustomerExists
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by national ID.
// Returns nil, nil if the customer is not found (service layer handles this).
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get customer by id %s: %w", id, err)
	}
	return c, nil
}

// GetForUpdate retrieves a customer inside tx, locking the row on engines
// that support it. Returns service.ErrCustomerNotFound if it doesn't exist.
func (r *CustomerRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1` + r.dialect.LockClause()

	c, err := scanCustomer(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer for update %s: %w", id, err)
	}
	return c, nil
}

// UpdateTotals writes the running totals produced by a purchase.
// Must be called within a transaction after GetForUpdate.
func (r *CustomerRepository) UpdateTotals(ctx context.Context, tx database.TxQuerier, id string, points float64, visits int, tier string) error {
	query := `UPDATE customers SET points = $1, visits = $2, tier = $3 WHERE id = $4`

	res, err := tx.ExecContext(ctx, query, points, visits, tier, id)
	if err != nil {
		return fmt.Errorf("update totals for %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// UpdatePoints writes a new points balance.
// Must be called within a transaction after GetForUpdate.
func (r *CustomerRepository) UpdatePoints(ctx context.Context, tx database.TxQuerier, id string, points float64) error {
	query := `UPDATE customers SET points = $1 WHERE id = $2`

	res, err := tx.ExecContext(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("update points for %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// List returns customers, most recently registered first.
// A zero page.Limit returns every customer.
func (r *CustomerRepository) List(ctx context.Context, page model.Page) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC, id`
	args := []any{}
	if page.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, page.Limit, page.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return customers, nil
}

// DeleteAll removes every customer. Transactions cascade.
func (r *CustomerRepository) DeleteAll(ctx context.Context, tx database.TxQuerier) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM customers`)
	if err != nil {
		return 0, fmt.Errorf("delete customers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete customers rows affected: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address,
		&c.Phone,
		&c.Points,
		&c.Visits,
		&c.Tier,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return service.ErrCustomerNotFound
	}
	return nil
}
