package repository

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/credicambios/internal/model"
	"github.com/fairyhunter13/credicambios/pkg/database"
)

const transactionColumns = `id, customer_id, created_at, amount, points, multiplier, description, branch, txn_type`

// TransactionRepository provides data access for purchase transactions.
type TransactionRepository struct {
	db database.TxQuerier
}

// NewTransactionRepository creates a new TransactionRepository on the given database.
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// NewTransactionRepositoryWithQuerier creates a TransactionRepository over any TxQuerier.
// This is primarily used for testing.
func NewTransactionRepositoryWithQuerier(q database.TxQuerier) *TransactionRepository {
	return &TransactionRepository{db: q}
}

// Insert records a transaction within tx and returns its assigned ID.
func (r *TransactionRepository) Insert(ctx context.Context, tx database.TxQuerier, t *model.Transaction) (int64, error) {
	query := `INSERT INTO transactions (customer_id, created_at, amount, points, multiplier, description, branch, txn_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id int64
	err := tx.QueryRowContext(ctx, query,
		t.CustomerID, t.CreatedAt, t.Amount, t.Points, t.Multiplier, t.Description, t.Branch, t.Type,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction for %s: %w", t.CustomerID, err)
	}
	return id, nil
}

// ListByCustomer returns a customer's transactions, newest first.
// A limit of zero or less returns the full history.
// On success, returns an empty slice (not nil) when no transactions exist.
func (r *TransactionRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE customer_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{customerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get transactions for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.CustomerID,
			&t.CreatedAt,
			&t.Amount,
			&t.Points,
			&t.Multiplier,
			&t.Description,
			&t.Branch,
			&t.Type,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// RecentOrders returns the latest purchases across all customers, newest first.
func (r *TransactionRepository) RecentOrders(ctx context.Context, limit int) ([]model.OrderEvent, error) {
	query := `SELECT t.id, t.customer_id, c.name, t.created_at, t.amount, t.points, t.description, t.branch, c.tier
		FROM transactions t
		JOIN customers c ON c.id = t.customer_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent orders: %w", err)
	}
	defer rows.Close()

	orders := []model.OrderEvent{}
	for rows.Next() {
		var o model.OrderEvent
		if err := rows.Scan(
			&o.TransactionID,
			&o.CustomerID,
			&o.CustomerName,
			&o.CreatedAt,
			&o.Amount,
			&o.Points,
			&o.Description,
			&o.Branch,
			&o.Tier,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

// ReportByDescription aggregates transactions per description.
func (r *TransactionRepository) ReportByDescription(ctx context.Context) ([]model.ReportRow, error) {
	return r.report(ctx, "description")
}

// ReportByBranch aggregates transactions per branch (zone).
func (r *TransactionRepository) ReportByBranch(ctx context.Context) ([]model.ReportRow, error) {
	return r.report(ctx, "branch")
}

// report groups by column, which must be a trusted column name, never user input.
func (r *TransactionRepository) report(ctx context.Context, column string) ([]model.ReportRow, error) {
	query := `SELECT ` + column + `, COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(points), 0)
		FROM transactions
		GROUP BY ` + column + `
		ORDER BY 3 DESC, 1`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("report by %s: %w", column, err)
	}
	defer rows.Close()

	report := []model.ReportRow{}
	for rows.Next() {
		var row model.ReportRow
		if err := rows.Scan(&row.Key, &row.Transactions, &row.TotalAmount, &row.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return report, nil
}

// DeleteAll removes every transaction.
func (r *TransactionRepository) DeleteAll(ctx context.Context, tx database.TxQuerier) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete transactions rows affected: %w", err)
	}
	return n, nil
}
