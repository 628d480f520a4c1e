package model

import "time"

// LoginRequest is the DTO for POST /api/admin/login
type LoginRequest struct {
	Secret string `json:"secret" validate:"required,notblank"`
}

// LoginResponse carries the admin bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportRow is one aggregated bucket of a report (by description or branch).
type ReportRow struct {
	Key          string  `json:"key"`
	Transactions int     `json:"transactions"`
	TotalAmount  float64 `json:"total_amount"`
	TotalPoints  float64 `json:"total_points"`
}

// ResetResult reports what a bulk reset removed.
type ResetResult struct {
	TransactionsDeleted int64 `json:"transactions_deleted"`
	CustomersDeleted    int64 `json:"customers_deleted"`
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}
