package model

import "time"

// TransactionTypePurchase marks a transaction recorded by a purchase.
const TransactionTypePurchase = "purchase"

// Transaction represents one recorded purchase. Immutable once written.
type Transaction struct {
	ID          int64     `json:"id"`
	CustomerID  string    `json:"customer_id"`
	CreatedAt   time.Time `json:"created_at"`
	Amount      float64   `json:"amount"`
	Points      float64   `json:"points"`
	Multiplier  float64   `json:"multiplier"`
	Description string    `json:"description"`
	Branch      string    `json:"branch"`
	Type        string    `json:"type"`
}

// PurchaseRequest is the DTO for recording a purchase
type PurchaseRequest struct {
	ID          string   `json:"id" validate:"required,nationalid"`
	Amount      *float64 `json:"amount" validate:"required,gt=0"`
	Description string   `json:"description" validate:"max=255"`
	Branch      string   `json:"branch" validate:"max=100"`
}

// PurchaseResult is the API response DTO for POST /api/venta
type PurchaseResult struct {
	TransactionID int64   `json:"transaction_id"`
	CustomerID    string  `json:"id"`
	Amount        float64 `json:"amount"`
	PointsAwarded float64 `json:"points_awarded"`
	Multiplier    float64 `json:"multiplier"`
	AwardTier     string  `json:"award_tier"`
	Tier          string  `json:"tier"`
	Points        float64 `json:"points"`
	Visits        int     `json:"visits"`
}

// OrderEvent is one entry of the admin live order feed.
type OrderEvent struct {
	TransactionID int64     `json:"transaction_id"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	CreatedAt     time.Time `json:"created_at"`
	Amount        float64   `json:"amount"`
	Points        float64   `json:"points"`
	Description   string    `json:"description"`
	Branch        string    `json:"branch"`
	Tier          string    `json:"tier"`
}
