package model

import "time"

// Customer represents a loyalty customer keyed by national ID.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Points    float64   `json:"points"`
	Visits    int       `json:"visits"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerProfile is the API response DTO for GET /api/cliente/:id
type CustomerProfile struct {
	Customer     Customer      `json:"customer"`
	Transactions []Transaction `json:"transactions"`
}

// RegisterCustomerRequest is the DTO for registering a customer
type RegisterCustomerRequest struct {
	ID      string `json:"id" validate:"required,nationalid"`
	Name    string `json:"name" validate:"required,notblank,max=255"`
	Address string `json:"address" validate:"max=255"`
	Phone   string `json:"phone" validate:"max=64"`
}

// RedeemRequest is the DTO for redeeming points
type RedeemRequest struct {
	ID     string   `json:"id" validate:"required,nationalid"`
	Amount *float64 `json:"amount" validate:"required,gt=0"`
}

// RedeemResult is the API response DTO for POST /api/canje
type RedeemResult struct {
	CustomerID string  `json:"id"`
	Requested  float64 `json:"requested"`
	Redeemed   float64 `json:"redeemed"`
	Points     float64 `json:"points"`
}
