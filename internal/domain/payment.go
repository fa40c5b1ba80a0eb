package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Card struct {
	Number     string
	HolderName string
	Expiry     string // MM/YY
	CVV        string
}

type ChargeRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Method         string
	Card           Card
	Reference      string
	IdempotencyKey string
}

type ChargeResult struct {
	PaymentID     string
	TransactionID string
}

// PaymentGateway is the boundary to the external payment collaborator. A
// charge is never retried by the core; a declined or errored charge fails the
// booking and releases its seats.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
