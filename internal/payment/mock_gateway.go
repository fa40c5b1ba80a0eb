package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

// Card numbers with these suffixes trigger deterministic failures, matching
// the common gateway sandbox convention.
const (
	declineSuffix      = "0002"
	gatewayErrorSuffix = "0119"
)

// MockGateway simulates a payment gateway for development and tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Charge(_ context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	if !validCardDetails(req.Card) {
		return nil, fmt.Errorf("%w: invalid payment details provided", domain.ErrPaymentDeclined)
	}

	switch {
	case strings.HasSuffix(req.Card.Number, declineSuffix):
		return nil, fmt.Errorf("%w: insufficient funds", domain.ErrPaymentDeclined)
	case strings.HasSuffix(req.Card.Number, gatewayErrorSuffix):
		return nil, fmt.Errorf("%w: upstream processing error", domain.ErrPaymentGateway)
	}

	return &domain.ChargeResult{
		PaymentID:     "MOCK_PAY_" + shortID(8),
		TransactionID: "TXN_" + shortID(12),
	}, nil
}

func validCardDetails(card domain.Card) bool {
	return len(card.Number) >= 13 && len(card.Number) <= 19 &&
		strings.TrimSpace(card.HolderName) != "" &&
		len(card.Expiry) == 5 &&
		len(card.CVV) >= 3 && len(card.CVV) <= 4
}

// MaskCardNumber keeps only the last four digits for logs and receipts.
func MaskCardNumber(cardNumber string) string {
	if len(cardNumber) < 4 {
		return "****"
	}

	return "**** **** **** " + cardNumber[len(cardNumber)-4:]
}

func CardType(cardNumber string) string {
	if cardNumber == "" {
		return "Unknown"
	}

	switch cardNumber[:1] {
	case "4":
		return "Visa"
	case "5":
		return "Mastercard"
	case "3":
		return "American Express"
	case "6":
		return "Discover"
	default:
		return "Generic"
	}
}

func shortID(n int) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return id[:n]
}
