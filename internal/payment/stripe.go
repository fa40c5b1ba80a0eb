package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

// StripeGateway charges through Stripe PaymentIntents. Card details are
// mapped to Stripe test payment methods by brand; production deployments are
// expected to pass a tokenized payment method instead of raw card data.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (s *StripeGateway) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	amountCents := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Confirm:       stripe.Bool(true),
		PaymentMethod: stripe.String(testPaymentMethod(req.Card.Number)),
		Description:   stripe.String(fmt.Sprintf("cinebook booking %s", req.Reference)),
		Metadata: map[string]string{
			"hold_id": req.Reference,
			"method":  req.Method,
		},
	}
	params.Context = ctx

	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeCardDeclined {
			return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, stripeErr.Msg)
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentGateway, err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment intent status %s", domain.ErrPaymentDeclined, intent.Status)
	}

	result := &domain.ChargeResult{
		PaymentID: intent.ID,
	}
	if intent.LatestCharge != nil {
		result.TransactionID = intent.LatestCharge.ID
	}

	return result, nil
}

func testPaymentMethod(cardNumber string) string {
	switch CardType(cardNumber) {
	case "Mastercard":
		return "pm_card_mastercard"
	case "American Express":
		return "pm_card_amex"
	case "Discover":
		return "pm_card_discover"
	default:
		return "pm_card_visa"
	}
}
