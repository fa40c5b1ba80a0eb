package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tribhuvan-Web/cinebook/api"
	"github.com/Tribhuvan-Web/cinebook/internal/booking"
	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/Tribhuvan-Web/cinebook/internal/payment"
	"github.com/Tribhuvan-Web/cinebook/internal/queue"
)

func (app *application) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.PaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	idempotencyKey := r.Header.Get(idempotencyHeader)
	if app.replayIdempotentResponse(w, r, scopePayment, idempotencyKey) {
		return
	}

	holdID, err := uuid.Parse(input.HoldId)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	if h, ok := app.holds.Get(holdID); ok && h.SessionID != sessionID {
		logger.Warn("payment attempt for a hold of another session", "hold_id", holdID)
		app.notFoundResponse(w, r)
		return
	}

	confirmed, ticketCode, err := app.bookings.Pay(r.Context(), holdID, booking.PaymentRequest{
		Method: input.Method,
		Card: domain.Card{
			Number:     input.Card.Number,
			HolderName: input.Card.HolderName,
			Expiry:     input.Card.Expiry,
			CVV:        input.Card.CVV,
		},
		IdempotencyKey: idempotencyKey,
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrHoldNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrHoldExpired):
			app.goneResponse(w, r, domain.ErrHoldExpired)
		case errors.Is(err, domain.ErrBookingNotPayable):
			app.editConflictResponseWithErr(w, r, domain.ErrBookingNotPayable)
		case errors.Is(err, domain.ErrPaymentDeclined):
			app.metrics.paymentsFailed.Add(r.Context(), 1)
			app.paymentRequiredResponse(w, r, domain.ErrPaymentDeclined)
		case errors.Is(err, domain.ErrPaymentGateway):
			app.metrics.paymentsFailed.Add(r.Context(), 1)
			app.badGatewayResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if input.Email != "" {
		app.background(func() {
			app.sendConfirmationEmail(input.Email, confirmed, ticketCode)
		})
	}

	resp := api.PaymentResponse{
		BookingId:   confirmed.ID,
		Status:      string(confirmed.Status),
		TicketCode:  ticketCode,
		Card:        payment.MaskCardNumber(input.Card.Number),
		SeatNumbers: confirmed.SeatNumbers,
		TotalAmount: confirmed.TotalAmount.StringFixed(2),
	}

	if confirmed.PaymentID != nil {
		resp.PaymentId = *confirmed.PaymentID
	}

	app.storeIdempotentResponse(r.Context(), scopePayment, idempotencyKey, http.StatusOK, resp)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// onBookingConfirmed is the booking service's confirm hook: it bumps the
// confirmation counter and publishes the booking.confirmed event.
func (app *application) onBookingConfirmed(ctx context.Context, confirmed *domain.Booking, _ string) {
	app.metrics.bookingsConfirmed.Add(ctx, 1)

	event := queue.BookingConfirmedEvent{
		BookingID:   confirmed.ID,
		HoldID:      confirmed.HoldID.String(),
		SlotID:      confirmed.SlotID,
		SeatNumbers: confirmed.SeatNumbers,
		TotalAmount: confirmed.TotalAmount.StringFixed(2),
		ConfirmedAt: time.Now().UTC(),
	}

	if confirmed.PaymentID != nil {
		event.PaymentID = *confirmed.PaymentID
	}

	err := app.publisher.Publish(ctx, queue.QueueBookingConfirmed, event)
	if err != nil {
		app.logger.Error("failed to publish booking confirmed event", "booking_id", confirmed.ID, "error", err)
	}
}

// onPaymentReversal publishes the reversal request for a charge whose hold
// expired before the seats could be committed.
func (app *application) onPaymentReversal(ctx context.Context, failed *domain.Booking, paymentID string) {
	event := queue.ReversalRequestedEvent{
		BookingID:   failed.ID,
		PaymentID:   paymentID,
		TotalAmount: failed.TotalAmount.StringFixed(2),
		RequestedAt: time.Now().UTC(),
	}

	err := app.publisher.Publish(ctx, queue.QueueReversalRequested, event)
	if err != nil {
		app.logger.Error("failed to publish payment reversal event", "booking_id", failed.ID, "payment_id", paymentID, "error", err)
	}
}

func (app *application) sendConfirmationEmail(recipient string, confirmed *domain.Booking, ticketCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slotSeats, err := app.showRepo.GetSlotSeats(ctx, confirmed.SlotID)
	if err != nil {
		app.logger.Error("failed to load slot for confirmation email", "booking_id", confirmed.ID, "error", err)
		return
	}

	data := map[string]any{
		"BookingID":   confirmed.ID,
		"MovieTitle":  slotSeats.MovieTitle,
		"TheaterName": slotSeats.TheaterName,
		"StartsAt":    slotSeats.StartsAt.Format(time.RFC1123),
		"Seats":       strings.Join(confirmed.SeatNumbers, ", "),
		"TotalAmount": confirmed.TotalAmount.StringFixed(2),
		"TicketCode":  ticketCode,
	}

	err = app.mailer.Send(recipient, "booking_confirmation.tmpl", data)
	if err != nil {
		app.logger.Error("failed to send confirmation email", "booking_id", confirmed.ID, "error", err)
	}
}
