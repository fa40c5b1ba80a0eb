// Package booking drives a booking through HELD, PAID and the terminal
// CONFIRMED, FAILED and EXPIRED states. Payment and seat commitment change
// together or not at all: a booking only confirms after the gateway reported
// success AND the ledger committed its seats to SOLD.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/Tribhuvan-Web/cinebook/internal/hold"
	"github.com/Tribhuvan-Web/cinebook/internal/ledger"
)

const (
	failureDeclined    = "payment_declined"
	failureGateway     = "payment_gateway_error"
	failureExpiredRace = "hold_expired_before_seat_commit"
	failureHoldExpired = "hold_expired"
	failureReleased    = "hold_released"
	ticketSecretBytes  = 8
	ticketSecretCost   = bcrypt.DefaultCost
	currencyUSD        = "USD"
)

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConfirmHook runs after a booking reaches CONFIRMED. Used for the
// confirmation email and the booking.confirmed event; failures there never
// affect the booking.
func WithConfirmHook(hook func(ctx context.Context, booking *domain.Booking, ticketCode string)) Option {
	return func(s *Service) { s.onConfirmed = hook }
}

// WithReversalHook runs when a payment succeeded but the seat commit lost the
// expiry race. The payment must be reversed by the gateway collaborator; the
// core only reports it.
func WithReversalHook(hook func(ctx context.Context, booking *domain.Booking, paymentID string)) Option {
	return func(s *Service) { s.onReversal = hook }
}

type Service struct {
	holds    *hold.Manager
	ledger   *ledger.Ledger
	bookings domain.BookingRepository
	gateway  domain.PaymentGateway
	logger   *slog.Logger
	now      func() time.Time

	onConfirmed func(ctx context.Context, booking *domain.Booking, ticketCode string)
	onReversal  func(ctx context.Context, booking *domain.Booking, paymentID string)
}

func NewService(
	holds *hold.Manager,
	ledger *ledger.Ledger,
	bookings domain.BookingRepository,
	gateway domain.PaymentGateway,
	logger *slog.Logger,
	opts ...Option) *Service {

	s := &Service{
		holds:    holds,
		ledger:   ledger,
		bookings: bookings,
		gateway:  gateway,
		logger:   logger,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Begin creates the booking record for a freshly placed hold, in state HELD.
func (s *Service) Begin(ctx context.Context, h *domain.Hold, idempotencyKey string) (*domain.Booking, error) {
	booking := &domain.Booking{
		HoldID:      h.ID,
		SessionID:   h.SessionID,
		SlotID:      h.SlotID,
		SeatNumbers: h.SeatNumbers,
		TotalAmount: h.TotalAmount,
		Status:      domain.BookingStatusHeld,
	}

	if idempotencyKey != "" {
		booking.IdempotencyKey = &idempotencyKey
	}

	err := s.bookings.Create(ctx, booking)
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// PaymentRequest carries the client's payment submission for a held booking.
type PaymentRequest struct {
	Method         string
	Card           domain.Card
	IdempotencyKey string
}

// Pay converts a held booking into a confirmed one. The gateway is called
// without any ledger lock held. Failure paths:
//   - hold expired before payment: booking EXPIRED
//   - gateway declined or errored: booking FAILED, seats released immediately
//   - payment succeeded but the hold expired before seat commit: booking
//     FAILED and the payment is reported for reversal
func (s *Service) Pay(ctx context.Context, holdID uuid.UUID, req PaymentRequest) (*domain.Booking, string, error) {
	booking, err := s.bookings.GetByHoldID(ctx, holdID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, "", domain.ErrHoldNotFound
		}
		return nil, "", err
	}

	if booking.Status != domain.BookingStatusHeld {
		return booking, "", domain.ErrBookingNotPayable
	}

	h, err := s.holds.Consume(holdID)
	if err != nil {
		if errors.Is(err, domain.ErrHoldExpired) {
			s.expire(ctx, booking)
		}
		return nil, "", err
	}

	result, chargeErr := s.gateway.Charge(ctx, domain.ChargeRequest{
		Amount:         booking.TotalAmount,
		Currency:       currencyUSD,
		Method:         req.Method,
		Card:           req.Card,
		Reference:      h.ID.String(),
		IdempotencyKey: req.IdempotencyKey,
	})

	if chargeErr != nil {
		reason := failureGateway
		if errors.Is(chargeErr, domain.ErrPaymentDeclined) {
			reason = failureDeclined
		}

		s.fail(ctx, booking, reason, nil)
		s.holds.Release(holdID)

		if errors.Is(chargeErr, domain.ErrPaymentDeclined) {
			return nil, "", chargeErr
		}
		return nil, "", fmt.Errorf("%w: %v", domain.ErrPaymentGateway, chargeErr)
	}

	err = s.transition(ctx, booking, domain.BookingStatusPaid, func(b *domain.Booking) {
		b.PaymentMethod = &req.Method
		b.PaymentID = &result.PaymentID
	})
	if err != nil {
		s.holds.Unclaim(holdID)
		return nil, "", err
	}

	err = s.ledger.Commit(holdID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrHoldExpired) || errors.Is(err, domain.ErrHoldNotFound) {
			// Payment succeeded but the hold expired first. Expiry wins; the
			// charge is handed over for reversal.
			s.fail(ctx, booking, failureExpiredRace, &result.PaymentID)
			s.holds.Release(holdID)
			s.reportReversal(ctx, booking, result.PaymentID)
			return nil, "", domain.ErrHoldExpired
		}

		s.logger.Error("seat commit failed after successful payment", "hold_id", holdID, "error", err)
		return nil, "", err
	}

	s.holds.MarkConsumed(holdID)

	ticketCode, ticketHash, err := newTicketSecret()
	if err != nil {
		return nil, "", err
	}

	err = s.transition(ctx, booking, domain.BookingStatusConfirmed, func(b *domain.Booking) {
		b.TicketHash = ticketHash
	})
	if err != nil {
		// Seats are SOLD but the durable record failed to update; this must
		// not be silently recovered.
		return nil, "", fmt.Errorf("%w: booking %d confirm write failed: %v", domain.ErrLedgerInconsistent, booking.ID, err)
	}

	s.logger.Info("booking confirmed",
		"booking_id", booking.ID,
		"hold_id", holdID,
		"slot_id", booking.SlotID,
		"seats", booking.SeatNumbers,
		"payment_id", result.PaymentID,
	)

	if s.onConfirmed != nil {
		s.onConfirmed(ctx, booking, ticketCode)
	}

	return booking, ticketCode, nil
}

// ExpireFromSweep moves a held booking to EXPIRED once the sweep expired its
// hold. Wired as the hold manager's expiry hook.
func (s *Service) ExpireFromSweep(h *domain.Hold) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	booking, err := s.bookings.GetByHoldID(ctx, h.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Error("failed to load booking for expired hold", "hold_id", h.ID, "error", err)
		}
		return
	}

	if booking.Status == domain.BookingStatusHeld {
		s.expire(ctx, booking)
	}
}

// Cancel expires the held booking of a hold the session released on purpose.
func (s *Service) Cancel(ctx context.Context, holdID uuid.UUID) {
	booking, err := s.bookings.GetByHoldID(ctx, holdID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Error("failed to load booking for released hold", "hold_id", holdID, "error", err)
		}
		return
	}

	if booking.Status != domain.BookingStatusHeld {
		return
	}

	reason := failureReleased
	err = s.transition(ctx, booking, domain.BookingStatusExpired, func(b *domain.Booking) {
		b.FailureReason = &reason
	})
	if err != nil {
		s.logger.Error("failed to cancel booking", "booking_id", booking.ID, "error", err)
	}
}

// VerifyTicket checks a ticket code against the stored hash and marks the
// booking verified. A booking verifies at most once.
func (s *Service) VerifyTicket(ctx context.Context, bookingID int, ticketCode string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusConfirmed || booking.Verified {
		return nil, domain.ErrTicketCodeMismatch
	}

	err = bcrypt.CompareHashAndPassword(booking.TicketHash, []byte(strings.TrimSpace(ticketCode)))
	if err != nil {
		return nil, domain.ErrTicketCodeMismatch
	}

	now := s.now()
	booking.Verified = true
	booking.VerifiedAt = &now

	err = s.bookings.Update(ctx, booking)
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (s *Service) expire(ctx context.Context, booking *domain.Booking) {
	reason := failureHoldExpired
	err := s.transition(ctx, booking, domain.BookingStatusExpired, func(b *domain.Booking) {
		b.FailureReason = &reason
	})
	if err != nil {
		s.logger.Error("failed to expire booking", "booking_id", booking.ID, "error", err)
	}
}

func (s *Service) fail(ctx context.Context, booking *domain.Booking, reason string, paymentID *string) {
	err := s.transition(ctx, booking, domain.BookingStatusFailed, func(b *domain.Booking) {
		b.FailureReason = &reason
		if paymentID != nil {
			b.PaymentID = paymentID
		}
	})
	if err != nil {
		s.logger.Error("failed to fail booking", "booking_id", booking.ID, "reason", reason, "error", err)
	}
}

func (s *Service) transition(ctx context.Context, booking *domain.Booking, to domain.BookingStatus, mutate func(*domain.Booking)) error {
	if !booking.Status.CanTransitionTo(to) {
		return fmt.Errorf("invalid booking transition %s -> %s", booking.Status, to)
	}

	booking.Status = to
	if mutate != nil {
		mutate(booking)
	}

	return s.bookings.Update(ctx, booking)
}

func (s *Service) reportReversal(ctx context.Context, booking *domain.Booking, paymentID string) {
	s.logger.Warn("payment requires reversal: hold expired after successful charge",
		"booking_id", booking.ID,
		"payment_id", paymentID,
	)

	if s.onReversal != nil {
		s.onReversal(ctx, booking, paymentID)
	}
}

func newTicketSecret() (string, []byte, error) {
	buf := make([]byte, ticketSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, err
	}

	code := "TKT-" + strings.ToUpper(hex.EncodeToString(buf))

	hash, err := bcrypt.GenerateFromPassword([]byte(code), ticketSecretCost)
	if err != nil {
		return "", nil, err
	}

	return code, hash, nil
}
