package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusHeld      BookingStatus = "HELD"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusFailed    BookingStatus = "FAILED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// bookingTransitions is the full transition table of the booking state
// machine. CONFIRMED, FAILED and EXPIRED are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusHeld: {BookingStatusPaid, BookingStatusFailed, BookingStatusExpired},
	BookingStatusPaid: {BookingStatusConfirmed, BookingStatusFailed},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// PriorBookingStatuses returns the statuses a booking row may hold when it is
// written with status target: the machine's transitions into target, plus
// target itself for in-place updates such as ticket verification. Repositories
// use this to keep a durable record from regressing out of a terminal state.
func PriorBookingStatuses(target BookingStatus) []BookingStatus {
	priors := []BookingStatus{target}

	for from, allowed := range bookingTransitions {
		for _, to := range allowed {
			if to == target {
				priors = append(priors, from)
			}
		}
	}

	return priors
}

// Booking tracks a hold through payment to confirmation.
type Booking struct {
	ID             int
	HoldID         uuid.UUID
	SessionID      string
	SlotID         int
	SeatNumbers    []string
	TotalAmount    decimal.Decimal
	Status         BookingStatus
	PaymentMethod  *string
	PaymentID      *string
	FailureReason  *string
	IdempotencyKey *string
	TicketHash     []byte
	Verified       bool
	VerifiedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SoldSeat is one committed seat row, used to rebuild the ledger at startup.
type SoldSeat struct {
	SlotID     int
	SeatNumber string
	HoldID     uuid.UUID
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetByHoldID(ctx context.Context, holdID uuid.UUID) (*Booking, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]Booking, error)
	Update(ctx context.Context, booking *Booking) error
	GetSoldSeats(ctx context.Context) ([]SoldSeat, error)
}
