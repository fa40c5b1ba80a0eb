package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type HoldStatus string

const (
	HoldStatusActive   HoldStatus = "ACTIVE"
	HoldStatusPending  HoldStatus = "PENDING"
	HoldStatusConsumed HoldStatus = "CONSUMED"
	HoldStatusExpired  HoldStatus = "EXPIRED"
	HoldStatusReleased HoldStatus = "RELEASED"
)

// Hold is a time-bounded claim on a set of seats, not yet paid for. Seat
// numbers keep their selection order so clients can display them as chosen.
type Hold struct {
	ID          uuid.UUID
	SlotID      int
	SeatNumbers []string
	SessionID   string
	TotalAmount decimal.Decimal
	Status      HoldStatus
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func NewHold(slotID int, seatNumbers []string, sessionID string, totalAmount decimal.Decimal, now time.Time, ttl time.Duration) *Hold {
	return &Hold{
		ID:          uuid.New(),
		SlotID:      slotID,
		SeatNumbers: seatNumbers,
		SessionID:   sessionID,
		TotalAmount: totalAmount,
		Status:      HoldStatusActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func (h *Hold) ExpiredAt(now time.Time) bool {
	return now.After(h.ExpiresAt)
}
