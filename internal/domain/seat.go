package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SeatStatus string

const (
	SeatFree SeatStatus = "FREE"
	SeatHeld SeatStatus = "HELD"
	SeatSold SeatStatus = "SOLD"
)

// SlotSeats is the pricing and display information for a set of seats in a
// showtime slot, as loaded from the catalog.
type SlotSeats struct {
	SlotID      int
	MovieTitle  string
	TheaterName string
	ScreenType  string
	StartsAt    time.Time
	Seats       []SlotSeat
}

type SlotSeat struct {
	Number string
	Type   string
	Price  decimal.Decimal
}

// SeatNumbers returns seat numbers in catalog order.
func (s *SlotSeats) SeatNumbers() []string {
	numbers := make([]string, len(s.Seats))
	for i, seat := range s.Seats {
		numbers[i] = seat.Number
	}

	return numbers
}

func (s *SlotSeats) TotalPrice() decimal.Decimal {
	total := decimal.Zero

	for _, seat := range s.Seats {
		total = total.Add(seat.Price)
	}

	return total
}

type ShowRepository interface {
	GetSlotSeats(ctx context.Context, slotID int) (*SlotSeats, error)
	GetSlotSeatsByNumbers(ctx context.Context, slotID int, seatNumbers []string) (*SlotSeats, error)
}
