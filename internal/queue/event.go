// Package queue defines the events published to the message broker and the
// AMQP publisher that delivers them.
package queue

import "time"

const (
	QueueBookingConfirmed  = "booking.confirmed"
	QueueReversalRequested = "payment.reversal_requested"
)

// BookingConfirmedEvent carries enough for downstream consumers (tickets,
// notifications, analytics) to act without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   int       `json:"booking_id"`
	HoldID      string    `json:"hold_id"`
	SlotID      int       `json:"slot_id"`
	SeatNumbers []string  `json:"seats"`
	TotalAmount string    `json:"total_amount"`
	PaymentID   string    `json:"payment_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// ReversalRequestedEvent is published when a charge succeeded but the seats
// could not be committed; the payment collaborator must reverse the charge.
type ReversalRequestedEvent struct {
	BookingID   int       `json:"booking_id"`
	PaymentID   string    `json:"payment_id"`
	TotalAmount string    `json:"total_amount"`
	RequestedAt time.Time `json:"requested_at"`
}
