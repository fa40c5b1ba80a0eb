// Package api holds the request and response types of the HTTP surface.
package api

import "time"

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidationErrorDetail describes a single invalid field.
type ValidationErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned when request validation fails.
type ValidationErrorResponse struct {
	Message   string                  `json:"message"`
	Errors    []ValidationErrorDetail `json:"errors"`
	RequestId string                  `json:"requestId,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// HealthCheckResponse reports service liveness and build metadata.
type HealthCheckResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// SeatResponse is one seat in a slot's seat map.
type SeatResponse struct {
	Number string `json:"number"`
	Type   string `json:"type"`
	Price  string `json:"price"`
	Status string `json:"status"`
}

// SeatMapResponse is the availability snapshot of a slot.
type SeatMapResponse struct {
	SlotId      int            `json:"slotId"`
	MovieTitle  string         `json:"movieTitle"`
	TheaterName string         `json:"theaterName"`
	ScreenType  string         `json:"screenType"`
	StartsAt    time.Time      `json:"startsAt"`
	Seats       []SeatResponse `json:"seats"`
}

// SeatSelectionRequest starts a hold on the listed seats.
type SeatSelectionRequest struct {
	SeatNumbers []string `json:"seatNumbers" validate:"required,min=1,max=10,unique,dive,seat_number"`
}

// SelectionResponse describes the hold created for a seat selection.
type SelectionResponse struct {
	HoldId      string    `json:"holdId"`
	SlotId      int       `json:"slotId"`
	SeatNumbers []string  `json:"seatNumbers"`
	TotalAmount string    `json:"totalAmount"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// CardRequest carries the card details for a payment.
type CardRequest struct {
	Number     string `json:"number" validate:"required,card_number"`
	HolderName string `json:"holderName" validate:"required,min=2,max=100"`
	Expiry     string `json:"expiry" validate:"required,card_expiry"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

// PaymentRequest settles the caller's active hold. Email is optional; when
// set, the confirmation mail goes there.
type PaymentRequest struct {
	HoldId string      `json:"holdId" validate:"required,uuid"`
	Method string      `json:"method" validate:"required,oneof=CARD"`
	Card   CardRequest `json:"card" validate:"required"`
	Email  string      `json:"email" validate:"omitempty,email"`
}

// PaymentResponse is returned after a successful payment. TicketCode is
// shown only here; afterwards only its hash is kept. Card carries the masked
// card number for the receipt, never the full one.
type PaymentResponse struct {
	BookingId   int      `json:"bookingId"`
	Status      string   `json:"status"`
	TicketCode  string   `json:"ticketCode"`
	PaymentId   string   `json:"paymentId,omitempty"`
	Card        string   `json:"card,omitempty"`
	SeatNumbers []string `json:"seatNumbers"`
	TotalAmount string   `json:"totalAmount"`
}

// BookingSummaryResponse is one row of a session's booking history.
type BookingSummaryResponse struct {
	BookingId   int       `json:"bookingId"`
	SlotId      int       `json:"slotId"`
	SeatNumbers []string  `json:"seatNumbers"`
	TotalAmount string    `json:"totalAmount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookingDetailResponse is the full view of one booking.
type BookingDetailResponse struct {
	BookingId     int        `json:"bookingId"`
	SlotId        int        `json:"slotId"`
	SeatNumbers   []string   `json:"seatNumbers"`
	TotalAmount   string     `json:"totalAmount"`
	Status        string     `json:"status"`
	PaymentMethod *string    `json:"paymentMethod,omitempty"`
	FailureReason *string    `json:"failureReason,omitempty"`
	Verified      bool       `json:"verified"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TicketVerificationRequest checks a ticket code against a booking.
type TicketVerificationRequest struct {
	BookingId  int    `json:"bookingId" validate:"required,gt=0"`
	TicketCode string `json:"ticketCode" validate:"required,min=8,max=64"`
}

// TicketVerificationResponse reports the outcome of a ticket check.
type TicketVerificationResponse struct {
	BookingId  int        `json:"bookingId"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}
