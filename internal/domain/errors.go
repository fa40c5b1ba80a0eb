package domain

import "errors"

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrSeatConflict       = errors.New("seat(s) are already held or sold")
	ErrHoldNotFound       = errors.New("hold not found")
	ErrHoldExpired        = errors.New("hold has expired, please select your seats again")
	ErrBookingNotPayable  = errors.New("booking is not payable in its current state")
	ErrPaymentDeclined    = errors.New("payment was declined")
	ErrPaymentGateway     = errors.New("payment gateway error")
	ErrTicketCodeMismatch = errors.New("ticket code does not match")
	ErrDuplicateBooking   = errors.New("a booking with this idempotency key already exists")
	ErrEditConflict       = errors.New("unable to update the record due to an edit conflict, please try again")

	// ErrLedgerInconsistent marks an integrity fault that must never be
	// silently recovered; callers surface it for manual reconciliation.
	ErrLedgerInconsistent = errors.New("seat ledger inconsistency detected")
)
