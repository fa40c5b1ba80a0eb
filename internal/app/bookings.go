package app

import (
	"errors"
	"net/http"

	"github.com/Tribhuvan-Web/cinebook/api"
	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

func (app *application) GetBookingsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := app.sessionManager.Token(r.Context())

	bookings, err := app.bookingRepo.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.BookingSummaryResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = api.BookingSummaryResponse{
			BookingId:   b.ID,
			SlotId:      b.SlotID,
			SeatNumbers: b.SeatNumbers,
			TotalAmount: b.TotalAmount.StringFixed(2),
			Status:      string(b.Status),
			CreatedAt:   b.CreatedAt,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetBookingByIdHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIntParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.bookingRepo.GetByID(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	sessionID := app.sessionManager.Token(r.Context())
	if b.SessionID != sessionID {
		// Bookings of other sessions are indistinguishable from missing ones.
		app.notFoundResponse(w, r)
		return
	}

	resp := api.BookingDetailResponse{
		BookingId:     b.ID,
		SlotId:        b.SlotID,
		SeatNumbers:   b.SeatNumbers,
		TotalAmount:   b.TotalAmount.StringFixed(2),
		Status:        string(b.Status),
		PaymentMethod: b.PaymentMethod,
		FailureReason: b.FailureReason,
		Verified:      b.Verified,
		VerifiedAt:    b.VerifiedAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) VerifyTicketHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.TicketVerificationRequest

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

	b, err := app.bookings.VerifyTicket(r.Context(), input.BookingId, input.TicketCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrTicketCodeMismatch):
			logger.Warn("ticket verification rejected", "booking_id", input.BookingId)
			app.unprocessableEntityResponse(w, r, domain.ErrTicketCodeMismatch)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := api.TicketVerificationResponse{
		BookingId:  b.ID,
		Verified:   b.Verified,
		VerifiedAt: b.VerifiedAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
