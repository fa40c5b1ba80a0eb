package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Tribhuvan-Web/cinebook/api"
	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

func (app *application) CreateSelectionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	slotID, err := app.readIntParam(r, "slotId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.SeatSelectionRequest

	err = app.readJSON(w, r, &input)
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
	if app.replayIdempotentResponse(w, r, scopeSelection, idempotencyKey) {
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	hold, conflicts, err := app.holds.Create(r.Context(), slotID, input.SeatNumbers, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			logger.Warn("seat selection for unknown slot or seats", "slot_id", slotID, "seats", input.SeatNumbers)
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrSeatConflict):
			logger.Warn("seat selection conflict", "slot_id", slotID, "conflicts", conflicts)
			app.metrics.holdConflicts.Add(r.Context(), 1)
			app.editConflictResponseWithErr(w, r, fmt.Errorf("seats already held or sold: %s", strings.Join(conflicts, ", ")))
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	booking, err := app.bookings.Begin(r.Context(), hold, idempotencyKey)
	if err != nil {
		app.holds.Release(hold.ID)

		switch {
		case errors.Is(err, domain.ErrDuplicateBooking):
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.metrics.holdsCreated.Add(r.Context(), 1)

	logger.Info("booking opened", "booking_id", booking.ID, "hold_id", hold.ID)

	resp := api.SelectionResponse{
		HoldId:      hold.ID.String(),
		SlotId:      hold.SlotID,
		SeatNumbers: hold.SeatNumbers,
		TotalAmount: hold.TotalAmount.StringFixed(2),
		Status:      string(hold.Status),
		ExpiresAt:   hold.ExpiresAt,
	}

	app.storeIdempotentResponse(r.Context(), scopeSelection, idempotencyKey, http.StatusCreated, resp)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) DeleteSelectionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	slotID, err := app.readIntParam(r, "slotId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	hold, ok := app.holds.GetBySession(sessionID)
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	if hold.SlotID != slotID {
		logger.Warn(
			"selection deletion attempt with mismatched slot ID in URL",
			"hold_slot_id", hold.SlotID,
			"url_slot_id", slotID,
		)
		app.notFoundResponse(w, r)
		return
	}

	app.holds.Release(hold.ID)
	app.bookings.Cancel(r.Context(), hold.ID)

	w.WriteHeader(http.StatusNoContent)
}
