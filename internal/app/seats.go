package app

import (
	"net/http"

	"github.com/Tribhuvan-Web/cinebook/api"
	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

func (app *application) GetSeatMapBySlot(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	slotID, err := app.readIntParam(r, "slotId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	slotSeats, err := app.showRepo.GetSlotSeats(r.Context(), slotID)
	if err != nil {
		switch {
		case err == domain.ErrRecordNotFound:
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if len(slotSeats.Seats) == 0 {
		logger.Warn("seat map not found for slot", "slot_id", slotID)
		app.notFoundResponse(w, r)
		return
	}

	app.seatLedger.EnsureSlot(slotID, slotSeats.SeatNumbers())
	statuses := app.seatLedger.SeatStatuses(slotID, app.now())

	resp := toSeatMapResponse(slotSeats, statuses)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(slotSeats *domain.SlotSeats, statuses map[string]domain.SeatStatus) api.SeatMapResponse {
	seats := make([]api.SeatResponse, len(slotSeats.Seats))

	for i, seat := range slotSeats.Seats {
		status, ok := statuses[seat.Number]
		if !ok {
			status = domain.SeatFree
		}

		seats[i] = api.SeatResponse{
			Number: seat.Number,
			Type:   seat.Type,
			Price:  seat.Price.StringFixed(2),
			Status: string(status),
		}
	}

	return api.SeatMapResponse{
		SlotId:      slotSeats.SlotID,
		MovieTitle:  slotSeats.MovieTitle,
		TheaterName: slotSeats.TheaterName,
		ScreenType:  slotSeats.ScreenType,
		StartsAt:    slotSeats.StartsAt,
		Seats:       seats,
	}
}
