package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(otelchi.Middleware("cinebook-api", otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)
	r.Use(app.requestLogger)
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(app.ensureGuestUserSession)

	r.Get("/health", app.GetHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/slots/{slotId}", func(r chi.Router) {
			r.Get("/seats", app.GetSeatMapBySlot)
			r.Post("/selection", app.CreateSelectionHandler)
			r.Delete("/selection", app.DeleteSelectionHandler)
		})

		r.Post("/payments", app.CreatePaymentHandler)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", app.GetBookingsHandler)
			r.Get("/{bookingId}", app.GetBookingByIdHandler)
		})

		r.Post("/tickets/verify", app.VerifyTicketHandler)
	})

	return r
}
