package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const loggerContextKey = contextKey("logger")

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestLogger stows a request-scoped logger carrying the request id.
func (app *application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.logger.With("request_id", middleware.GetReqID(r.Context()))

		ctx := context.WithValue(r.Context(), loggerContextKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(loggerContextKey).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}

func (app *application) ensureGuestUserSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionId := app.sessionManager.Token(r.Context())

		if sessionId == "" {
			app.sessionManager.Put(r.Context(), SessionKeyGuest.String(), true)

			_, _, err := app.sessionManager.Commit(r.Context())
			if err != nil {
				app.serverErrorResponse(w, r, err)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
