package app

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Tribhuvan-Web/cinebook/internal/idempotency"
)

const (
	idempotencyHeader = "Idempotency-Key"

	scopeSelection = "selection"
	scopePayment   = "payment"
)

// replayIdempotentResponse writes the stored response for a previously seen
// idempotency key. Returns false when the request should be processed.
func (app *application) replayIdempotentResponse(w http.ResponseWriter, r *http.Request, scope, key string) bool {
	if key == "" {
		return false
	}

	stored, err := app.idempotency.Get(r.Context(), scope, key)
	if err != nil {
		// A broken idempotency store must not block the request itself.
		app.contextGetLogger(r).Error("failed to check idempotency store", "scope", scope, "error", err)
		return false
	}

	if stored == nil {
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotency-Replayed", "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)

	return true
}

func (app *application) storeIdempotentResponse(ctx context.Context, scope, key string, status int, data any) {
	if key == "" {
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		app.logger.Error("failed to marshal idempotent response", "scope", scope, "error", err)
		return
	}

	err = app.idempotency.Set(ctx, scope, key, idempotency.Response{Status: status, Body: body})
	if err != nil {
		app.logger.Error("failed to store idempotent response", "scope", scope, "error", err)
	}
}
