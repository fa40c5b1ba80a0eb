package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/Tribhuvan-Web/cinebook/api"
	"github.com/Tribhuvan-Web/cinebook/internal/booking"
	"github.com/Tribhuvan-Web/cinebook/internal/hold"
	"github.com/Tribhuvan-Web/cinebook/internal/ledger"
	"github.com/Tribhuvan-Web/cinebook/internal/mailer"
	"github.com/Tribhuvan-Web/cinebook/internal/mocks"
	"github.com/Tribhuvan-Web/cinebook/internal/queue"
	"github.com/Tribhuvan-Web/cinebook/internal/validator"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testDeps bundles the mocks and fakes behind a test application.
type testDeps struct {
	showRepo    *mocks.MockShowRepo
	bookingRepo *mocks.MockBookingRepo
	gateway     *mocks.MockPaymentGateway
	clock       *fakeClock
}

func newTestApplication(opts ...func(*application)) (*application, *testDeps) {
	deps := &testDeps{
		showRepo:    new(mocks.MockShowRepo),
		bookingRepo: new(mocks.MockBookingRepo),
		gateway:     new(mocks.MockPaymentGateway),
		clock:       newFakeClock(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &application{
		validator:      validator.NewValidator(),
		logger:         logger,
		mailer:         &mailer.MockMailer{},
		sessionManager: scs.New(),
		now:            deps.clock.Now,
		showRepo:       deps.showRepo,
		bookingRepo:    deps.bookingRepo,
		seatLedger:     ledger.New(),
		publisher:      queue.NoopPublisher{},
	}

	app.metrics, _ = newMetrics()

	app.holds = hold.NewManager(app.seatLedger, deps.showRepo, logger, hold.WithClock(deps.clock.Now))
	app.bookings = booking.NewService(app.holds, app.seatLedger, deps.bookingRepo, deps.gateway, logger,
		booking.WithClock(deps.clock.Now))

	for _, opt := range opts {
		opt(app)
	}

	return app, deps
}

func setupTestSession(t *testing.T, app *application, r *http.Request) *http.Request {
	t.Helper()

	ctx, err := app.sessionManager.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}

	return r.WithContext(ctx)
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// withUrlParam injects a chi route parameter into the request context, so
// handlers can be tested without mounting the full router.
func withUrlParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeErrorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var errorResp api.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}

	return errorResp.Message
}

func ptr[T any](v T) *T {
	return &v
}
