// Package hold manages temporary seat holds: creation, the consume gate used
// before payment, explicit release, and the background expiry sweep. The
// sweep is a liveness optimization; correctness comes from the wall-clock
// checks in Consume and in the ledger's Commit.
package hold

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/Tribhuvan-Web/cinebook/internal/ledger"
)

const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithSweepInterval(interval time.Duration) Option {
	return func(m *Manager) { m.sweepInterval = interval }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithExpiryHook registers a callback fired for every hold the sweep expires,
// after its seats are back to FREE.
func WithExpiryHook(hook func(hold *domain.Hold)) Option {
	return func(m *Manager) { m.onExpire = hook }
}

type Manager struct {
	ledger        *ledger.Ledger
	shows         domain.ShowRepository
	logger        *slog.Logger
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	onExpire      func(hold *domain.Hold)

	mu        sync.Mutex
	holds     map[uuid.UUID]*domain.Hold
	bySession map[string]uuid.UUID
}

func NewManager(ledger *ledger.Ledger, shows domain.ShowRepository, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		ledger:        ledger,
		shows:         shows,
		logger:        logger,
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		holds:         make(map[uuid.UUID]*domain.Hold),
		bySession:     make(map[string]uuid.UUID),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create places a new hold on the requested seats. A session only ever owns
// one hold: any previous hold of the same session is released first. On a
// seat conflict the unavailable seat numbers are returned for client display.
func (m *Manager) Create(ctx context.Context, slotID int, seatNumbers []string, sessionID string) (*domain.Hold, []string, error) {
	slotSeats, err := m.shows.GetSlotSeatsByNumbers(ctx, slotID, seatNumbers)
	if err != nil {
		return nil, nil, err
	}

	if len(slotSeats.Seats) != len(seatNumbers) {
		return nil, nil, fmt.Errorf("%w: some of the requested seats do not exist for slot %d", domain.ErrRecordNotFound, slotID)
	}

	m.ledger.EnsureSlot(slotID, slotSeats.SeatNumbers())

	if previous, ok := m.holdBySession(sessionID); ok {
		m.Release(previous.ID)
	}

	now := m.now()
	hold := domain.NewHold(slotID, seatNumbers, sessionID, slotSeats.TotalPrice(), now, m.ttl)

	conflicts, err := m.ledger.TryHold(slotID, seatNumbers, hold.ID, hold.ExpiresAt, now)
	if err != nil {
		return nil, conflicts, err
	}

	m.mu.Lock()
	m.holds[hold.ID] = hold
	m.bySession[sessionID] = hold.ID
	m.mu.Unlock()

	m.logger.Info("hold created",
		"hold_id", hold.ID,
		"slot_id", slotID,
		"seats", seatNumbers,
		"expires_at", hold.ExpiresAt,
	)

	return hold, nil, nil
}

// Consume gates a hold for payment and claims it: exactly one caller moves an
// ACTIVE hold to PENDING, every concurrent caller for the same hold fails, so
// one hold can never produce two charges. Expiry always wins: a hold whose
// expiry has passed is expired here and now, its seats released, and the
// caller gets ErrHoldExpired no matter how close the race was.
func (m *Manager) Consume(holdID uuid.UUID) (*domain.Hold, error) {
	m.mu.Lock()
	hold, ok := m.holds[holdID]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrHoldNotFound
	}

	if hold.Status == domain.HoldStatusPending {
		m.mu.Unlock()
		return nil, domain.ErrBookingNotPayable
	}

	if hold.ExpiredAt(m.now()) {
		hold.Status = domain.HoldStatusExpired
		m.evictLocked(hold)
		m.mu.Unlock()

		m.ledger.Release(holdID)
		return nil, domain.ErrHoldExpired
	}

	hold.Status = domain.HoldStatusPending
	m.mu.Unlock()

	return hold, nil
}

// Unclaim moves a hold claimed by Consume back to ACTIVE, so payment can be
// retried after a transient failure. Only the claim winner calls this.
func (m *Manager) Unclaim(holdID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hold, ok := m.holds[holdID]; ok && hold.Status == domain.HoldStatusPending {
		hold.Status = domain.HoldStatusActive
	}
}

// MarkConsumed finalizes a hold after its seats were committed to SOLD. The
// ledger keeps the seats SOLD; the manager forgets the hold.
func (m *Manager) MarkConsumed(holdID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hold, ok := m.holds[holdID]; ok {
		hold.Status = domain.HoldStatusConsumed
		m.evictLocked(hold)
	}
}

// Release returns the hold's seats to FREE and forgets the hold. Idempotent.
func (m *Manager) Release(holdID uuid.UUID) {
	m.mu.Lock()
	if hold, ok := m.holds[holdID]; ok {
		hold.Status = domain.HoldStatusReleased
		m.evictLocked(hold)
	}
	m.mu.Unlock()

	m.ledger.Release(holdID)
}

func (m *Manager) Get(holdID uuid.UUID) (*domain.Hold, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hold, ok := m.holds[holdID]
	return hold, ok
}

func (m *Manager) GetBySession(sessionID string) (*domain.Hold, bool) {
	return m.holdBySession(sessionID)
}

// Run drives the periodic expiry sweep until the context is canceled.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep expires every overdue ACTIVE hold and releases its seats. Abandoned
// holds never lock seats past their expiry plus one sweep interval. PENDING
// holds are left alone: a payment is in flight for them and the ledger's
// Commit enforces expiry on that path.
func (m *Manager) Sweep() {
	now := m.now()

	m.mu.Lock()
	var expired []*domain.Hold
	for _, hold := range m.holds {
		if hold.Status == domain.HoldStatusActive && hold.ExpiredAt(now) {
			hold.Status = domain.HoldStatusExpired
			m.evictLocked(hold)
			expired = append(expired, hold)
		}
	}
	m.mu.Unlock()

	for _, hold := range expired {
		m.ledger.Release(hold.ID)

		m.logger.Info("hold expired by sweep", "hold_id", hold.ID, "slot_id", hold.SlotID, "seats", hold.SeatNumbers)

		if m.onExpire != nil {
			m.onExpire(hold)
		}
	}
}

// evictLocked removes a terminal hold from both indexes. The session entry is
// only dropped when it still points at this hold, since Create may already
// have replaced it. Callers hold m.mu.
func (m *Manager) evictLocked(hold *domain.Hold) {
	delete(m.holds, hold.ID)

	if id, ok := m.bySession[hold.SessionID]; ok && id == hold.ID {
		delete(m.bySession, hold.SessionID)
	}
}

func (m *Manager) holdBySession(sessionID string) (*domain.Hold, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.bySession[sessionID]
	if !ok {
		return nil, false
	}

	hold, ok := m.holds[id]
	return hold, ok
}
