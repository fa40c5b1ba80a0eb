package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

var seatNumbers = []string{"A1", "A2", "A3", "B1"}

func newTestLedger() *Ledger {
	l := New()
	l.EnsureSlot(1, seatNumbers)

	return l
}

func TestEnsureSlotIsIdempotent(t *testing.T) {
	l := newTestLedger()
	now := time.Now()

	_, err := l.TryHold(1, []string{"A1"}, uuid.New(), now.Add(10*time.Minute), now)
	require.NoError(t, err)

	l.EnsureSlot(1, seatNumbers)

	statuses := l.SeatStatuses(1, now)
	assert.Equal(t, domain.SeatHeld, statuses["A1"])
	assert.Equal(t, domain.SeatFree, statuses["A2"])
}

func TestTryHoldIsAllOrNothing(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	expiresAt := now.Add(10 * time.Minute)

	_, err := l.TryHold(1, []string{"A1", "A2"}, uuid.New(), expiresAt, now)
	require.NoError(t, err)

	conflicts, err := l.TryHold(1, []string{"A3", "A2", "A1"}, uuid.New(), expiresAt, now)
	require.ErrorIs(t, err, domain.ErrSeatConflict)
	assert.Equal(t, []string{"A1", "A2"}, conflicts)

	// The non-conflicting seat of the failed request must stay free.
	statuses := l.SeatStatuses(1, now)
	assert.Equal(t, domain.SeatFree, statuses["A3"])
}

func TestTryHoldUnknownSeat(t *testing.T) {
	l := newTestLedger()
	now := time.Now()

	_, err := l.TryHold(1, []string{"Z9"}, uuid.New(), now.Add(10*time.Minute), now)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestTryHoldTakesOverExpiredHold(t *testing.T) {
	l := newTestLedger()
	now := time.Now()

	staleHold := uuid.New()
	_, err := l.TryHold(1, []string{"A1", "A2"}, staleHold, now.Add(10*time.Minute), now)
	require.NoError(t, err)

	later := now.Add(11 * time.Minute)

	newHold := uuid.New()
	conflicts, err := l.TryHold(1, []string{"A1", "A2"}, newHold, later.Add(10*time.Minute), later)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// The stale hold lost its seats, so committing it must fail.
	err = l.Commit(staleHold, later)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)

	err = l.Commit(newHold, later)
	assert.NoError(t, err)
}

func TestCommit(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	holdID := uuid.New()

	_, err := l.TryHold(1, []string{"A1", "A2"}, holdID, now.Add(10*time.Minute), now)
	require.NoError(t, err)

	err = l.Commit(holdID, now.Add(time.Minute))
	require.NoError(t, err)

	statuses := l.SeatStatuses(1, now.Add(time.Minute))
	assert.Equal(t, domain.SeatSold, statuses["A1"])
	assert.Equal(t, domain.SeatSold, statuses["A2"])

	// Sold seats never become holdable again.
	conflicts, err := l.TryHold(1, []string{"A1"}, uuid.New(), now.Add(20*time.Minute), now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
	assert.Equal(t, []string{"A1"}, conflicts)
}

func TestCommitExpiredHold(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	holdID := uuid.New()

	_, err := l.TryHold(1, []string{"A1"}, holdID, now.Add(10*time.Minute), now)
	require.NoError(t, err)

	err = l.Commit(holdID, now.Add(11*time.Minute))
	assert.ErrorIs(t, err, domain.ErrHoldExpired)

	statuses := l.SeatStatuses(1, now.Add(11*time.Minute))
	assert.Equal(t, domain.SeatFree, statuses["A1"])
}

func TestCommitUnknownHold(t *testing.T) {
	l := newTestLedger()

	err := l.Commit(uuid.New(), time.Now())
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestCommitTwice(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	holdID := uuid.New()

	_, err := l.TryHold(1, []string{"A1"}, holdID, now.Add(10*time.Minute), now)
	require.NoError(t, err)

	require.NoError(t, l.Commit(holdID, now))

	err = l.Commit(holdID, now)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestRelease(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	holdID := uuid.New()

	_, err := l.TryHold(1, []string{"A1", "A2"}, holdID, now.Add(10*time.Minute), now)
	require.NoError(t, err)

	l.Release(holdID)

	statuses := l.SeatStatuses(1, now)
	assert.Equal(t, domain.SeatFree, statuses["A1"])
	assert.Equal(t, domain.SeatFree, statuses["A2"])

	// Releasing again is a no-op.
	l.Release(holdID)

	err = l.Commit(holdID, now)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestReleaseAfterCommitKeepsSeatsSold(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	holdID := uuid.New()

	_, err := l.TryHold(1, []string{"A1"}, holdID, now.Add(10*time.Minute), now)
	require.NoError(t, err)
	require.NoError(t, l.Commit(holdID, now))

	l.Release(holdID)

	statuses := l.SeatStatuses(1, now)
	assert.Equal(t, domain.SeatSold, statuses["A1"])
}

func TestMarkSold(t *testing.T) {
	l := New()
	holdID := uuid.New()

	l.EnsureSlot(7, []string{"C1", "C2"})
	l.MarkSold(7, []string{"C1"}, holdID)

	statuses := l.SeatStatuses(7, time.Now())
	assert.Equal(t, domain.SeatSold, statuses["C1"])
	assert.Equal(t, domain.SeatFree, statuses["C2"])
}

func TestSeatStatusesReportsExpiredHoldsAsFree(t *testing.T) {
	l := newTestLedger()
	now := time.Now()

	_, err := l.TryHold(1, []string{"A1"}, uuid.New(), now.Add(10*time.Minute), now)
	require.NoError(t, err)

	assert.Equal(t, domain.SeatHeld, l.SeatStatuses(1, now)["A1"])
	assert.Equal(t, domain.SeatFree, l.SeatStatuses(1, now.Add(11*time.Minute))["A1"])
}

func TestConcurrentTryHoldSameSeats(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	expiresAt := now.Add(10 * time.Minute)

	const attempts = 64

	var wg sync.WaitGroup
	successes := make(chan uuid.UUID, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			holdID := uuid.New()
			_, err := l.TryHold(1, []string{"A1", "A2"}, holdID, expiresAt, now)
			if err == nil {
				successes <- holdID
			}
		}()
	}

	wg.Wait()
	close(successes)

	var winners []uuid.UUID
	for holdID := range successes {
		winners = append(winners, holdID)
	}

	require.Len(t, winners, 1, "exactly one concurrent hold attempt must win")

	statuses := l.SeatStatuses(1, now)
	assert.Equal(t, domain.SeatHeld, statuses["A1"])
	assert.Equal(t, domain.SeatHeld, statuses["A2"])

	assert.NoError(t, l.Commit(winners[0], now))
}

func TestConcurrentHoldAndRelease(t *testing.T) {
	l := newTestLedger()
	now := time.Now()
	expiresAt := now.Add(10 * time.Minute)

	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			holdID := uuid.New()
			_, err := l.TryHold(1, []string{"B1"}, holdID, expiresAt, now)
			if err == nil {
				l.Release(holdID)
			}
		}()
	}

	wg.Wait()

	// Every winner released, so the seat must be free again.
	statuses := l.SeatStatuses(1, now)
	assert.Equal(t, domain.SeatFree, statuses["B1"])
}
