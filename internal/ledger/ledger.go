// Package ledger holds the authoritative in-process record of seat
// availability. Every mutation is an all-or-nothing operation keyed by hold
// ID and serialized per slot, so two concurrent bookers can never end up
// holding the same seat. Expiry is decided by wall-clock comparison inside
// the operations themselves; the background sweep only reclaims.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

type seatState struct {
	status    domain.SeatStatus
	holdID    uuid.UUID
	expiresAt time.Time
}

type holdEntry struct {
	seats     []string
	expiresAt time.Time
	consumed  bool
}

type slot struct {
	mu    sync.Mutex
	seats map[string]*seatState
	holds map[uuid.UUID]*holdEntry
}

type Ledger struct {
	mu    sync.RWMutex
	slots map[int]*slot
	index map[uuid.UUID]int // holdID -> slotID
}

func New() *Ledger {
	return &Ledger{
		slots: make(map[int]*slot),
		index: make(map[uuid.UUID]int),
	}
}

// EnsureSlot registers seats for a slot as FREE. Seats already known keep
// their current state, so warm-up and catalog reloads are safe to repeat.
func (l *Ledger) EnsureSlot(slotID int, seatNumbers []string) {
	s := l.getOrCreateSlot(slotID)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, number := range seatNumbers {
		if _, ok := s.seats[number]; !ok {
			s.seats[number] = &seatState{status: domain.SeatFree}
		}
	}
}

// MarkSold force-marks seats as SOLD under the given hold. Used only to
// rebuild state from confirmed bookings at startup.
func (l *Ledger) MarkSold(slotID int, seatNumbers []string, holdID uuid.UUID) {
	s := l.getOrCreateSlot(slotID)

	s.mu.Lock()
	for _, number := range seatNumbers {
		s.seats[number] = &seatState{status: domain.SeatSold, holdID: holdID}
	}
	s.holds[holdID] = &holdEntry{seats: seatNumbers, consumed: true}
	s.mu.Unlock()

	l.mu.Lock()
	l.index[holdID] = slotID
	l.mu.Unlock()
}

// TryHold atomically transitions every requested seat from FREE to HELD under
// holdID. If any seat is unavailable the whole operation is a no-op and the
// unavailable seats are returned with domain.ErrSeatConflict. A seat held by
// an expired hold counts as FREE; the stale hold loses it on the spot.
func (l *Ledger) TryHold(slotID int, seatNumbers []string, holdID uuid.UUID, expiresAt, now time.Time) ([]string, error) {
	s := l.getOrCreateSlot(slotID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string

	for _, number := range seatNumbers {
		seat, ok := s.seats[number]
		if !ok {
			return nil, fmt.Errorf("%w: unknown seat %s in slot %d", domain.ErrRecordNotFound, number, slotID)
		}

		if !s.seatAvailable(seat, now) {
			conflicts = append(conflicts, number)
		}
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return conflicts, domain.ErrSeatConflict
	}

	for _, number := range seatNumbers {
		seat := s.seats[number]

		if seat.status == domain.SeatHeld {
			s.evictSeat(seat.holdID, number)
		}

		seat.status = domain.SeatHeld
		seat.holdID = holdID
		seat.expiresAt = expiresAt
	}

	s.holds[holdID] = &holdEntry{
		seats:     append([]string(nil), seatNumbers...),
		expiresAt: expiresAt,
	}

	l.mu.Lock()
	l.index[holdID] = slotID
	l.mu.Unlock()

	return nil, nil
}

// Commit transitions all seats owned by holdID from HELD to SOLD, but only if
// the hold is unexpired at this instant. On any other outcome the seats are
// left untouched.
func (l *Ledger) Commit(holdID uuid.UUID, now time.Time) error {
	s, ok := l.slotForHold(holdID)
	if !ok {
		return domain.ErrHoldNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.holds[holdID]
	if !ok {
		return domain.ErrHoldNotFound
	}

	if entry.consumed {
		return domain.ErrHoldNotFound
	}

	if now.After(entry.expiresAt) {
		return domain.ErrHoldExpired
	}

	for _, number := range entry.seats {
		seat, ok := s.seats[number]
		if !ok || seat.status != domain.SeatHeld || seat.holdID != holdID {
			return fmt.Errorf("%w: seat %s not held by hold %s at commit", domain.ErrLedgerInconsistent, number, holdID)
		}
	}

	for _, number := range entry.seats {
		seat := s.seats[number]
		seat.status = domain.SeatSold
		seat.expiresAt = time.Time{}
	}

	entry.consumed = true

	return nil
}

// Release returns all seats still held by holdID to FREE. Idempotent:
// releasing an unknown, already-released or consumed hold is a no-op.
func (l *Ledger) Release(holdID uuid.UUID) {
	s, ok := l.slotForHold(holdID)
	if !ok {
		return
	}

	s.mu.Lock()
	entry, ok := s.holds[holdID]
	if !ok {
		s.mu.Unlock()
		l.mu.Lock()
		delete(l.index, holdID)
		l.mu.Unlock()
		return
	}
	if entry.consumed {
		s.mu.Unlock()
		return
	}

	for _, number := range entry.seats {
		seat, ok := s.seats[number]
		if ok && seat.status == domain.SeatHeld && seat.holdID == holdID {
			seat.status = domain.SeatFree
			seat.holdID = uuid.UUID{}
			seat.expiresAt = time.Time{}
		}
	}

	delete(s.holds, holdID)
	s.mu.Unlock()

	l.mu.Lock()
	delete(l.index, holdID)
	l.mu.Unlock()
}

// SeatStatuses returns a point-in-time view of a slot. Seats under an expired
// hold are reported FREE even before the sweep reclaims them.
func (l *Ledger) SeatStatuses(slotID int, now time.Time) map[string]domain.SeatStatus {
	l.mu.RLock()
	s, ok := l.slots[slotID]
	l.mu.RUnlock()

	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[string]domain.SeatStatus, len(s.seats))

	for number, seat := range s.seats {
		status := seat.status
		if status == domain.SeatHeld && now.After(seat.expiresAt) {
			status = domain.SeatFree
		}
		statuses[number] = status
	}

	return statuses
}

func (l *Ledger) getOrCreateSlot(slotID int) *slot {
	l.mu.RLock()
	s, ok := l.slots[slotID]
	l.mu.RUnlock()

	if ok {
		return s
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok = l.slots[slotID]; ok {
		return s
	}

	s = &slot{
		seats: make(map[string]*seatState),
		holds: make(map[uuid.UUID]*holdEntry),
	}
	l.slots[slotID] = s

	return s
}

func (l *Ledger) slotForHold(holdID uuid.UUID) (*slot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	slotID, ok := l.index[holdID]
	if !ok {
		return nil, false
	}

	return l.slots[slotID], true
}

func (s *slot) seatAvailable(seat *seatState, now time.Time) bool {
	switch seat.status {
	case domain.SeatFree:
		return true
	case domain.SeatHeld:
		return now.After(seat.expiresAt)
	default:
		return false
	}
}

// evictSeat drops a single seat from a stale hold's entry. Caller holds the
// slot lock.
func (s *slot) evictSeat(holdID uuid.UUID, seatNumber string) {
	entry, ok := s.holds[holdID]
	if !ok {
		return
	}

	remaining := entry.seats[:0]
	for _, number := range entry.seats {
		if number != seatNumber {
			remaining = append(remaining, number)
		}
	}
	entry.seats = remaining

	if len(entry.seats) == 0 {
		delete(s.holds, holdID)
	}
}
