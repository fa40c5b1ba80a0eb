package repository

import (
	"context"
	"errors"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (hold_id, session_id, slot_id, seat_numbers, total_amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		booking.HoldID,
		booking.SessionID,
		booking.SlotID,
		booking.SeatNumbers,
		booking.TotalAmount,
		booking.Status,
		booking.IdempotencyKey,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateBooking
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id int) (*domain.Booking, error) {
	query := bookingSelect + ` WHERE id = $1`

	return p.getOne(ctx, query, id)
}

func (p *PostgresBookingRepository) GetByHoldID(ctx context.Context, holdId uuid.UUID) (*domain.Booking, error) {
	query := bookingSelect + ` WHERE hold_id = $1`

	return p.getOne(ctx, query, holdId)
}

func (p *PostgresBookingRepository) GetBySessionID(ctx context.Context, sessionId string) ([]domain.Booking, error) {
	query := bookingSelect + ` WHERE session_id = $1 ORDER BY created_at DESC`

	rows, err := p.db.Query(ctx, query, sessionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		err := scanBooking(rows, &booking)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// Update persists the mutable booking fields and, when the booking carries a
// payment id for the first time, records the payment in the same transaction.
// The write is guarded by the transition table: a row that already left the
// expected prior state (a terminal row in particular) is never overwritten,
// and the stale writer gets ErrEditConflict.
func (p *PostgresBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = $1,
				payment_method = $2,
				payment_id = $3,
				failure_reason = $4,
				ticket_secret_hash = $5,
				verified = $6,
				verified_at = $7,
				updated_at = NOW()
			WHERE id = $8 AND status = ANY($9)
			RETURNING updated_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			booking.Status,
			booking.PaymentMethod,
			booking.PaymentID,
			booking.FailureReason,
			booking.TicketHash,
			booking.Verified,
			booking.VerifiedAt,
			booking.ID,
			priorStatuses(booking.Status),
		).Scan(&booking.UpdatedAt)

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrEditConflict
			}

			return err
		}

		if booking.Status == domain.BookingStatusPaid && booking.PaymentID != nil {
			query = `
				INSERT INTO payments (booking_id, provider_payment_id, amount, status)
				VALUES ($1, $2, $3, 'completed')
				ON CONFLICT (booking_id) DO NOTHING
			`

			_, err = tx.Exec(ctx, query, booking.ID, booking.PaymentID, booking.TotalAmount)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (p *PostgresBookingRepository) GetSoldSeats(ctx context.Context) ([]domain.SoldSeat, error) {
	query := `
		SELECT b.slot_id, s.seat_number, b.hold_id
		FROM bookings b
		CROSS JOIN LATERAL unnest(b.seat_numbers) AS s(seat_number)
		WHERE b.status = 'CONFIRMED'
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	soldSeats := make([]domain.SoldSeat, 0)

	for rows.Next() {
		var soldSeat domain.SoldSeat

		err := rows.Scan(&soldSeat.SlotID, &soldSeat.SeatNumber, &soldSeat.HoldID)
		if err != nil {
			return nil, err
		}

		soldSeats = append(soldSeats, soldSeat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return soldSeats, nil
}

func priorStatuses(target domain.BookingStatus) []string {
	priors := domain.PriorBookingStatuses(target)

	statuses := make([]string, len(priors))
	for i, status := range priors {
		statuses[i] = string(status)
	}

	return statuses
}

const bookingSelect = `
	SELECT id, hold_id, session_id, slot_id, seat_numbers, total_amount, status,
		payment_method, payment_id, failure_reason, idempotency_key,
		ticket_secret_hash, verified, verified_at, created_at, updated_at
	FROM bookings
`

func (p *PostgresBookingRepository) getOne(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	var booking domain.Booking

	err := scanBooking(p.db.QueryRow(ctx, query, arg), &booking)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func scanBooking(row pgx.Row, booking *domain.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.HoldID,
		&booking.SessionID,
		&booking.SlotID,
		&booking.SeatNumbers,
		&booking.TotalAmount,
		&booking.Status,
		&booking.PaymentMethod,
		&booking.PaymentID,
		&booking.FailureReason,
		&booking.IdempotencyKey,
		&booking.TicketHash,
		&booking.Verified,
		&booking.VerifiedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
