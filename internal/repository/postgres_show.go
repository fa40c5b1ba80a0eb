package repository

import (
	"context"
	"errors"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

func (p *PostgresShowRepository) GetSlotSeats(ctx context.Context, slotId int) (*domain.SlotSeats, error) {
	query := `
		SELECT s.id, s.movie_title, s.theater_name, s.screen_type, s.starts_at
		FROM slots s
		WHERE s.id = $1
	`

	var slotSeats domain.SlotSeats

	err := p.db.QueryRow(ctx, query, slotId).Scan(
		&slotSeats.SlotID,
		&slotSeats.MovieTitle,
		&slotSeats.TheaterName,
		&slotSeats.ScreenType,
		&slotSeats.StartsAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	query = `
		SELECT seat_number, seat_type, price
		FROM slot_seats
		WHERE slot_id = $1
		ORDER BY seat_number
	`

	rows, err := p.db.Query(ctx, query, slotId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.SlotSeat, 0)

	for rows.Next() {
		var seat domain.SlotSeat

		err := rows.Scan(&seat.Number, &seat.Type, &seat.Price)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	slotSeats.Seats = seats

	return &slotSeats, nil
}

func (p *PostgresShowRepository) GetSlotSeatsByNumbers(
	ctx context.Context,
	slotId int,
	seatNumbers []string) (*domain.SlotSeats, error) {

	query := `
		SELECT s.id, s.movie_title, s.theater_name, s.screen_type, s.starts_at
		FROM slots s
		WHERE s.id = $1
	`

	var slotSeats domain.SlotSeats

	err := p.db.QueryRow(ctx, query, slotId).Scan(
		&slotSeats.SlotID,
		&slotSeats.MovieTitle,
		&slotSeats.TheaterName,
		&slotSeats.ScreenType,
		&slotSeats.StartsAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	query = `
		SELECT seat_number, seat_type, price
		FROM slot_seats
		WHERE slot_id = $1 AND seat_number = ANY($2)
	`

	rows, err := p.db.Query(ctx, query, slotId, seatNumbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.SlotSeat, 0, len(seatNumbers))

	for rows.Next() {
		var seat domain.SlotSeat

		err := rows.Scan(&seat.Number, &seat.Type, &seat.Price)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	slotSeats.Seats = seats

	return &slotSeats, nil
}
