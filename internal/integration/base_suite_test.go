package integration_test

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"

	"github.com/Tribhuvan-Web/cinebook/internal/repository"
)

const (
	dbName         = "cinebook"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

type BaseSuite struct {
	suite.Suite
	db             *pgxpool.Pool
	cache          *redis.Client
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	showRepo       *repository.PostgresShowRepository
	bookingRepo    *repository.PostgresBookingRepository
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	db, err := pgxpool.New(ctx, postgresContainer.ConnectionString)
	if err != nil {
		log.Printf("cannot create connection pool: %s", err)
		return
	}

	s.db = db
	s.cache = redis.NewClient(&redis.Options{Addr: redisContainer.ConnectionString})
	s.showRepo = repository.NewPostgresShowRepository(db)
	s.bookingRepo = repository.NewPostgresBookingRepository(db)
}

func (s *BaseSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
	if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

// cleanTables resets the mutable state between tests. The seeded slots and
// seats are left in place since they are read-only fixtures.
func (s *BaseSuite) cleanTables() {
	ctx := context.Background()

	_, err := s.db.Exec(ctx, "TRUNCATE payments, bookings")
	s.Require().NoError(err)

	s.Require().NoError(s.cache.FlushAll(ctx).Err())
}

// seedSlot inserts a slot with the given seats, all priced at 12.00, and
// returns its generated id.
func (s *BaseSuite) seedSlot(seatNumbers ...string) int {
	ctx := context.Background()

	var slotId int
	err := s.db.QueryRow(ctx, `
		INSERT INTO slots (movie_title, theater_name, screen_type, starts_at)
		VALUES ('Interstellar', 'Grand Plaza', 'IMAX', $1)
		RETURNING id`,
		time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC),
	).Scan(&slotId)
	s.Require().NoError(err)

	for _, number := range seatNumbers {
		_, err = s.db.Exec(ctx, `
			INSERT INTO slot_seats (slot_id, seat_number, seat_type, price)
			VALUES ($1, $2, 'STANDARD', 12.00)`,
			slotId, number,
		)
		s.Require().NoError(err)
	}

	return slotId
}
