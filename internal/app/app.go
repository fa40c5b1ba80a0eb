package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"golang.org/x/sync/errgroup"

	"github.com/Tribhuvan-Web/cinebook/internal/booking"
	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/Tribhuvan-Web/cinebook/internal/hold"
	"github.com/Tribhuvan-Web/cinebook/internal/idempotency"
	"github.com/Tribhuvan-Web/cinebook/internal/ledger"
	"github.com/Tribhuvan-Web/cinebook/internal/mailer"
	"github.com/Tribhuvan-Web/cinebook/internal/payment"
	"github.com/Tribhuvan-Web/cinebook/internal/queue"
	"github.com/Tribhuvan-Web/cinebook/internal/repository"
	appvalidator "github.com/Tribhuvan-Web/cinebook/internal/validator"
	"github.com/Tribhuvan-Web/cinebook/internal/vcs"
)

var (
	version = vcs.Version()
)

type application struct {
	config         config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager
	now            func() time.Time

	showRepo    domain.ShowRepository
	bookingRepo domain.BookingRepository

	seatLedger  *ledger.Ledger
	holds       *hold.Manager
	bookings    *booking.Service
	idempotency *idempotency.Store
	publisher   queue.Publisher
	metrics     *metrics
}

type config struct {
	port             int
	env              string
	otelCollectorUrl string
	holdTTL          time.Duration
	sweepInterval    time.Duration
	db               struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	stripe struct {
		secretKey string
	}
	amqp struct {
		url string
	}
}

func Run() error {
	// Missing .env is fine, flags and real env vars still apply.
	_ = godotenv.Load()

	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", os.Getenv("OTEL_COLLECTOR_URL"), "OpenTelemetry collector URL")

	flag.DurationVar(&cfg.holdTTL, "hold-ttl", hold.DefaultTTL, "Seat hold time-to-live")
	flag.DurationVar(&cfg.sweepInterval, "hold-sweep-interval", hold.DefaultSweepInterval, "Seat hold expiry sweep interval")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.redis.url, "redis-url", os.Getenv("REDIS_URL"), "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.smtp.host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "CineBook <no-reply@cinebook.example.com>", "SMTP sender")

	flag.StringVar(&cfg.stripe.secretKey, "stripe-key", os.Getenv("STRIPE_SECRET_KEY"), "Stripe secret key (empty enables the mock gateway)")

	flag.StringVar(&cfg.amqp.url, "amqp-url", os.Getenv("AMQP_URL"), "RabbitMQ URL (empty disables event publishing)")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	validator := appvalidator.NewValidator()

	db, err := newDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	showRepo := repository.NewPostgresShowRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var gateway domain.PaymentGateway
	if cfg.stripe.secretKey != "" {
		stripe.Key = cfg.stripe.secretKey
		gateway = payment.NewStripeGateway()
	} else {
		logger.Info("no stripe key configured, using the mock payment gateway")
		gateway = payment.NewMockGateway()
	}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.amqp.url != "" {
		amqpPublisher, err := queue.NewAMQPPublisher(cfg.amqp.url, logger)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()

		publisher = amqpPublisher
	}

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      validator,
		mailer:         mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		sessionManager: newSessionManager(redisClient),
		now:            time.Now,
		showRepo:       showRepo,
		bookingRepo:    bookingRepo,
		seatLedger:     ledger.New(),
		idempotency:    idempotency.NewStore(redisClient, idempotency.DefaultTTL),
		publisher:      publisher,
	}

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	app.metrics, err = newMetrics()
	if err != nil {
		return err
	}

	// The booking service is the manager's expiry hook, so it is assigned
	// through a closure after both exist.
	app.holds = hold.NewManager(app.seatLedger, showRepo, logger,
		hold.WithTTL(cfg.holdTTL),
		hold.WithSweepInterval(cfg.sweepInterval),
		hold.WithExpiryHook(func(h *domain.Hold) {
			app.metrics.holdsExpired.Add(context.Background(), 1)

			if app.bookings != nil {
				app.bookings.ExpireFromSweep(h)
			}
		}),
	)

	app.bookings = booking.NewService(app.holds, app.seatLedger, bookingRepo, gateway, logger,
		booking.WithConfirmHook(app.onBookingConfirmed),
		booking.WithReversalHook(app.onPaymentReversal),
	)

	err = app.warmUpLedger(context.Background())
	if err != nil {
		return err
	}

	return app.run()
}

// warmUpLedger rebuilds the in-memory seat state from confirmed bookings, so
// that sold seats stay sold across restarts.
func (app *application) warmUpLedger(ctx context.Context) error {
	soldSeats, err := app.bookingRepo.GetSoldSeats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sold seats: %w", err)
	}

	type slotHold struct {
		slotID int
		holdID uuid.UUID
	}

	seatsBySlot := make(map[int][]string)
	seatsByHold := make(map[slotHold][]string)

	for _, seat := range soldSeats {
		seatsBySlot[seat.SlotID] = append(seatsBySlot[seat.SlotID], seat.SeatNumber)

		key := slotHold{slotID: seat.SlotID, holdID: seat.HoldID}
		seatsByHold[key] = append(seatsByHold[key], seat.SeatNumber)
	}

	for slotID, seatNumbers := range seatsBySlot {
		app.seatLedger.EnsureSlot(slotID, seatNumbers)
	}

	for key, seatNumbers := range seatsByHold {
		app.seatLedger.MarkSold(key.slotID, seatNumbers, key.holdID)
	}

	app.logger.Info("seat ledger warmed up", "slots", len(seatsBySlot), "sold_seats", len(soldSeats))

	return nil
}

func newSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		err := app.holds.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
