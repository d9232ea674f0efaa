package main // Entry point package

import (
	"context"   // shutdown and consumer lifetime
	"errors"    // server closed detection
	"net/http"  // http.ErrServerClosed
	"os"        // log output
	"os/signal" // graceful shutdown
	"syscall"   // SIGTERM
	"time"      // shutdown timeout

	"github.com/joho/godotenv"                      // .env loading
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request id, recover, CORS
	"github.com/sirupsen/logrus"                    // structured logging

	"github.com/iliyamo/cinema-seance-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/cinema-seance-booking/internal/database"   // connection and schema
	"github.com/iliyamo/cinema-seance-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/cinema-seance-booking/internal/logging"    // logger setup and request log
	"github.com/iliyamo/cinema-seance-booking/internal/middleware" // rate limiting
	"github.com/iliyamo/cinema-seance-booking/internal/queue"      // reservation events
	"github.com/iliyamo/cinema-seance-booking/internal/repository" // data access
	"github.com/iliyamo/cinema-seance-booking/internal/router"     // Internal router setup
	"github.com/iliyamo/cinema-seance-booking/internal/service"    // scheduler and ledger
)

func main() {
	// A missing .env is normal in containers.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	films := repository.NewFilmRepo(db)
	rooms := repository.NewRoomRepo(db)
	showings := repository.NewShowingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	favorites := repository.NewFavoriteRepo(db)

	scheduler := service.NewScheduler(films, rooms, showings,
		service.WithLocation(cfg.Location),
		service.WithWindow(service.OperatingWindow{OpenHour: cfg.OpeningHour, CloseHour: cfg.ClosingHour}),
	)
	ledgerOpts := []service.LedgerOption{
		service.WithMaxRetries(cfg.LedgerMaxRetries),
		service.WithRetryBackoff(cfg.LedgerRetryBackoff),
	}
	if cfg.EventsEnabled {
		ledgerOpts = append(ledgerOpts, service.WithEvents(queue.NewPublisher(cfg.RabbitURL)))
		go func() {
			if err := queue.StartConsumer(ctx, cfg.RabbitURL, queue.BookingLog{Dir: cfg.BookingLogDir}); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("booking consumer stopped")
			}
		}()
	}
	ledger := service.NewLedger(showings, films, ledgerOpts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(logging.RequestLogger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Setup(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		DB:           db,
		Redis:        rdb,
		Cache:        config.LoadCacheConfig(),
		BookingLimit: config.LoadBookingRateLimitConfig(),
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Films:        handler.NewFilmHandler(films, scheduler),
		Showings:     handler.NewShowingHandler(scheduler, rooms),
		Reservations: handler.NewReservationHandler(ledger),
		Favorites:    handler.NewFavoriteHandler(favorites, films),
	})

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown failed")
	}
	logrus.Info("server stopped")
}
