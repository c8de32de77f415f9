package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/database"
	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/router"
	"github.com/iliyamo/hotel-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetPrefix("hotel-booking")
	e.Logger.SetLevel(log.INFO)
	if cfg.Env == "dev" {
		e.Logger.SetLevel(log.DEBUG)
	}
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("16M"))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	// ---- storage ----
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		e.Logger.Fatalf("database: %v", err)
	}
	defer db.Close()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db, e.Logger)
	cancelMigrate()
	if err != nil {
		e.Logger.Fatalf("migrate: %v", err)
	}
	users := repository.NewUserRepo(db)
	admins := repository.NewAdminRepo(db)
	hotels := repository.NewHotelRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		e.Logger.Warn("redis unreachable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	// ---- integrations ----
	queues := map[string]string{queue.EventBooking: cfg.Queue.BookingQueue}
	mq, err := queue.Dial(cfg.Queue.URL, queues, cfg.Queue.Wait, cfg.Queue.PollInterval, e.Logger)
	if err != nil {
		e.Logger.Fatalf("queue: %v", err)
	}
	defer mq.Close()

	mailer := service.NewMailer(cfg.Mail)
	if !mailer.Enabled() {
		e.Logger.Warn("SMTP_HOST not set: booking confirmations are not mailed")
	}
	var images service.Uploader
	if up, err := service.NewCloudinaryUploader(cfg.Images); err != nil {
		e.Logger.Warnf("image host disabled: %v", err)
	} else {
		images = up
	}
	if cfg.StripeWebhookSecret == "" {
		e.Logger.Warn("STRIPE_WEBHOOK_SECRET not set: payment webhooks will be refused")
	}

	bookingSvc := &service.BookingService{Bookings: bookings, Rooms: rooms, Queue: mq, Mail: mailer, Log: e.Logger}
	payments := &service.PaymentService{Secret: cfg.StripeWebhookSecret, Bookings: bookings}

	// ---- routes ----
	guards := router.Guards{
		User:      middleware.Protect(cfg.JWTSecret, users),
		Admin:     middleware.ProtectAdmin(cfg.JWTSecret, admins),
		Either:    middleware.ProtectEither(cfg.JWTSecret, users, admins),
		RateLimit: middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:     cache.Middleware(),
	}
	router.RegisterRoutes(e)
	router.RegisterUser(e, handler.NewUserHandler(cfg, users), guards)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, admins, users, hotels, rooms, bookings), guards)
	router.RegisterHotels(e, handler.NewHotelHandler(hotels, cfg.HotelRadiusMeters, cache), guards)
	router.RegisterRooms(e, handler.NewRoomHandler(hotels, rooms, images, cache), guards)
	router.RegisterBookings(e, handler.NewBookingHandler(bookingSvc, bookings, hotels), guards)
	router.RegisterWebhooks(e, handler.NewWebhookHandler(payments))

	// ---- background poller ----
	var stopPoller func() context.Context
	if cfg.Queue.EnableCron {
		poller := &queue.Poller{
			Source:  mq,
			Handler: &queue.Processor{Bookings: bookings},
			Type:    queue.EventBooking,
			Timeout: cfg.Queue.Wait + 30*time.Second,
			Log:     e.Logger,
		}
		sched, err := poller.Schedule(cfg.Queue.Schedule)
		if err != nil {
			e.Logger.Fatalf("poller: %v", err)
		}
		stopPoller = sched.Stop
	}

	// ---- serve until signalled ----
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()
	<-ctx.Done()

	e.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopPoller != nil {
		select {
		case <-stopPoller().Done():
		case <-shutdownCtx.Done():
			e.Logger.Warn("poller still running at shutdown")
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
}
