package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"gym-class-booking/internal/bot"
	"gym-class-booking/internal/models/config"
	"gym-class-booking/internal/repository/booking"
	"gym-class-booking/internal/repository/gymclass"
	"gym-class-booking/internal/repository/migrations"
	"gym-class-booking/internal/service"
	booking_service "gym-class-booking/internal/service/booking"
	catalog_service "gym-class-booking/internal/service/catalog"
	"gym-class-booking/internal/web"
	database "gym-class-booking/pkg"
	"gym-class-booking/pkg/auth"
	"gym-class-booking/pkg/logger"
	"gym-class-booking/pkg/telemetry"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	serviceName     = "gym-class-booking"
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newDatabase,
			gymclass.NewGymClassRepository,
			booking.NewBookingRepository,
			booking_service.NewBookingService,
			catalog_service.NewCatalogService,
			newTokenService,
			newHandler,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			registerTelemetry,
			registerMigrations,
			registerHTTPServer,
			registerBot,
		),
	).Run()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Environment)
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func newTokenService(cfg *config.Config) *auth.TokenService {
	return auth.NewTokenService(cfg.JWTSecret)
}

func newHandler(
	cfg *config.Config,
	bookingService service.BookingService,
	catalogService service.CatalogService,
	tokens *auth.TokenService,
	log *zap.Logger,
) *web.Handler {
	return web.NewHandler(bookingService, catalogService, tokens, cfg.RequestTimeout, log)
}

func registerTelemetry(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
			if err != nil {
				return err
			}
			if cfg.OTelEndpoint != "" {
				log.Info("tracing enabled", zap.String("endpoint", cfg.OTelEndpoint))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func registerMigrations(lc fx.Lifecycle, db *sqlx.DB, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := migrations.Apply(ctx, db); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	})
}

func registerHTTPServer(lc fx.Lifecycle, cfg *config.Config, h *web.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func registerBot(
	lc fx.Lifecycle,
	cfg *config.Config,
	bookingService service.BookingService,
	catalogService service.CatalogService,
	log *zap.Logger,
) {
	if cfg.Bot.Token == "" {
		log.Info("BOT_TOKEN not set, telegram bot disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			telegramBot, err := bot.NewBot(cfg.Bot, bookingService, catalogService, log)
			if err != nil {
				return err
			}
			go func() {
				if err := telegramBot.Start(ctx); err != nil {
					log.Error("telegram bot stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
