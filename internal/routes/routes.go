package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/libraryhub/libraryhub/internal/auth"
	"github.com/libraryhub/libraryhub/internal/config"
	"github.com/libraryhub/libraryhub/internal/middleware"
	"github.com/libraryhub/libraryhub/internal/notification"
	"github.com/libraryhub/libraryhub/internal/otp"
	"github.com/libraryhub/libraryhub/internal/storage"
	"github.com/libraryhub/libraryhub/internal/user"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil in development, in which case in-memory fallbacks are used.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Stores
	var userRepo user.Repository
	if d.DB != nil {
		userRepo = user.NewPostgresRepository(d.DB)
	} else {
		userRepo = user.NewMemoryRepository()
	}

	var otpStore otp.Store
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache)
	} else {
		otpStore = otp.NewMemoryStore()
	}

	// Delivery channel: SMTP when configured, the logger stub otherwise.
	var notifier notification.Notifier
	if d.Cfg.SMTP.Host != "" {
		smtp, err := notification.NewSMTPNotifier(d.Cfg.SMTP)
		if err != nil {
			return err
		}
		notifier = smtp
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	tokens := auth.NewTokenIssuer([]byte(d.Cfg.JWTSecret))
	avatars := storage.NewAvatarStore(d.Cfg.UploadDir)
	authSvc := auth.NewService(userRepo, otpStore, tokens, notifier, d.Logger, d.Cfg.BaseURL)

	echoSecrets := d.Cfg.EchoSecrets && d.Cfg.IsDev()
	authHandler := auth.NewHandler(authSvc, avatars, echoSecrets, d.Logger)

	// Uploaded avatars are exposed by relative URL under /uploads.
	app.Static("/uploads", d.Cfg.UploadDir)

	api := app.Group("/api")
	RegisterUserRoutes(api, authHandler, middleware.BearerAuth(authSvc))

	return nil
}
