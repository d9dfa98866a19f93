// Command api serves the exhibitor portal HTTP API.
//
// @title        Exhibitor Portal API
// @version      1.0
// @description  Booth exhibitor registration, account management and surveys.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/api"
	"github.com/boothfair/exhibitor-portal/internal/api/handler"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
	"github.com/boothfair/exhibitor-portal/internal/core/service"
	"github.com/boothfair/exhibitor-portal/internal/infrastructure/config"
	mongodb "github.com/boothfair/exhibitor-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/boothfair/exhibitor-portal/internal/infrastructure/db/redis"
	"github.com/boothfair/exhibitor-portal/internal/infrastructure/jobs"
	"github.com/boothfair/exhibitor-portal/internal/infrastructure/mail"
	"github.com/boothfair/exhibitor-portal/internal/infrastructure/storage"
	"github.com/boothfair/exhibitor-portal/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "exhibitor-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: "exhibitor-api",
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewTokenRepository(db)
	categories := mongodb.NewCategoryRepository(db)
	surveys := mongodb.NewSurveyRepository(db)
	answers := mongodb.NewAnswerRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, tokenRepo, categories, surveys, answers); err != nil {
		return err
	}
	sessionStore := redisdb.NewSessionStore(rdb)

	// --- Outbound ---
	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	var flyers ports.FlyerStore
	if cfg.S3.Bucket != "" {
		fs, err := storage.NewFlyerStore(ctx, storage.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return err
		}
		flyers = fs
	} else {
		log.Warn().Msg("S3_BUCKET not set, flyer uploads are disabled")
	}

	// --- Services ---
	tokens := service.NewTokenService(tokenRepo, users, log)
	accounts := service.NewAccountService(users, tokens, notifier, flyers, cfg.BaseURL, log)
	sessions := service.NewSessionService(users, sessionStore, cfg.JWTSecret, cfg.SessionTTL, log)
	surveySvc := service.NewSurveyService(categories, surveys, answers, log)
	adminSvc := service.NewSurveyAdminService(categories, surveys, answers, users, log)

	sweeper := jobs.NewSweeper(tokens, cfg.SweepInterval, log)
	sweeper.Start(ctx)

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Sessions: sessions,
		Surveys:  surveySvc,
		Admin:    adminSvc,
		Checks: map[string]handler.Check{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		CookieSecure: cfg.CookieSecure,
		Logger:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	sweeper.Wait()
	return nil
}

func newNotifier(cfg *config.Config, log zerolog.Logger) (ports.Notifier, error) {
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, mails are written to the log")
		return mail.NewLogNotifier(renderer, log), nil
	}
	return mail.NewSMTPNotifier(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, renderer, log), nil
}
