// @title           Safe Student API
// @version         1.0.0
// @description     Screenshot safety analysis for students: uploads, vision model analysis, history, guardian alerts and a safety assistant.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/docs"
	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/config"
	httpapi "github.com/safestudent/safe-student-backend/internal/http"
	"github.com/safestudent/safe-student-backend/internal/http/handlers"
	"github.com/safestudent/safe-student-backend/internal/notify"
	"github.com/safestudent/safe-student-backend/internal/observability"
	"github.com/safestudent/safe-student-backend/internal/repo"
	"github.com/safestudent/safe-student-backend/internal/search"
	"github.com/safestudent/safe-student-backend/internal/services"
	"github.com/safestudent/safe-student-backend/internal/storage"
	"github.com/safestudent/safe-student-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sysutil.SetupLogger(sysutil.LoggerOptions{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: cfg.OTEL.ServiceName,
		Version: version,
	})
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Path, cfg.DB.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	prompt, err := analyzer.LoadPrompt(cfg.Model.PromptFile)
	if err != nil {
		return err
	}
	model, err := analyzer.New(cfg.Model.Provider, analyzer.Config{
		APIKey:    cfg.Model.APIKey,
		BaseURL:   cfg.Model.BaseURL,
		Model:     cfg.Model.Name,
		MaxTokens: cfg.Model.MaxTokens,
		Prompt:    prompt,
	})
	if err != nil {
		return err
	}

	idx, err := newIndex(cfg)
	if err != nil {
		return fmt.Errorf("assistant knowledge base: %w", err)
	}

	analyses := &services.AnalysisService{
		DB:           db,
		Store:        store,
		Model:        model,
		Alerts:       notify.NewDispatcher(cfg.Alert.WebhookURL, cfg.Alert.Timeout),
		ModelTimeout: cfg.Model.Timeout,
	}
	svc := handlers.Services{
		Uploads:        &services.UploadService{DB: db, Store: store, MaxBytes: cfg.UploadMaxBytes},
		Analyses:       analyses,
		History:        &services.HistoryService{DB: db, Store: store},
		Feedback:       &services.FeedbackService{DB: db},
		Profiles:       &services.ProfileService{DB: db},
		Assistant:      &services.AssistantService{Index: idx, Model: model},
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
		MaxUploadBytes: cfg.UploadMaxBytes,
	}

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	if cfg.GinMode == gin.ReleaseMode && cfg.Auth.JWTSecret != "" && !cfg.Auth.Required {
		log.Warn().Msg("AUTH_REQUIRED=false: requests without a token share the demo identity")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	go reconcile(ctx, cfg, analyses, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db", cfg.DB.Driver).
			Str("storage", cfg.Storage.Backend).
			Str("model", model.Name()).
			Bool("alerts", cfg.Alert.WebhookURL != "").
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// reconcile fails analyses left in progress by a crash or a lost request and
// purges expired idempotency records.
func reconcile(ctx context.Context, cfg config.Config, analyses *services.AnalysisService, db *gorm.DB) {
	if cfg.AnalysisStaleAfter <= 0 {
		log.Info().Msg("stale analysis reconciler disabled")
		return
	}
	every := cfg.AnalysisStaleAfter / 2
	if every < time.Minute {
		every = time.Minute
	}
	sysutil.Every(ctx, every, "reconciler", func(ctx context.Context) error {
		if _, err := analyses.FailStale(ctx, cfg.AnalysisStaleAfter); err != nil {
			return fmt.Errorf("fail stale analyses: %w", err)
		}
		if _, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC()); err != nil {
			return fmt.Errorf("purge idempotency: %w", err)
		}
		return nil
	})
}

func newStore(ctx context.Context, c config.StorageConfig) (storage.Store, error) {
	switch c.Backend {
	case storage.BackendSupabase:
		return storage.NewSupabase(storage.SupabaseConfig{
			URL:           c.SupabaseURL,
			ServiceKey:    c.SupabaseServiceKey,
			Bucket:        c.Bucket,
			PublicBaseURL: c.PublicBaseURL,
		})
	case storage.BackendMinIO:
		return storage.NewMinIO(ctx, storage.MinIOConfig{
			Endpoint:      c.MinIOEndpoint,
			AccessKey:     c.MinIOAccessKey,
			SecretKey:     c.MinIOSecretKey,
			Region:        c.MinIORegion,
			Bucket:        c.Bucket,
			UseSSL:        c.MinIOUseSSL,
			PublicBaseURL: c.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

func newIndex(cfg config.Config) (search.Index, error) {
	opts := []search.Option{
		search.WithMinParagraphRunes(cfg.AssistantKBMinRunes),
		search.WithMaxDocs(cfg.AssistantKBMaxTips),
	}
	if len(cfg.AssistantKBStopwords) > 0 {
		opts = append(opts, search.WithStopwords(cfg.AssistantKBStopwords))
	}
	if cfg.AssistantKBPath == "" {
		return search.NewDefaultIndex(opts...), nil
	}
	return search.NewIndexFromMarkdown(cfg.AssistantKBPath, opts...)
}
