// Command server runs the hints API: loads configuration, opens the SQLite
// store, dials Gemini, and serves HTTP with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hintly/go-hints-backend/internal/auth"
	"github.com/hintly/go-hints-backend/internal/config"
	"github.com/hintly/go-hints-backend/internal/genai"
	httpapi "github.com/hintly/go-hints-backend/internal/http"
	"github.com/hintly/go-hints-backend/internal/observability"
	"github.com/hintly/go-hints-backend/internal/repo"
	"github.com/hintly/go-hints-backend/internal/sysutil"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Model client; without a key the API still serves, with hint endpoints
	// degraded and resources on curated fallbacks.
	var model genai.TextGenerator = genai.Disabled
	if cfg.AI.APIKey != "" {
		client, err := genai.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("create genai client")
		}
		defer func() { _ = client.Close() }()
		model = client
	} else {
		log.Warn().Msg("GOOGLE_API_KEY not set; hint generation disabled")
	}
	pipeline := &genai.Pipeline{Model: model}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	httpapi.RegisterRoutes(r, db, pipeline, tokens, cfg)

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
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server failed")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server exited gracefully")
}
