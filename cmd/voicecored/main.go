// Command voicecored runs a headless voice agent session: it connects
// to the live gateway, keeps the session configuration current, and
// persists the conversation to Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	voicecore "github.com/kithai-ai/voicecore/sdk"

	"github.com/kithai-ai/voicecore/pkg/knowledge"
	"github.com/kithai-ai/voicecore/pkg/memory"
	"github.com/kithai-ai/voicecore/pkg/metrics"
	"github.com/kithai-ai/voicecore/pkg/store"
)

type appConfig struct {
	GatewayURL  string        `env:"VOICECORE_GATEWAY_URL,notEmpty"`
	GatewayKey  string        `env:"VOICECORE_GATEWAY_KEY"`
	DatabaseURL string        `env:"VOICECORE_DATABASE_URL"`
	GenAIAPIKey string        `env:"VOICECORE_GENAI_API_KEY"`
	MetricsAddr string        `env:"VOICECORE_METRICS_ADDR" envDefault:":9090"`
	DialTimeout time.Duration `env:"VOICECORE_DIAL_TIMEOUT" envDefault:"15s"`
	LogLevel    slog.Level    `env:"VOICECORE_LOG_LEVEL" envDefault:"info"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "voicecored:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	sessionID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("session_id", sessionID)
	slog.SetDefault(logger)

	exporter := metrics.NewExporter(cfg.MetricsAddr)
	go func() {
		if err := exporter.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics exporter failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = exporter.Shutdown(shutdownCtx)
	}()

	opts := []voicecore.Option{voicecore.WithLogger(logger)}

	var st *store.Store
	if cfg.DatabaseURL != "" {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		var err error
		st, err = store.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		opts = append(opts, voicecore.WithStore(st))
	} else {
		logger.Warn("no database configured, conversation will not be persisted")
	}

	if cfg.GenAIAPIKey != "" {
		embedder, err := memory.NewGenAIEmbedder(ctx, cfg.GenAIAPIKey, memory.DefaultEmbeddingModel)
		if err != nil {
			return fmt.Errorf("create embedder: %w", err)
		}
		if st != nil {
			opts = append(opts, voicecore.WithMemoryEngine(memory.NewEngine(embedder, st, logger)))
		}

		model, err := knowledge.NewGenAIModel(ctx, cfg.GenAIAPIKey, knowledge.DefaultModel)
		if err != nil {
			return fmt.Errorf("create content model: %w", err)
		}
		opts = append(opts, voicecore.WithKnowledgeGenerator(knowledge.NewGenerator(model, logger)))
	}

	if st != nil {
		if err := loadStoredState(ctx, st, &opts); err != nil {
			return err
		}
	}

	dialOpts := []voicecore.DialOption{voicecore.WithConnectTimeout(cfg.DialTimeout)}
	if cfg.GatewayKey != "" {
		headers := http.Header{}
		headers.Set("Authorization", "Bearer "+cfg.GatewayKey)
		dialOpts = append(dialOpts, voicecore.WithHeaders(headers))
	}

	session, err := voicecore.Dial(ctx, cfg.GatewayURL, dialOpts...)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}

	coordinator := voicecore.NewSessionCoordinator(session, opts...)
	coordinator.Start()
	logger.Info("session started", "gateway", cfg.GatewayURL)

	done := make(chan error, 1)
	go func() { done <- session.Err() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-done:
		if err != nil {
			logger.Error("session ended", "error", err)
		} else {
			logger.Info("session ended")
		}
	}

	_ = session.EndSession()
	if err := coordinator.Close(); err != nil {
		return fmt.Errorf("close coordinator: %w", err)
	}
	logger.Info("session stopped")
	return nil
}

// loadStoredState seeds the coordinator from persisted persona, rules,
// and installed apps.
func loadStoredState(ctx context.Context, st *store.Store, opts *[]voicecore.Option) error {
	persona, err := st.LoadPersona(ctx)
	if err != nil {
		return fmt.Errorf("load persona: %w", err)
	}
	if persona != nil {
		*opts = append(*opts, voicecore.WithPersona(*persona))
	}

	rules, err := st.ListGlobalRules(ctx)
	if err != nil {
		return fmt.Errorf("load global rules: %w", err)
	}
	if len(rules) > 0 {
		*opts = append(*opts, voicecore.WithGlobalRules(rules))
	}

	apps, err := st.ListApps(ctx)
	if err != nil {
		return fmt.Errorf("load apps: %w", err)
	}
	if len(apps) > 0 {
		*opts = append(*opts, voicecore.WithInstalledApps(apps))
	}
	return nil
}
