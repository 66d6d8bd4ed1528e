package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"todo-ideas-backend/internal/ai"
	"todo-ideas-backend/internal/analytics"
	"todo-ideas-backend/internal/auth"
	"todo-ideas-backend/internal/config"
	"todo-ideas-backend/internal/db"
	"todo-ideas-backend/internal/ideas"
	"todo-ideas-backend/internal/server"
	"todo-ideas-backend/internal/settings"
	"todo-ideas-backend/internal/tasks"
	"todo-ideas-backend/internal/telemetry"
)

type options struct {
	port          int
	reconcileOnly bool
	checkAI       bool
	issueToken    string
	tokenTTL      time.Duration
}

func main() {
	var opts options
	flag.IntVarP(&opts.port, "port", "p", 0, "listen port (overrides PORT)")
	flag.BoolVar(&opts.reconcileOnly, "reconcile-only", false, "reconcile the schema and exit")
	flag.BoolVar(&opts.checkAI, "check-ai", false, "send one short prompt to the AI provider and exit")
	flag.StringVar(&opts.issueToken, "issue-token", "", "print an API token for `subject` and exit")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", 30*24*time.Hour, "lifetime of tokens from --issue-token")
	flag.Parse()

	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.issueToken != "" {
		return issueToken(opts)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.port > 0 {
		cfg.Port = opts.port
	}

	gateway, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}
	if opts.checkAI {
		return checkAI(ctx, gateway, os.Stdout)
	}

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, server.Version, cfg.OTELInsecure)
	if err != nil {
		return err
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	provider, err := db.Open(cfg.ConnString())
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := db.NewReconciler(provider, logger).Run(ctx); err != nil {
		return err
	}
	if opts.reconcileOnly {
		logger.Info("schema reconciled, exiting")
		return nil
	}

	if err := telemetry.RegisterDBStats(telemetry.Meter(), provider.Stats); err != nil {
		logger.Warn("db metrics disabled", "error", err)
	}

	handler := server.New(server.Deps{
		Tasks:          tasks.NewStore(provider),
		Ideas:          ideas.NewStore(provider),
		Settings:       settings.NewStore(provider),
		Stats:          analytics.NewService(provider),
		AI:             gateway,
		Logger:         logger,
		Ping:           provider.Ping,
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if cfg.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, /api is open")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api server listening", "addr", srv.Addr, "version", server.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}

func newGateway(cfg *config.Config, logger *slog.Logger) (*ai.Gateway, error) {
	gateway := ai.NewGateway(nil, cfg.CredentialEnv(), logger)
	key := cfg.LLMAPIKey()
	if key == "" {
		logger.Warn("ai endpoints disabled", "missing", cfg.CredentialEnv())
		return gateway, nil
	}
	p, err := ai.NewProvider(cfg.LLMProvider, key, cfg.LLMModel, cfg.LLMBaseURL)
	if err != nil {
		return nil, err
	}
	gateway.Provider = p
	logger.Info("ai provider configured", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	return gateway, nil
}

// checkAI verifies the configured credential with one small request.
func checkAI(ctx context.Context, g *ai.Gateway, w io.Writer) error {
	if !g.Enabled() {
		return fmt.Errorf("check ai: %s is not set", g.CredentialEnv)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	blocks, err := g.Feedback(ctx, "Reply with the single word OK.")
	if err != nil {
		return fmt.Errorf("check ai: %w", err)
	}
	if len(blocks) == 0 {
		return errors.New("check ai: provider returned no text")
	}
	fmt.Fprintf(w, "AI provider reachable, reply: %s\n", blocks[0].Text)
	return nil
}

func issueToken(opts options) error {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return errors.New("AUTH_JWT_SECRET is required to issue tokens")
	}
	tok, err := auth.GenerateToken([]byte(secret), opts.issueToken, opts.tokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
