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

	"github.com/p-n-ai/pai-insights/internal/ai"
	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/api"
	"github.com/p-n-ai/pai-insights/internal/insights"
	"github.com/p-n-ai/pai-insights/internal/memory"
	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/platform/cache"
	"github.com/p-n-ai/pai-insights/internal/platform/config"
	"github.com/p-n-ai/pai-insights/internal/platform/database"
	"github.com/p-n-ai/pai-insights/internal/quizgen"
	"github.com/p-n-ai/pai-insights/internal/store"
)

const (
	migrateTimeout = 30 * time.Second
	sweepInterval  = time.Minute
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	bg, cancel := context.WithCancel(ctx)
	defer cancel()
	a.start(bg, cfg)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store, "ai", a.llm != nil)
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
	}
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	a.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// app holds the wired components of the server.
type app struct {
	handler  http.Handler
	svc      *insights.Service
	sessions *memory.Sessions
	hub      *notify.Hub
	llm      ai.Completer
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{hub: notify.NewHub()}

	repo, events, checks, err := a.openStore(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	dayCache, cacheCheck, err := a.openCache(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	if cacheCheck != nil {
		checks = append(checks, *cacheCheck)
	}

	thresholds, err := analytics.LoadThresholds(cfg.Analytics.ThresholdsPath)
	if err != nil {
		a.close()
		return nil, err
	}
	bank, err := quizgen.LoadBank(cfg.Quiz.BankPath)
	if err != nil {
		a.close()
		return nil, err
	}

	a.llm = newCompleter(cfg)
	if a.llm != nil {
		a.sessions = memory.NewSessions(botFactory(cfg, a.llm, newEmbedder(cfg)), cfg.Memory.SessionIdle)
	} else {
		slog.Warn("no AI provider configured, replies and quizzes use fallbacks")
	}

	a.svc = insights.New(insights.Config{
		Store:               repo,
		Analyzer:            analytics.NewAnalyzer(thresholds, nil),
		LLM:                 a.llm,
		Events:              events,
		Push:                a.hub,
		Sessions:            a.sessions,
		InterventionTimeout: cfg.AI.RequestTimeout,
	})
	quizzes := quizgen.New(a.llm, dayCache, bank, quizgen.Options{
		Subjects: cfg.Quiz.Subjects,
		Count:    cfg.Quiz.QuestionsPerSubject,
	})

	a.handler = api.NewHandler(api.Config{
		Service: a.svc,
		Quizzes: quizzes,
		Push:    a.hub,
		Checks:  checks,
	})
	return a, nil
}

// start launches the session sweeper and the notification job.
func (a *app) start(ctx context.Context, cfg *config.Config) {
	if a.sessions != nil {
		go a.sessions.Run(ctx, sweepInterval)
	}
	go notify.NewJob(a.svc, cfg.Notifications.Interval).Run(ctx)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config) (store.Repository, store.EventLogger, []api.Check, error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		st := store.NewMemoryStore()
		return st, store.NopEventLogger{}, []api.Check{{Name: "store", Ping: st.Ping}}, nil
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	st, err := store.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, st, migrateTimeout); err != nil {
		return nil, nil, nil, err
	}
	slog.Info("database ready", "max_conns", cfg.Database.MaxConns)
	return st, store.NewPostgresEventLogger(db.Pool), []api.Check{{Name: "database", Ping: db.HealthCheck}}, nil
}

func (a *app) openCache(ctx context.Context, cfg *config.Config) (cache.DayCache, *api.Check, error) {
	if cfg.Cache.URL == "" {
		return cache.NewMemoryDayCache(time.Now), nil, nil
	}
	c, err := cache.New(ctx, cfg.Cache.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect cache: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := c.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	})
	return cache.NewRedisDayCache(c.Client, "insights:"), &api.Check{Name: "cache", Ping: c.HealthCheck}, nil
}

// newCompleter registers every configured provider on a router, in
// fallback order. It returns nil when none is configured.
func newCompleter(cfg *config.Config) ai.Completer {
	if !cfg.HasAIProvider() {
		return nil
	}
	client := &http.Client{Timeout: cfg.AI.RequestTimeout}
	router := ai.NewRouter()

	if key := cfg.AI.OpenAI.APIKey; key != "" {
		opts := []ai.OpenAIOption{ai.WithHTTPClient(client)}
		if cfg.AI.OpenAI.Model != "" {
			opts = append(opts, ai.WithDefaultModel(cfg.AI.OpenAI.Model))
		}
		router.Register("openai", ai.NewOpenAIProvider(key, opts...))
	}
	if key := cfg.AI.DeepSeek.APIKey; key != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(key, ai.WithHTTPClient(client)))
	}
	if cfg.AI.Ollama.Enabled {
		opts := []ai.OllamaOption{ai.WithOllamaHTTPClient(client)}
		if cfg.AI.Ollama.Model != "" {
			opts = append(opts, ai.WithOllamaModel(cfg.AI.Ollama.Model))
		}
		router.Register("ollama", ai.NewOllamaProvider(cfg.AI.Ollama.URL, opts...))
	}
	return router
}

func newEmbedder(cfg *config.Config) ai.Embedder {
	if cfg.AI.Embedding.Provider == config.EmbeddingOllama {
		return ai.NewOllamaEmbedder(cfg.AI.Ollama.URL, cfg.AI.Embedding.Model, &http.Client{Timeout: cfg.AI.RequestTimeout})
	}
	return ai.NewHashEmbedder(cfg.AI.Embedding.Dim)
}

func botFactory(cfg *config.Config, llm ai.Completer, embedder ai.Embedder) memory.BotFactory {
	mc := memory.Config{
		MaxTurns:       cfg.Memory.MaxTurns,
		SummarizeEvery: cfg.Memory.SummarizeEvery,
		TopK:           cfg.Memory.TopK,
	}
	summarize := memory.LLMSummarizer(llm)
	return func(persona string) *memory.Bot {
		return memory.NewBot(persona, llm, memory.NewHybrid(mc, summarize, embedder), cfg.AI.RequestTimeout)
	}
}

func newLogger(c config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
