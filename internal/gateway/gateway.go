// ABOUTME: Gateway that wires the session store, webhook client, side channel and turn service
// ABOUTME: Serves turns over HTTP and owns the lifecycle of every component

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/lex-gateway/internal/config"
	"github.com/2389/lex-gateway/internal/notify"
	"github.com/2389/lex-gateway/internal/rasa"
	"github.com/2389/lex-gateway/internal/session"
	"github.com/2389/lex-gateway/internal/store"
	"github.com/2389/lex-gateway/internal/turn"
)

// Gateway owns the turn service and the HTTP server in front of it.
// The Lambda entry point uses the same Gateway without calling Run.
type Gateway struct {
	config     *config.Config
	store      store.SessionStore
	sink       notify.Sink
	turns      *turn.Service
	httpServer *http.Server
	logger     *slog.Logger

	// endpoint is the resolved webhook URL, empty when unconfigured
	endpoint string
}

// OpenStore creates the session store selected by sessions.backend.
// The store is not set up; callers run Setup once before serving.
func OpenStore(ctx context.Context, cfg config.SessionsConfig) (store.SessionStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		return s, nil
	case config.BackendDynamoDB:
		s, err := store.NewDynamoStore(ctx, store.DynamoConfig{
			Table:    cfg.Table,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing dynamodb store: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return store.NewMockStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// ResolveEndpoint returns webhook.url when set, else the URL derived from webhook.host.
func ResolveEndpoint(cfg config.WebhookConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return rasa.EndpointURL(cfg.Host)
}

// New creates a Gateway. The session store is opened and set up here, once,
// so no turn ever pays for table creation.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := OpenStore(ctx, cfg.Sessions)
	if err != nil {
		return nil, err
	}
	if err := s.Setup(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("setting up session store: %w", err)
	}

	return newWithStore(cfg, s, notify.New(cfg.MQTT, logger), logger), nil
}

// newWithStore assembles a Gateway around an already prepared store and sink.
func newWithStore(cfg *config.Config, s store.SessionStore, sink notify.Sink, logger *slog.Logger) *Gateway {
	endpoint := ResolveEndpoint(cfg.Webhook)

	var cache *session.Cache
	if cfg.Sessions.CacheEnabled() {
		cache = session.NewCache(cfg.Sessions.CacheTTL, cfg.Sessions.CacheSize)
	}
	tracker := session.NewTracker(s, cache, logger)
	client := rasa.NewClient(cfg.Webhook.Timeout, logger)

	gw := &Gateway{
		config:   cfg,
		store:    s,
		sink:     sink,
		endpoint: endpoint,
		logger:   logger.With("component", "gateway"),
		turns: turn.New(turn.Config{
			Endpoint: endpoint,
			Identity: identityKeys(cfg.Identity),
		}, tracker, client, sink, logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)
	mux.HandleFunc("/lex/turn", gw.handleTurn)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if endpoint == "" {
		gw.logger.Warn("webhook not configured, turns will be answered with a configuration error")
	}
	gw.logger.Info("gateway initialized",
		"session_backend", cfg.Sessions.Backend,
		"webhook", endpoint,
		"mqtt_enabled", cfg.MQTT.Enabled(),
		"session_cache", cfg.Sessions.CacheEnabled(),
	)
	return gw
}

// Turns returns the turn service.
func (g *Gateway) Turns() *turn.Service {
	return g.turns
}

// Handler returns the HTTP handler serving turns and health checks.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until ctx is canceled or the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and closes the sink and the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "sink close", g.sink.Close())
	errs = appendCloseError(errs, "store close", g.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := g.store.Ping(ctx); err != nil {
		g.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("session store unavailable"))
		return
	}
	if g.endpoint == "" {
		// Turns still get an answer, so this is reported but not fatal
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready (webhook not configured)"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
