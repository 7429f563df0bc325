// Package app wires all Ordervox subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithResponder). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/internal/config"
	"github.com/ordervox/ordervox/internal/dialogue"
	"github.com/ordervox/ordervox/internal/engine"
	"github.com/ordervox/ordervox/internal/health"
	"github.com/ordervox/ordervox/internal/observe"
	"github.com/ordervox/ordervox/internal/store"
	pgstore "github.com/ordervox/ordervox/internal/store/postgres"
	"github.com/ordervox/ordervox/internal/telephony"
	"github.com/ordervox/ordervox/internal/utterance"
	"github.com/ordervox/ordervox/internal/utterance/phonetic"
	"github.com/ordervox/ordervox/pkg/responder"
	anyllmresponder "github.com/ordervox/ordervox/pkg/responder/anyllm"
	openairesponder "github.com/ordervox/ordervox/pkg/responder/openai"
)

// shutdownGrace bounds the HTTP server drain once the run context ends.
const shutdownGrace = 10 * time.Second

// App owns all subsystem lifetimes and serves the telephony webhooks.
type App struct {
	cfg *config.Config

	catalog   *catalog.Catalog
	store     store.Store
	responder responder.Responder
	engine    *engine.Engine
	server    *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a session store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithResponder injects a responder instead of creating one from config.
func WithResponder(r responder.Responder) Option {
	return func(a *App) { a.responder = r }
}

// New creates an App by wiring all subsystems together: menu catalog,
// session store, dialogue machine, responder, engine, and the HTTP mux
// with telephony, health, and metrics routes.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if err := a.initCatalog(); err != nil {
		return nil, fmt.Errorf("app: init catalog: %w", err)
	}
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	if err := a.initResponder(); err != nil {
		return nil, fmt.Errorf("app: init responder: %w", err)
	}

	a.initEngine()
	a.initServer()

	return a, nil
}

// initCatalog loads the menu from the configured file or falls back to the
// built-in one.
func (a *App) initCatalog() error {
	if a.cfg.Catalog.Path == "" {
		a.catalog = catalog.Default()
		return nil
	}
	cat, err := catalog.LoadFile(a.cfg.Catalog.Path)
	if err != nil {
		return err
	}
	a.catalog = cat
	slog.Info("loaded menu catalog", "path", a.cfg.Catalog.Path, "items", len(a.catalog.ListItems()))
	return nil
}

// initStore sets up the configured session store or uses the injected one.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil // injected
	}

	switch a.cfg.Store.Backend {
	case config.StorePostgres:
		st, err := pgstore.NewStore(ctx, a.cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		a.store = st
		a.closers = append(a.closers, func() error {
			st.Close()
			return nil
		})
		slog.Info("connected session store", "backend", "postgres")

	case config.StoreMemory, "":
		a.store = store.NewMemStore()
		slog.Info("using in-memory session store")

	default:
		return fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
	return nil
}

// initResponder builds the speech-polish backend, if one is configured.
// Prompts are spoken verbatim when no provider is set.
func (a *App) initResponder() error {
	if a.responder != nil {
		return nil // injected
	}
	rc := a.cfg.Responder
	if rc.Provider == "" {
		return nil
	}

	// The system prompt names one restaurant; with several tenants on one
	// instance the first display name stands in for all of them.
	restaurant := "the pizzeria"
	if len(a.cfg.Tenants) > 0 && a.cfg.Tenants[0].DisplayName != "" {
		restaurant = a.cfg.Tenants[0].DisplayName
	}

	switch rc.Provider {
	case "openai":
		var opts []openairesponder.Option
		if rc.BaseURL != "" {
			opts = append(opts, openairesponder.WithBaseURL(rc.BaseURL))
		}
		if rc.TimeoutMS > 0 {
			opts = append(opts, openairesponder.WithTimeout(time.Duration(rc.TimeoutMS)*time.Millisecond))
		}
		r, err := openairesponder.New(rc.APIKey, rc.Model, restaurant, a.catalog, opts...)
		if err != nil {
			return err
		}
		a.responder = r

	default:
		var opts []anyllmlib.Option
		if rc.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(rc.APIKey))
		}
		if rc.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(rc.BaseURL))
		}
		r, err := anyllmresponder.New(rc.Provider, rc.Model, restaurant, a.catalog, opts...)
		if err != nil {
			return err
		}
		a.responder = r
	}

	slog.Info("responder configured", "provider", rc.Provider, "model", rc.Model)
	return nil
}

// initEngine assembles the extractor, dialogue machine, and turn engine.
func (a *App) initEngine() {
	var matcherOpts []phonetic.Option
	if t := a.cfg.Dialogue.PhoneticThreshold; t > 0 {
		matcherOpts = append(matcherOpts, phonetic.WithPhoneticThreshold(t))
	}
	extractor := utterance.NewExtractor(a.catalog,
		utterance.WithPhoneticMatcher(phonetic.New(matcherOpts...)),
	)

	var machineOpts []dialogue.Option
	if n := a.cfg.Dialogue.MaxFailures; n > 0 {
		machineOpts = append(machineOpts, dialogue.WithMaxFailures(n))
	}
	machine := dialogue.NewMachine(a.catalog, extractor, machineOpts...)

	engineOpts := []engine.Option{}
	if a.responder != nil {
		engineOpts = append(engineOpts, engine.WithResponder(a.responder))
	}
	if ms := a.cfg.Responder.TimeoutMS; ms > 0 {
		engineOpts = append(engineOpts, engine.WithRephraseTimeout(time.Duration(ms)*time.Millisecond))
	}
	a.engine = engine.New(a.store, machine, engineOpts...)
}

// initServer builds the HTTP mux: telephony webhooks, health endpoints, and
// the Prometheus scrape route, all behind the observability middleware.
func (a *App) initServer() {
	tenants := make(map[string]telephony.Tenant, len(a.cfg.Tenants))
	for _, t := range a.cfg.Tenants {
		tenants[t.TwilioNumber] = telephony.Tenant{ID: t.ID, DisplayName: t.DisplayName}
	}

	var handlerOpts []telephony.Option
	if a.cfg.Dialogue.Language != "" {
		handlerOpts = append(handlerOpts, telephony.WithLanguage(a.cfg.Dialogue.Language))
	}
	webhook := telephony.NewHandler(a.engine, telephony.NewTenantResolver(tenants), handlerOpts...)

	mux := http.NewServeMux()
	webhook.Register(mux)
	health.New(health.StoreChecker(a.store.Ping)).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Handler exposes the assembled HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("serving HTTPS", "addr", a.server.Addr)
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("serving HTTP", "addr", a.server.Addr)
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.server.Shutdown(drainCtx); err != nil {
			slog.Warn("server drain error", "err", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
