// Package api exposes profile resolution and definition management over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goprofiles/internal/audit"
	"github.com/TimurManjosov/goprofiles/internal/logging"
	"github.com/TimurManjosov/goprofiles/internal/snapshot"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/telemetry"
	"github.com/TimurManjosov/goprofiles/internal/webhook"
)

// Reload triggers recorded in metrics.
const (
	TriggerStartup = "startup"
	TriggerAdmin   = "admin"
	TriggerBus     = "bus"
)

// Publisher tells other instances about a new registry.
type Publisher interface {
	Publish(ctx context.Context, etag string) error
}

// Notifier forwards definition changes to external subscribers.
type Notifier interface {
	Dispatch(event webhook.Event) bool
}

// Options configure a Server. Audit, Publisher and Notifier are optional.
type Options struct {
	AdminAPIKey    string
	RateLimitPerIP int
	Snapshot       snapshot.Options
	Audit          *audit.Service
	Publisher      Publisher
	Notifier       Notifier
	Environment    string
	Logger         zerolog.Logger
}

type Server struct {
	store  store.Store
	opts   Options
	logger zerolog.Logger

	// rebuildMu serializes registry rebuilds so the last write always wins.
	rebuildMu sync.Mutex
}

func NewServer(st store.Store, opts Options) *Server {
	if opts.RateLimitPerIP <= 0 {
		opts.RateLimitPerIP = 600
	}
	return &Server{store: st, opts: opts, logger: opts.Logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(logging.AccessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(telemetry.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// long-lived, so outside the timeout group
	r.Get("/v1/profiles/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))

		r.Get("/v1/profiles", s.handleProfiles)

		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(s.opts.RateLimitPerIP, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(RateLimitedError),
			))
			r.Post("/v1/resolve", s.handleResolve)
			r.Post("/v1/resolve/root", s.handleResolveRoot)
			r.Post("/v1/resolve/data-source", s.handleResolveDataSource)
			r.Post("/v1/resolve/document", s.handleResolveDocument)
		})

		r.Route("/v1/definitions", func(r chi.Router) {
			r.Use(s.authAdmin)
			r.Get("/", s.handleListDefinitions)
			r.Post("/", s.handleUpsertDefinition)
			r.Get("/{id}", s.handleGetDefinition)
			r.Delete("/{id}", s.handleDeleteDefinition)
		})
	})

	return r
}

// Rebuild reloads the registry from the store and makes it active.
func (s *Server) Rebuild(ctx context.Context, trigger string) (*snapshot.Registry, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	reg, err := snapshot.Reload(ctx, s.store, s.opts.Snapshot)
	if err != nil {
		telemetry.RegistryReloads.WithLabelValues(trigger, "error").Inc()
		s.logger.Error().Err(err).Str("trigger", trigger).Msg("registry rebuild failed")
		return nil, err
	}
	telemetry.RegistryReloads.WithLabelValues(trigger, "ok").Inc()
	telemetry.SetRegistryProviders(reg.Providers)

	for id, reason := range reg.Skipped {
		s.logger.Warn().Str("definition", id).Str("reason", reason).Msg("definition skipped")
	}
	s.logger.Info().
		Str("trigger", trigger).
		Str("etag", reg.ETag).
		Int("providers", len(reg.Providers)).
		Int("definitions", reg.Definitions).
		Msg("registry rebuilt")
	return reg, nil
}

// ReloadFromBus is the reload callback for snapshot.RedisBus.Listen.
func (s *Server) ReloadFromBus(ctx context.Context) error {
	_, err := s.Rebuild(ctx, TriggerBus)
	return err
}

// authAdmin requires the admin key as a bearer token.
func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if got == "" {
			UnauthorizedError(w, r, "Missing bearer token")
			return
		}
		if s.opts.AdminAPIKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.AdminAPIKey)) != 1 {
			ForbiddenError(w, r, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
