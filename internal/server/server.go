// Package server assembles the HTTP router for the lead-intake service and
// owns its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/httpapi"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/observability"
	"lead-intake/internal/diagnostics"
	"lead-intake/internal/forms"
	"lead-intake/internal/forms/funding"
	"lead-intake/internal/forms/newsletter"
	"lead-intake/internal/forms/partnership"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HealthRoute  = "/health"
	ReadyRoute   = "/ready"
	MetricsRoute = "/metrics"

	readyTimeout = 2 * time.Second
)

// Pinger is a backing service checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators shared by every route.
type Dependencies struct {
	CRM           forms.ContactUpserter
	Notifier      forms.Notifier
	Diagnostics   diagnostics.HandlerOptions
	Observability *observability.Observability
	Readiness     map[string]Pinger
	Logger        logger.Logger
}

type Server struct {
	cfg        *config.Config
	logger     logger.Logger
	readiness  map[string]Pinger
	router     chi.Router
	httpServer *http.Server
}

func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server requires a configuration")
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	}

	s := &Server{
		cfg:       cfg,
		logger:    log,
		readiness: deps.Readiness,
	}

	router, err := s.routes(deps)
	if err != nil {
		return nil, err
	}
	s.router = router
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: config.GetDuration(cfg.Server.ReadHeaderTimeout),
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(deps Dependencies) (chi.Router, error) {
	newsletterHandler, err := newsletter.NewHandler(newsletter.HandlerOptions{
		AppConfig: s.cfg,
		CRM:       deps.CRM,
		Notifier:  deps.Notifier,
		Logger:    s.logger.With(map[string]interface{}{"form": "newsletter"}),
	})
	if err != nil {
		return nil, err
	}
	partnershipHandler, err := partnership.NewHandler(partnership.HandlerOptions{
		AppConfig: s.cfg,
		CRM:       deps.CRM,
		Notifier:  deps.Notifier,
		Logger:    s.logger.With(map[string]interface{}{"form": "partnership"}),
	})
	if err != nil {
		return nil, err
	}
	fundingHandler, err := funding.NewHandler(funding.HandlerOptions{
		AppConfig: s.cfg,
		CRM:       deps.CRM,
		Notifier:  deps.Notifier,
		Logger:    s.logger.With(map[string]interface{}{"form": "funding"}),
	})
	if err != nil {
		return nil, err
	}

	diagOpts := deps.Diagnostics
	if diagOpts.Logger == nil {
		diagOpts.Logger = s.logger.With(map[string]interface{}{"component": "diagnostics"})
	}
	if diagOpts.MaxBodyBytes == 0 {
		diagOpts.MaxBodyBytes = s.cfg.Server.MaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.RequestLogger(s.logger))
	r.Use(httpapi.WithCORS(s.cfg.Server.AllowedOrigins))
	r.Use(deps.Observability.Middleware)

	r.Get(HealthRoute, s.health)
	r.Get(ReadyRoute, s.ready)
	r.Handle(MetricsRoute, promhttp.Handler())

	r.Post(newsletter.Route, newsletterHandler.ServeHTTP)
	r.Post(partnership.Route, partnershipHandler.ServeHTTP)
	r.Post(funding.Route, fundingHandler.ServeHTTP)
	r.Post(funding.StepRoute, fundingHandler.ValidateStep)

	if diagOpts.Lists != nil && diagOpts.Mailer != nil {
		diag := diagnostics.NewHandler(diagOpts)
		r.Group(func(r chi.Router) {
			r.Use(httpapi.RequireBearer(s.cfg.Server.AdminToken))
			diag.Register(r)
		})
	} else {
		s.logger.Warn("diagnostics routes disabled", nil)
	}

	return r, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(s.readiness))
	status := http.StatusOK
	for name, p := range s.readiness {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	httpapi.WriteJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"address": ln.Addr().String()})
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
