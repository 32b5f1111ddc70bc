package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/exposure"
	"github.com/rustyeddy/tradeguard/metrics"
	"github.com/rustyeddy/tradeguard/risk"
	"github.com/rustyeddy/tradeguard/validation"
)

type Config struct {
	Addr         string
	RateLimit    float64 // requests per second, 0 disables
	Burst        int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		RateLimit:    20,
		Burst:        40,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Deps are the engine components the handlers call. Validator is required;
// Discipline enables the stored-history route.
type Deps struct {
	Validator           *validation.Validator
	Discipline          *discipline.Service
	Metrics             *metrics.Collector
	MaxCurrencyExposure float64
}

type Server struct {
	router  *mux.Router
	server  *http.Server
	deps    Deps
	limiter *rate.Limiter
	config  Config
}

func New(cfg Config, deps Deps) *Server {
	if deps.Validator == nil {
		deps.Validator = validation.New(validation.WithMetrics(deps.Metrics))
	}
	if deps.MaxCurrencyExposure <= 0 {
		deps.MaxCurrencyExposure = exposure.DefaultMaxCurrencyExposure
	}
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		config: cfg,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/validate", s.validate).Methods(http.MethodPost)
	api.HandleFunc("/size", s.size).Methods(http.MethodPost)
	api.HandleFunc("/exposure", s.exposure).Methods(http.MethodPost)
	api.HandleFunc("/propfirm/validate", s.propFirmValidate).Methods(http.MethodPost)
	api.HandleFunc("/propfirm/health", s.propFirmHealth).Methods(http.MethodPost)
	api.HandleFunc("/propfirm/presets", s.propFirmPresets).Methods(http.MethodGet)
	api.HandleFunc("/discipline", s.disciplineScore).Methods(http.MethodPost)
	api.HandleFunc("/discipline/{account}/{day}", s.disciplineDay).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.config.Addr).Msg("http server listening")
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) sizer() *risk.Sizer {
	return s.deps.Validator.Sizer
}
