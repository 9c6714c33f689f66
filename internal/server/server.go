// Package server provides the long-running HTTP API: analytics endpoints, a
// chat websocket, Prometheus metrics and the scheduled forecast refresh.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/service"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr string
	// Schedule is a cron spec for the forecast refresh, empty disables it.
	Schedule string
	// RefreshInterval skips families refreshed more recently than this.
	RefreshInterval time.Duration
	// Families to refresh. Empty means every family with expenses.
	Families []string
}

// FamilyLister enumerates the families known to the store.
type FamilyLister interface {
	Families(ctx context.Context) ([]string, error)
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time            `json:"started_at"`
	Schedule        string               `json:"schedule,omitempty"`
	RefreshInterval string               `json:"refresh_interval"`
	RefreshCount    int64                `json:"refresh_count"`
	LastRefreshAt   time.Time            `json:"last_refresh_at"`
	LastRuns        map[string]time.Time `json:"last_runs"`
	LastError       string               `json:"last_error,omitempty"`
	ChatClients     int                  `json:"chat_clients"`
}

// Server provides the HTTP API and the refresh scheduler.
type Server struct {
	cfg      Config
	svc      *service.Service
	families FamilyLister
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu            sync.RWMutex
	startedAt     time.Time
	lastRuns      map[string]time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	chatClients   int
}

// New returns a server for svc.
func New(svc *service.Service, families FamilyLister, cfg Config, log logrus.FieldLogger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 24 * time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:       cfg,
		svc:       svc,
		families:  families,
		log:       log,
		startedAt: time.Now(),
		lastRuns:  make(map[string]time.Time),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the router with every endpoint mounted.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	fam := r.PathPrefix("/v1/families/{family}").Subrouter()
	fam.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	fam.HandleFunc("/compare", s.handleCompare).Methods(http.MethodGet)
	fam.HandleFunc("/drill/{granularity}/{key}", s.handleDrill).Methods(http.MethodGet)
	fam.HandleFunc("/predictions", s.handleListPredictions).Methods(http.MethodGet)
	fam.HandleFunc("/predictions", s.handlePredict).Methods(http.MethodPost)
	fam.HandleFunc("/predictions/linear", s.handlePredictLinear).Methods(http.MethodPost)
	fam.HandleFunc("/anomaly", s.handleAnomaly).Methods(http.MethodGet)
	fam.HandleFunc("/goals", s.handleFamilyGoals).Methods(http.MethodGet)
	fam.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	fam.HandleFunc("/chat", s.handleChat).Methods(http.MethodGet)

	goal := r.PathPrefix("/v1/goals/{goal}").Subrouter()
	goal.HandleFunc("", s.handleGoalProgress).Methods(http.MethodGet)
	goal.HandleFunc("/compare", s.handleGoalCompare).Methods(http.MethodGet)
	goal.HandleFunc("/suggestions", s.handleGoalSuggestions).Methods(http.MethodGet)
	goal.HandleFunc("/forecast", s.handleGoalForecast).Methods(http.MethodGet)
	goal.HandleFunc("/analysis", s.handleGoalAnalysis).Methods(http.MethodGet)

	return r
}

// Run serves HTTP and runs the refresh schedule until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sched := cron.New()
	if s.cfg.Schedule != "" {
		if _, err := sched.AddFunc(s.cfg.Schedule, func() { s.RefreshAll(ctx) }); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", s.cfg.Schedule, err)
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.WithFields(logrus.Fields{"addr": s.cfg.Addr, "schedule": s.cfg.Schedule}).Info("server started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make(map[string]time.Time, len(s.lastRuns))
	for k, v := range s.lastRuns {
		runs[k] = v
	}
	return Status{
		StartedAt:       s.startedAt,
		Schedule:        s.cfg.Schedule,
		RefreshInterval: s.cfg.RefreshInterval.String(),
		RefreshCount:    s.refreshCount,
		LastRefreshAt:   s.lastRefreshAt,
		LastRuns:        runs,
		LastError:       s.lastError,
		ChatClients:     s.chatClients,
	}
}
