package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var refreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "famspend",
	Name:      "forecast_refresh_total",
	Help:      "Scheduled forecast refresh attempts per family by outcome.",
}, []string{"outcome"})

// RefreshAll runs the linear forecast for every family whose last run is
// older than the refresh interval. Failures are logged and recorded per family.
func (s *Server) RefreshAll(ctx context.Context) {
	families := s.cfg.Families
	if len(families) == 0 && s.families != nil {
		var err error
		families, err = s.families.Families(ctx)
		if err != nil {
			s.recordError(err)
			s.log.WithError(err).Error("listing families for refresh")
			return
		}
	}

	for _, fam := range families {
		s.mu.RLock()
		last := s.lastRuns[fam]
		s.mu.RUnlock()

		ranAt, pred, err := s.svc.Refresh(ctx, fam, last, s.cfg.RefreshInterval)
		log := s.log.WithField("family", fam)
		switch {
		case err != nil:
			refreshRuns.WithLabelValues("error").Inc()
			s.recordError(err)
			log.WithError(err).Warn("forecast refresh failed")
		case pred == nil:
			refreshRuns.WithLabelValues("fresh").Inc()
			log.Debug("forecast still fresh")
		default:
			refreshRuns.WithLabelValues("ran").Inc()
			log.WithFields(logrus.Fields{
				"month":  pred.PredictedMonth,
				"year":   pred.PredictedYear,
				"amount": pred.PredictedAmount.String(),
			}).Info("forecast refreshed")
		}

		s.mu.Lock()
		s.lastRuns[fam] = ranAt
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.refreshCount++
	s.lastRefreshAt = s.svc.Now()
	s.mu.Unlock()
}

func (s *Server) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}
