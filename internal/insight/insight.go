// Package insight talks to the natural-language collaborator that turns
// analysis bundles into prose. Every call is best-effort: callers always get
// text back, falling back to locally written sentences.
package insight

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultTimeout bounds a single collaborator call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnavailable indicates no collaborator is configured.
	ErrUnavailable = errors.New("insight: generator unavailable")
	// ErrEmpty indicates the collaborator answered with no text.
	ErrEmpty = errors.New("insight: empty response")
)

var narrations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "famspend",
	Name:      "narrations_total",
	Help:      "Narrative requests by kind and by whether the collaborator or the local fallback answered.",
}, []string{"kind", "source"})

// Generator produces narrative text from an analysis bundle.
type Generator interface {
	GenerateInsights(ctx context.Context, bundle any) (string, error)
	GeneratePredictionNarrative(ctx context.Context, bundle any) (string, error)
}

// Nop is the generator used when no API key is configured.
type Nop struct{}

func (Nop) GenerateInsights(context.Context, any) (string, error) { return "", ErrUnavailable }

func (Nop) GeneratePredictionNarrative(context.Context, any) (string, error) {
	return "", ErrUnavailable
}

// Result is the outcome of a guarded narrative call.
type Result struct {
	Text   string
	FromAI bool
	Err    error // collaborator error that triggered the fallback, if any
}

// Narrate runs call under timeout and returns its text, or fallback() when
// the call fails, times out or returns nothing. kind labels the metric.
func Narrate(ctx context.Context, kind string, timeout time.Duration, call func(context.Context) (string, error), fallback func() string) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := call(ctx)
		done <- answer{text, err}
	}()

	var err error
	select {
	case a := <-done:
		err = a.err
		if err == nil && strings.TrimSpace(a.text) == "" {
			err = ErrEmpty
		}
		if err == nil {
			narrations.WithLabelValues(kind, "ai").Inc()
			return Result{Text: strings.TrimSpace(a.text), FromAI: true}
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	narrations.WithLabelValues(kind, "fallback").Inc()
	return Result{Text: fallback(), Err: err}
}
