// Package metrics records engine counters to OpenTelemetry and mirrors them
// into a Prometheus registry that can be scraped over HTTP.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/litescript/ls-orbits/internal/metrics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Recorder holds the engine instruments. A nil *Recorder records nothing.
type Recorder struct {
	otelTicks       metric.Int64Counter
	otelInvalid     metric.Int64Counter
	otelPicks       metric.Int64Counter
	otelConjunction metric.Int64Counter
	otelTransitions metric.Int64Counter

	registry     *prometheus.Registry
	ticks        prometheus.Counter
	invalid      prometheus.Counter
	picks        *prometheus.CounterVec
	conjunctions prometheus.Counter
	transitions  *prometheus.CounterVec
	tickDuration prometheus.Histogram
}

// NewRecorder creates the instruments against the global meter provider and
// a private Prometheus registry.
func NewRecorder() (*Recorder, error) {
	m := meter()
	r := &Recorder{registry: prometheus.NewRegistry()}

	var err error
	if r.otelTicks, err = m.Int64Counter("engine.ticks",
		metric.WithDescription("Animation ticks processed")); err != nil {
		return nil, err
	}
	if r.otelInvalid, err = m.Int64Counter("engine.propagation.invalid",
		metric.WithDescription("Propagations that produced no usable state")); err != nil {
		return nil, err
	}
	if r.otelPicks, err = m.Int64Counter("engine.picks",
		metric.WithDescription("Pointer picks resolved")); err != nil {
		return nil, err
	}
	if r.otelConjunction, err = m.Int64Counter("engine.conjunctions",
		metric.WithDescription("Proximity threshold crossings")); err != nil {
		return nil, err
	}
	if r.otelTransitions, err = m.Int64Counter("engine.transitions",
		metric.WithDescription("Trajectory transitions started and finished")); err != nil {
		return nil, err
	}

	r.ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ls_orbits_ticks_total",
		Help: "Animation ticks processed",
	})
	r.invalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ls_orbits_invalid_propagations_total",
		Help: "Propagations that produced no usable state",
	})
	r.picks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_orbits_picks_total",
		Help: "Pointer picks resolved",
	}, []string{"result"})
	r.conjunctions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ls_orbits_conjunctions_total",
		Help: "Proximity threshold crossings",
	})
	r.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_orbits_transitions_total",
		Help: "Trajectory transitions by phase",
	}, []string{"phase"})
	r.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ls_orbits_tick_duration_seconds",
		Help:    "Time spent in one animation tick",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	r.registry.MustRegister(r.ticks, r.invalid, r.picks, r.conjunctions, r.transitions, r.tickDuration)
	return r, nil
}

// Tick records one processed tick and how long it took.
func (r *Recorder) Tick(d time.Duration) {
	if r == nil {
		return
	}
	r.otelTicks.Add(context.Background(), 1)
	r.ticks.Inc()
	r.tickDuration.Observe(d.Seconds())
}

// InvalidPropagations records n objects hidden because propagation failed.
func (r *Recorder) InvalidPropagations(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.otelInvalid.Add(context.Background(), int64(n))
	r.invalid.Add(float64(n))
}

// Pick records a resolved pick.
func (r *Recorder) Pick(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.otelPicks.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("result", result)))
	r.picks.WithLabelValues(result).Inc()
}

// Conjunction records a proximity trigger.
func (r *Recorder) Conjunction() {
	if r == nil {
		return
	}
	r.otelConjunction.Add(context.Background(), 1)
	r.conjunctions.Inc()
}

// Transition records a transition phase change ("start" or "done").
func (r *Recorder) Transition(phase string) {
	if r == nil {
		return
	}
	r.otelTransitions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("phase", phase)))
	r.transitions.WithLabelValues(phase).Inc()
}

// Handler serves the Prometheus registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
