// Package metrics exposes game counters on a Prometheus registry. The
// Recorder implements the match engine's Stats interface so the game core
// stays free of any metrics dependency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geoclash/geoclash/internal/geoclash"
)

type Recorder struct {
	registry       *prometheus.Registry
	matchesStarted *prometheus.CounterVec
	matchesEnded   *prometheus.CounterVec
	roundsSettled  *prometheus.CounterVec
	verdicts       *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		matchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclash_matches_started_total",
			Help: "Matches paired and started, by game type.",
		}, []string{"game_type"}),
		matchesEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclash_matches_ended_total",
			Help: "Matches completed, by terminal resolution.",
		}, []string{"resolution"}),
		roundsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclash_rounds_settled_total",
			Help: "Rounds settled, by resolution.",
		}, []string{"resolution"}),
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclash_verdicts_total",
			Help: "Answer verification verdicts, by kind.",
		}, []string{"kind"}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) MatchStarted(gt geoclash.GameType) {
	r.matchesStarted.WithLabelValues(string(gt)).Inc()
}

func (r *Recorder) MatchEnded(res geoclash.Resolution) {
	r.matchesEnded.WithLabelValues(string(res)).Inc()
}

func (r *Recorder) RoundSettled(res geoclash.Resolution) {
	r.roundsSettled.WithLabelValues(string(res)).Inc()
}

func (r *Recorder) Verdict(kind geoclash.VerdictKind) {
	r.verdicts.WithLabelValues(string(kind)).Inc()
}
