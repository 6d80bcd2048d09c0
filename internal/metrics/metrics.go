// Package metrics holds the Prometheus collectors of the puzzle service.
//
// All methods are nil-safe so components can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Image load outcomes.
const (
	LoadOK          = "ok"
	LoadSkipped     = "skipped"
	LoadFetchError  = "fetch_error"
	LoadDecodeError = "decode_error"
	LoadTimeout     = "timeout"
	LoadCanceled    = "canceled"
)

// Claim results.
const (
	ClaimOK             = "ok"
	ClaimNotFound       = "not_found"
	ClaimAlreadyClaimed = "already_claimed"
	ClaimRejected       = "rejected"
)

type Metrics struct {
	imageLoads   *prometheus.CounterVec
	claims       *prometheus.CounterVec
	filledPieces prometheus.Gauge
	totalPieces  prometheus.Gauge
	subscribers  prometheus.Gauge
}

// New creates the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		imageLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "puzzle",
			Name:      "image_loads_total",
			Help:      "Source image load attempts by outcome.",
		}, []string{"outcome"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "puzzle",
			Name:      "claims_total",
			Help:      "Piece claim submissions by result.",
		}, []string{"result"}),
		filledPieces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "puzzle",
			Name:      "filled_pieces",
			Help:      "Pieces currently claimed.",
		}),
		totalPieces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "puzzle",
			Name:      "total_pieces",
			Help:      "Pieces in the current event.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "puzzle",
			Name:      "stream_subscribers",
			Help:      "Open live snapshot streams.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.imageLoads, m.claims, m.filledPieces, m.totalPieces, m.subscribers)
	}
	return m
}

func (m *Metrics) ImageLoad(outcome string) {
	if m == nil {
		return
	}
	m.imageLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Claim(result string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(result).Inc()
}

// Progress records the counters of the latest published snapshot.
func (m *Metrics) Progress(filled, total int) {
	if m == nil {
		return
	}
	m.filledPieces.Set(float64(filled))
	m.totalPieces.Set(float64(total))
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}
