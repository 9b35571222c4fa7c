package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Grant kinds and outcomes of docspot_access_grants_total.
const (
	KindPurchase     = "purchase"
	KindFreeDownload = "free_download"
	KindUpvote       = "upvote"

	OutcomeGranted  = "granted"
	OutcomeDegraded = "degraded"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
	OutcomeFailed   = "failed"
)

// Metrics counts access grants by kind and outcome. A nil *Metrics records nothing.
type Metrics struct {
	grants *prometheus.CounterVec
}

// NewMetrics registers the access grant counter on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		grants: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docspot_access_grants_total",
				Help: "Access grant attempts by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
	}
	if err := reg.Register(m.grants); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(kind, outcome string) {
	if m == nil {
		return
	}
	m.grants.WithLabelValues(kind, outcome).Inc()
}
