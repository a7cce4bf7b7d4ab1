package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the team management module. Tracks
// membership mutation counts, authorization denials, and critical path
// durations.
type Metrics struct {
	Assignments       prometheus.Counter
	Removals          prometheus.Counter
	RoleChanges       prometheus.Counter
	Recalculations    prometheus.Counter
	ConflictRetries   prometheus.Counter
	AuthzDenials      *prometheus.CounterVec
	MutationDuration  prometheus.Histogram
	RecalcAllDuration prometheus.Histogram
}

// New creates a Metrics instance with all team module metrics registered.
func New() *Metrics {
	return &Metrics{
		Assignments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crew_team_assignments_total",
			Help: "Total number of successful team assignments",
		}),
		Removals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crew_team_removals_total",
			Help: "Total number of successful team removals",
		}),
		RoleChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crew_team_role_changes_total",
			Help: "Total number of successful role changes",
		}),
		Recalculations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crew_permission_recalculations_total",
			Help: "Total number of effective permission recalculations",
		}),
		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crew_profile_write_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts surfaced to callers",
		}),
		AuthzDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crew_authz_denials_total",
			Help: "Total number of authorization denials by reason",
		}, []string{"reason"}),
		MutationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crew_team_mutation_duration_seconds",
			Help:    "Duration of single-user membership mutations (assign/remove/role change)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RecalcAllDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crew_recalculate_all_duration_seconds",
			Help:    "Duration of full-staff permission recalculation passes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}

// ObserveMutation records the duration of one membership mutation.
func (m *Metrics) ObserveMutation(start time.Time) {
	m.MutationDuration.Observe(time.Since(start).Seconds())
}

// ObserveRecalcAll records the duration of a full recalculation pass.
func (m *Metrics) ObserveRecalcAll(start time.Time) {
	m.RecalcAllDuration.Observe(time.Since(start).Seconds())
}

// IncrementDenial records an authorization denial with its reason label.
func (m *Metrics) IncrementDenial(reason string) {
	m.AuthzDenials.WithLabelValues(reason).Inc()
}
