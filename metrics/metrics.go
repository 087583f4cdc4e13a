package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dentabot_turns_total",
			Help: "Total number of message turns handled, by routed action",
		},
		[]string{"action"},
	)

	TurnErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dentabot_turn_errors_total",
			Help: "Total number of turns that ended with a failure reply",
		},
		[]string{"kind"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dentabot_turn_duration_seconds",
			Help:    "Duration of message turn processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CollaboratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dentabot_collaborator_requests_total",
			Help: "Total number of calls to external collaborators",
		},
		[]string{"collaborator", "outcome"},
	)

	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dentabot_collaborator_duration_seconds",
			Help:    "Duration of calls to external collaborators in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collaborator"},
	)

	MembersWelcomed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dentabot_members_welcomed_total",
			Help: "Total number of welcome messages sent to new members",
		},
	)
)

// ObserveCollaborator records one collaborator call started at start.
func ObserveCollaborator(collaborator string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CollaboratorRequests.WithLabelValues(collaborator, outcome).Inc()
	CollaboratorDuration.WithLabelValues(collaborator).Observe(time.Since(start).Seconds())
}
