package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application metrics shared by the API and the worker.
var (
	OutboxEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_outbox_events_processed_total",
		Help: "Total number of successfully published outbox events",
	})

	OutboxEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_outbox_events_failed_total",
		Help: "Total number of outbox events that failed to publish",
	})

	OutboxProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clinic_outbox_processing_duration_seconds",
		Help:    "Time spent processing a batch of outbox events",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	DatabaseOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_database_operations_total",
		Help: "Total number of database operations",
	}, []string{"operation", "status"})

	AppointmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_appointment_transitions_total",
		Help: "Appointment status transitions by action and outcome",
	}, []string{"action", "outcome"})
)
