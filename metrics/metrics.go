package metrics

import (
	"context"
	"strconv"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts attempt transitions. It is registered as an attempt
// observer.
type Recorder struct {
	started    prometheus.Counter
	completed  *prometheus.CounterVec
	percentage prometheus.Histogram
	conflicts  *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		started: factory.NewCounter(prometheus.CounterOpts{
			Name: "quizmaster_attempts_started_total",
			Help: "Total number of quiz attempts started",
		}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quizmaster_attempts_completed_total",
			Help: "Total number of quiz attempts completed",
		}, []string{"passed"}),
		percentage: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quizmaster_attempt_percentage",
			Help:    "Percentage scored by completed attempts",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quizmaster_attempt_conflicts_total",
			Help: "Attempt operations rejected because of the attempt's state",
		}, []string{"operation"}),
	}
}

func (r *Recorder) AttemptStarted(ctx context.Context, attempt *models.Attempt) {
	r.started.Inc()
}

func (r *Recorder) AttemptCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults) {
	r.completed.WithLabelValues(strconv.FormatBool(results.Passed)).Inc()
	r.percentage.Observe(float64(results.Score))
}

func (r *Recorder) AttemptConflict(operation string) {
	r.conflicts.WithLabelValues(operation).Inc()
}
