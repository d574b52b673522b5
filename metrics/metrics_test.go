package metrics

import (
	"context"
	"testing"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)
	ctx := context.Background()

	recorder.AttemptStarted(ctx, &models.Attempt{})
	recorder.AttemptStarted(ctx, &models.Attempt{})
	recorder.AttemptCompleted(ctx, &models.Attempt{}, models.AttemptResults{Score: 75, Passed: true})
	recorder.AttemptCompleted(ctx, &models.Attempt{}, models.AttemptResults{Score: 40})
	recorder.AttemptConflict("start")

	if got := testutil.ToFloat64(recorder.started); got != 2 {
		t.Errorf("expected 2 starts, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.completed.WithLabelValues("true")); got != 1 {
		t.Errorf("expected 1 passed completion, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.completed.WithLabelValues("false")); got != 1 {
		t.Errorf("expected 1 failed completion, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.conflicts.WithLabelValues("start")); got != 1 {
		t.Errorf("expected 1 start conflict, got %v", got)
	}
	if count := testutil.CollectAndCount(reg, "quizmaster_attempt_percentage"); count != 1 {
		t.Errorf("expected the percentage histogram to be registered, got %d", count)
	}
}
