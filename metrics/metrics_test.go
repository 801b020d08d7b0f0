package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/warp/sample-sla/sla"
)

func TestSetBoard_ZeroesMissingLevels(t *testing.T) {
	SetBoard(map[sla.Level]int{sla.LevelOverdue: 3, sla.LevelSafe: 1})
	assert.Equal(t, 3.0, testutil.ToFloat64(BoardRequests.WithLabelValues("overdue")))

	SetBoard(map[sla.Level]int{sla.LevelSafe: 2})
	assert.Equal(t, 0.0, testutil.ToFloat64(BoardRequests.WithLabelValues("overdue")))
	assert.Equal(t, 2.0, testutil.ToFloat64(BoardRequests.WithLabelValues("safe")))
}

func TestRecordEvaluation(t *testing.T) {
	before := testutil.ToFloat64(EvaluationsTotal.WithLabelValues("warning"))
	RecordEvaluation(sla.Result{Level: sla.LevelWarning})
	assert.Equal(t, before+1, testutil.ToFloat64(EvaluationsTotal.WithLabelValues("warning")))
}
