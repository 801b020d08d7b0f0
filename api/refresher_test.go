package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sample-sla/metrics"
	"github.com/warp/sample-sla/sla"
	"github.com/warp/sample-sla/store/sqlite"
	"go.uber.org/goleak"
)

type fakeSource struct {
	mu   sync.Mutex
	reqs []sqlite.SampleRequest
	err  error
}

func (f *fakeSource) ListRequests(context.Context) ([]sqlite.SampleRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs, f.err
}

// clockAt is a settable time source.
type clockAt struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clockAt) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clockAt) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestRefresher(source RequestSource, now *clockAt) *BoardRefresher {
	r := NewBoardRefresher(source, sla.NewClock(ist), slog.New(slog.DiscardHandler))
	r.Now = now.Now
	return r
}

func inProduction(id string, due time.Time) sqlite.SampleRequest {
	return sqlite.SampleRequest{ID: id, Title: id, RequiredBy: &due, Status: sla.StatusInProduction}
}

func TestRefresher_RunNowCountsLevels(t *testing.T) {
	source := &fakeSource{reqs: []sqlite.SampleRequest{
		inProduction("a", at(2, 13, 0)),
		inProduction("b", at(2, 11, 0)),
		inProduction("c", at(3, 15, 0)),
		{ID: "d", Title: "d", Status: sla.StatusDraft},
	}}
	now := &clockAt{now: fixedNow}
	r := newTestRefresher(source, now)

	counts, err := r.RunNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[sla.Level]int{
		sla.LevelWarning:     1,
		sla.LevelOverdue:     1,
		sla.LevelApproaching: 1,
		sla.LevelNone:        1,
	}, counts)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BoardRequests.WithLabelValues("overdue")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.BoardRequests.WithLabelValues("safe")))
}

func TestRefresher_TracksLevelTransitions(t *testing.T) {
	// GIVEN: A request due at 13:00, seen as warning at 12:00
	source := &fakeSource{reqs: []sqlite.SampleRequest{inProduction("a", at(2, 13, 0))}}
	now := &clockAt{now: fixedNow}
	r := newTestRefresher(source, now)

	_, err := r.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]sla.Level{"a": sla.LevelWarning}, r.Levels())

	transitions := metrics.LevelTransitions.WithLabelValues("warning", "overdue")
	before := testutil.ToFloat64(transitions)

	// WHEN: Time passes the deadline
	now.Set(at(2, 14, 0))
	_, err = r.RunNow(context.Background())
	require.NoError(t, err)

	// THEN: The transition is recorded once
	assert.Equal(t, map[string]sla.Level{"a": sla.LevelOverdue}, r.Levels())
	assert.Equal(t, before+1, testutil.ToFloat64(transitions))

	// A pass with no change records nothing
	_, err = r.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(transitions))
}

func TestRefresher_ForgetsRemovedRequests(t *testing.T) {
	source := &fakeSource{reqs: []sqlite.SampleRequest{inProduction("a", at(2, 13, 0))}}
	r := newTestRefresher(source, &clockAt{now: fixedNow})

	_, err := r.RunNow(context.Background())
	require.NoError(t, err)

	source.mu.Lock()
	source.reqs = nil
	source.mu.Unlock()

	_, err = r.RunNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.Levels())
}

func TestRefresher_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("database is locked")}
	r := newTestRefresher(source, &clockAt{now: fixedNow})

	before := testutil.ToFloat64(metrics.RefreshErrors)
	_, err := r.RunNow(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RefreshErrors))
}

func TestRefresher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	source := &fakeSource{reqs: []sqlite.SampleRequest{inProduction("a", at(2, 13, 0))}}
	r := newTestRefresher(source, &clockAt{now: fixedNow})
	r.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(r.Levels()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
