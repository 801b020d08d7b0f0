/*
refresher.go - Periodic board re-evaluation

PURPOSE:
  Re-evaluates every mirrored request on a fixed cadence so the per-level
  board gauges stay current and level changes (e.g. warning -> overdue) are
  logged as they happen, without anyone having to open the dashboard.

DESIGN:
  - Runs until its context is cancelled (driven by errgroup in cmd/server)
  - One pass reads "now" once and evaluates every request against it
  - Keeps only the last-seen level per request id, in memory, for
    transition logging. SLA values are never written back to the store.

CONFIGURATION:
  - Interval: How often to re-evaluate (default: 60s)

USAGE:
  refresher := NewBoardRefresher(store, clock, logger)
  go refresher.Run(ctx)

SEE ALSO:
  - metrics/metrics.go: board gauges and transition counters
  - sla/clock.go: Evaluate
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/warp/sample-sla/metrics"
	"github.com/warp/sample-sla/sla"
	"github.com/warp/sample-sla/store/sqlite"
)

// DefaultRefreshInterval is used when BoardRefresher.Interval is not positive.
const DefaultRefreshInterval = 60 * time.Second

// RequestSource lists the requests to re-evaluate.
type RequestSource interface {
	ListRequests(ctx context.Context) ([]sqlite.SampleRequest, error)
}

// BoardRefresher re-evaluates the board periodically.
type BoardRefresher struct {
	Source   RequestSource
	Clock    *sla.Clock
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger

	mu   sync.Mutex
	last map[string]sla.Level
}

// NewBoardRefresher creates a refresher with the default interval.
func NewBoardRefresher(source RequestSource, clock *sla.Clock, logger *slog.Logger) *BoardRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardRefresher{
		Source:   source,
		Clock:    clock,
		Interval: DefaultRefreshInterval,
		Now:      time.Now,
		Logger:   logger,
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
// Failed passes are logged and counted; they do not stop the loop.
func (b *BoardRefresher) Run(ctx context.Context) error {
	interval := b.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.Logger.Info("board refresher started", "interval", interval)

	// Run immediately on start
	b.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			b.refresh(ctx)
		case <-ctx.Done():
			b.Logger.Info("board refresher stopped")
			return nil
		}
	}
}

// RunNow performs one pass and returns the per-level counts.
func (b *BoardRefresher) RunNow(ctx context.Context) (map[sla.Level]int, error) {
	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	reqs, err := b.Source.ListRequests(ctx)
	if err != nil {
		metrics.RefreshErrors.Inc()
		return nil, fmt.Errorf("listing requests: %w", err)
	}

	now := b.Now()
	counts := make(map[sla.Level]int, len(sla.Levels))
	seen := make(map[string]sla.Level, len(reqs))

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, req := range reqs {
		res := b.Clock.Evaluate(req.SLAInput(now))
		counts[res.Level]++
		seen[req.ID] = res.Level

		if prev, ok := b.last[req.ID]; ok && prev != res.Level {
			metrics.LevelTransitions.WithLabelValues(string(prev), string(res.Level)).Inc()
			b.Logger.Info("sla level changed",
				"request_id", req.ID,
				"from", prev,
				"to", res.Level,
				"label", res.Label,
			)
		}
	}
	b.last = seen

	metrics.SetBoard(counts)
	return counts, nil
}

// Levels returns a copy of the last-seen level per request id.
func (b *BoardRefresher) Levels() map[string]sla.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.last)
}

func (b *BoardRefresher) refresh(ctx context.Context) {
	counts, err := b.RunNow(ctx)
	if err != nil {
		b.Logger.Error("board refresh failed", "error", err)
		return
	}
	b.Logger.Debug("board refreshed",
		"overdue", counts[sla.LevelOverdue],
		"warning", counts[sla.LevelWarning],
		"approaching", counts[sla.LevelApproaching],
	)
}
