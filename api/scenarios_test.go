/*
scenarios_test.go - Tests for demo board loaders

Tests for:
- Every scenario loads and produces the levels it advertises
- Loading replaces the previous board
- Current scenario tracking and reset
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sample-sla/sla"
)

func TestScenarios_AllLoad(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			h, router := newTestServer(t)

			rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: s.ID})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			reqs, err := h.Store.ListRequests(context.Background())
			require.NoError(t, err)
			assert.Len(t, reqs, len(scenarioSeeds[s.ID]))
		})
	}
}

func TestScenarios_PickupDesk(t *testing.T) {
	// GIVEN: The pickup desk board
	h, router := newTestServer(t)
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "pickup-desk"})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Every request is evaluated
	reqs, err := h.Store.ListRequests(context.Background())
	require.NoError(t, err)

	levels := make(map[string]sla.Level)
	for _, r := range reqs {
		levels[r.ID] = h.Clock.Evaluate(r.SLAInput(fixedNow)).Level
	}

	// THEN: Ready counts as done only for self pickup
	assert.Equal(t, map[string]sla.Level{
		"SR-2001": sla.LevelCompleted,
		"SR-2002": sla.LevelWarning,
		"SR-2003": sla.LevelOverdue,
		"SR-2004": sla.LevelCompleted,
		"SR-2005": sla.LevelCompleted,
	}, levels)
}

func TestScenarios_LevelsIndependentOfLoadTime(t *testing.T) {
	// Loading at 07:00 and on the off day must give the same badges
	loadTimes := []time.Time{at(2, 7, 0), at(4, 18, 59), at(8, 15, 0)}

	for _, loadAt := range loadTimes {
		h, router := newTestServer(t)
		h.Now = func() time.Time { return loadAt }

		rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "mixed-board"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, router, http.MethodGet, "/api/requests/SR-1002", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[RequestDTO](t, rec)
		assert.Equal(t, 240, got.SLA.SignedWorkingMinutes, "loaded at %s", loadAt)
		assert.Equal(t, "4h", got.SLA.Label)
	}
}

func TestScenarios_LoadReplacesBoard(t *testing.T) {
	h, router := newTestServer(t)

	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "mixed-board"}).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "overdue-escalation"}).Code)

	reqs, err := h.Store.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Len(t, reqs, len(scenarioSeeds["overdue-escalation"]))
}

func TestScenarios_CurrentAndReset(t *testing.T) {
	h, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "no-such-board"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "pickup-desk"})
	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pickup-desk", decode[ScenarioDTO](t, rec).ID)

	rec = do(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	reqs, err := h.Store.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reqs)

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())
}
