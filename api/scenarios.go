/*
scenarios.go - Demo board loaders for testing and demonstrations

PURPOSE:

	Provides pre-built boards that populate the request mirror with realistic
	sample requests. Each board demonstrates specific SLA behaviour.

AVAILABLE SCENARIOS:

	mixed-board:        One request per badge level
	pickup-desk:        Self-pickup vs courier completion rules
	overdue-escalation: Several overdue requests, most overdue sorted first

HOW SCENARIOS WORK:
 1. Reset the mirror (clear all requests)
 2. Read "now" once from the handler clock
 3. Place each deadline a fixed number of working minutes from now, so
    the resulting levels do not depend on the time of day the board is
    loaded

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-board"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a seed list to 'scenarioSeeds'

NOTE:

	Scenarios reset the mirror. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Request and board handlers
  - sla/clock.go: AddWorkingMinutes
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/sample-sla/sla"
	"github.com/warp/sample-sla/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "mixed-board",
		Name:        "Mixed Board",
		Description: "One request per badge: overdue, warning, approaching, safe, done and not applicable",
	},
	{
		ID:          "pickup-desk",
		Name:        "Pickup Desk",
		Description: "Self-pickup requests are done once ready; courier requests only once dispatched",
	},
	{
		ID:          "overdue-escalation",
		Name:        "Overdue Escalation",
		Description: "Requests overdue by minutes, hours and days",
	},
}

// seed is one demo request. Minutes is the working-minute budget from load
// time; negative budgets are already overdue.
type seed struct {
	id         string
	title      string
	requester  string
	minutes    int
	noDeadline bool
	status     sla.Status
	method     sla.FulfillmentMethod
}

var scenarioSeeds = map[string][]seed{
	"mixed-board": {
		{id: "SR-1001", title: "Denim wash swatches", requester: "design", minutes: -45, status: sla.StatusInProduction},
		{id: "SR-1002", title: "Linen blend yardage", requester: "merchandising", minutes: 4 * 60, status: sla.StatusAssigned},
		{id: "SR-1003", title: "Knit trims", requester: "design", minutes: 12 * 60, status: sla.StatusApproved},
		{id: "SR-1004", title: "Printed poplin strike-off", requester: "buying", minutes: 3 * 540, status: sla.StatusPendingApproval},
		{id: "SR-1005", title: "Button card", requester: "merchandising", minutes: -120, status: sla.StatusDispatched, method: sla.MethodCourier},
		{id: "SR-1006", title: "Lace options", requester: "design", noDeadline: true, status: sla.StatusDraft},
		{id: "SR-1007", title: "Velvet headers", requester: "buying", minutes: 300, status: sla.StatusRejected},
	},
	"pickup-desk": {
		{id: "SR-2001", title: "Zipper tapes", requester: "design", minutes: 90, status: sla.StatusReady, method: sla.MethodSelfPickup},
		{id: "SR-2002", title: "Elastic samples", requester: "design", minutes: 90, status: sla.StatusReady, method: sla.MethodCourier},
		{id: "SR-2003", title: "Label mockups", requester: "buying", minutes: -30, status: sla.StatusReady, method: sla.MethodFieldBoy},
		{id: "SR-2004", title: "Hangtag proofs", requester: "buying", minutes: -30, status: sla.StatusDispatched, method: sla.MethodCompanyVehicle},
		{id: "SR-2005", title: "Wash care labels", requester: "merchandising", minutes: 600, status: sla.StatusReceived, method: sla.MethodOther},
	},
	"overdue-escalation": {
		{id: "SR-3001", title: "Yarn dyed checks", requester: "design", minutes: -45, status: sla.StatusInProduction},
		{id: "SR-3002", title: "Corduroy swatches", requester: "merchandising", minutes: -540, status: sla.StatusAssigned},
		{id: "SR-3003", title: "Chambray yardage", requester: "buying", minutes: -2*540 - 30, status: sla.StatusApproved},
		{id: "SR-3004", title: "Seersucker strike-off", requester: "design", minutes: 30, status: sla.StatusInProduction},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the mirror with a predefined board.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	seeds, ok := scenarioSeeds[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.loadSeeds(ctx, seeds); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID, "requests", len(seeds))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every mirrored request.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSeeds(ctx context.Context, seeds []seed) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	now := h.Now()
	for _, s := range seeds {
		req := sqlite.SampleRequest{
			ID:                s.id,
			Title:             s.title,
			Requester:         s.requester,
			Status:            s.status,
			FulfillmentMethod: s.method,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if !s.noDeadline {
			due := h.Clock.AddWorkingMinutes(now, s.minutes)
			req.RequiredBy = &due
		}
		if err := h.Store.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("seed %s: %w", s.id, err)
		}
	}
	return nil
}
