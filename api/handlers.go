/*
handlers.go - HTTP API handlers for the sample-request SLA service

PURPOSE:
  Exposes the SLA clock via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the sla package for every computation.

ENDPOINTS:
  SLA:
    POST   /api/sla/evaluate           Batch-evaluate request snapshots
    GET    /api/calendar               Active working calendar

  Requests (local mirror):
    GET    /api/requests               List requests with SLA
    POST   /api/requests               Create or replace a request
    GET    /api/requests/{id}          Get one request with SLA
    DELETE /api/requests/{id}          Remove a request
    PUT    /api/requests/{id}/status   Move a request to a new status

  Board:
    GET    /api/board?level=overdue    Counts per level + urgency-sorted list

  Scenarios:
    GET    /api/scenarios              List demo boards
    POST   /api/scenarios/load         Load a demo board
    POST   /api/scenarios/reset        Clear the mirror

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: request mirror
  - Clock: SLA clock bound to the configured calendar
  - Now:   the only wall-clock read in the service; tests pin it

  "Now" is read once per HTTP call so every item in a response is evaluated
  against the same instant.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed JSON, timestamps or enum values
  - 404: Request not found
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo board loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/sample-sla/metrics"
	"github.com/warp/sample-sla/sla"
	"github.com/warp/sample-sla/store/sqlite"
)

// MaxBatchItems bounds a single evaluate call.
const MaxBatchItems = 1000

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Clock  *sla.Clock
	Now    func() time.Time
	Logger *slog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler reading the wall clock.
func NewHandler(store *sqlite.Store, clock *sla.Clock, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:  store,
		Clock:  clock,
		Now:    time.Now,
		Logger: logger,
	}
}

// =============================================================================
// SLA HANDLERS
// =============================================================================

// EvaluateBatch computes the badge state for every submitted item.
// POST /api/sla/evaluate
func (h *Handler) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) > MaxBatchItems {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many items (max %d)", MaxBatchItems), nil)
		return
	}

	now := h.Now()
	if req.Now != nil && *req.Now != "" {
		parsed, err := parseInstant(*req.Now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid now (use RFC 3339)", err)
			return
		}
		now = parsed
	}

	inputs := make([]sla.Input, len(req.Items))
	var itemErrs []ItemErrorDTO
	for i, item := range req.Items {
		in, err := item.toInput(now)
		if err != nil {
			itemErrs = append(itemErrs, ItemErrorDTO{Index: i, ID: item.ID, Error: err.Error()})
			continue
		}
		inputs[i] = in
	}
	if len(itemErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid items",
			Code:    "invalid_items",
			Details: itemErrs,
		})
		return
	}

	results := make([]EvaluateResultDTO, len(inputs))
	for i, in := range inputs {
		res := h.Clock.Evaluate(in)
		metrics.RecordEvaluation(res)
		results[i] = EvaluateResultDTO{ID: req.Items[i].ID, SLADTO: toSLADTO(res)}
	}
	metrics.BatchSize.Observe(float64(len(inputs)))

	writeJSON(w, http.StatusOK, EvaluateResponse{
		EvaluatedAt: h.formatTime(now),
		Results:     results,
	})
}

// GetCalendar returns the active working calendar.
// GET /api/calendar
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal := h.Clock.Calendar()
	cfg := cal.Config()
	writeJSON(w, http.StatusOK, CalendarDTO{
		Zone:                  cal.Location().String(),
		TimezoneOffsetMinutes: cfg.TimezoneOffsetMinutes,
		WorkStartHour:         cfg.WorkStartHour,
		WorkEndHour:           cfg.WorkEndHour,
		NonWorkingWeekday:     strings.ToLower(cfg.NonWorkingWeekday.String()),
		DailyWorkingMinutes:   cal.DailyWorkingMinutes(),
		WarningThreshold:      sla.WarningThresholdMinutes,
		SafeThreshold:         sla.SafeThresholdMinutes,
	})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ListRequests returns every mirrored request with its SLA.
// GET /api/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	now := h.Now()
	dtos := make([]RequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = h.toRequestDTO(req, h.Clock.Evaluate(req.SLAInput(now)))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRequest returns a single request with its SLA.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get request", err)
		return
	}
	if req == nil {
		writeError(w, http.StatusNotFound, "Request not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, h.toRequestDTO(*req, h.Clock.Evaluate(req.SLAInput(h.Now()))))
}

// CreateRequest creates or replaces a mirrored request.
// POST /api/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	status, err := sla.ParseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status", err)
		return
	}
	method, err := sla.ParseFulfillmentMethod(body.FulfillmentMethod)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fulfillment_method", err)
		return
	}
	requiredBy, err := parseOptionalInstant(body.RequiredBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid required_by (use RFC 3339)", err)
		return
	}

	ctx := r.Context()
	now := h.Now()
	req := sqlite.SampleRequest{
		ID:                body.ID,
		Title:             body.Title,
		Requester:         body.Requester,
		RequiredBy:        requiredBy,
		Status:            status,
		FulfillmentMethod: method,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else if existing, err := h.Store.GetRequest(ctx, req.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get request", err)
		return
	} else if existing != nil {
		req.CreatedAt = existing.CreatedAt
	}

	if err := h.Store.SaveRequest(ctx, req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toRequestDTO(req, h.Clock.Evaluate(req.SLAInput(now))))
}

// UpdateRequestStatus moves a request to a new status.
// PUT /api/requests/{id}/status
func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status, err := sla.ParseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status", err)
		return
	}

	ctx := r.Context()
	now := h.Now()
	if err := h.Store.UpdateStatus(ctx, id, status, now); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Request not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update status", err)
		return
	}

	req, err := h.Store.GetRequest(ctx, id)
	if err != nil || req == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload request", err)
		return
	}

	res := h.Clock.Evaluate(req.SLAInput(now))
	h.Logger.Info("request status changed",
		"request_id", id,
		"status", status,
		"sla_level", res.Level,
	)
	writeJSON(w, http.StatusOK, h.toRequestDTO(*req, res))
}

// DeleteRequest removes a request from the mirror.
// DELETE /api/requests/{id}
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteRequest(r.Context(), id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Request not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOARD
// =============================================================================

// GetBoard returns counts per level for the whole mirror and the requests,
// optionally filtered by level, most urgent first.
// GET /api/board?level=overdue
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	var filter sla.Level
	if q := r.URL.Query().Get("level"); q != "" {
		lv, ok := parseLevel(q)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown level %q", q), nil)
			return
		}
		filter = lv
	}

	reqs, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	type evaluated struct {
		req sqlite.SampleRequest
		res sla.Result
	}

	now := h.Now()
	counts := make(map[string]int, len(sla.Levels))
	for _, lv := range sla.Levels {
		counts[string(lv)] = 0
	}

	rows := make([]evaluated, 0, len(reqs))
	for _, req := range reqs {
		res := h.Clock.Evaluate(req.SLAInput(now))
		counts[string(res.Level)]++
		if filter != "" && res.Level != filter {
			continue
		}
		rows = append(rows, evaluated{req: req, res: res})
	}
	sla.SortByUrgency(rows, func(e evaluated) sla.Result { return e.res })

	dtos := make([]RequestDTO, len(rows))
	for i, row := range rows {
		dtos[i] = h.toRequestDTO(row.req, row.res)
	}

	writeJSON(w, http.StatusOK, BoardDTO{
		EvaluatedAt: h.formatTime(now),
		Counts:      counts,
		Requests:    dtos,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (item EvaluateItem) toInput(now time.Time) (sla.Input, error) {
	status, err := sla.ParseStatus(item.Status)
	if err != nil {
		return sla.Input{}, err
	}
	method, err := sla.ParseFulfillmentMethod(item.FulfillmentMethod)
	if err != nil {
		return sla.Input{}, err
	}
	deadline, err := parseOptionalInstant(item.RequiredBy)
	if err != nil {
		return sla.Input{}, fmt.Errorf("required_by: %w", err)
	}
	return sla.Input{
		Now:               now,
		Deadline:          deadline,
		Status:            status,
		FulfillmentMethod: method,
	}, nil
}

func (h *Handler) toRequestDTO(req sqlite.SampleRequest, res sla.Result) RequestDTO {
	dto := RequestDTO{
		ID:                req.ID,
		Title:             req.Title,
		Requester:         req.Requester,
		Status:            string(req.Status),
		FulfillmentMethod: string(req.FulfillmentMethod),
		CreatedAt:         h.formatTime(req.CreatedAt),
		UpdatedAt:         h.formatTime(req.UpdatedAt),
		SLA:               toSLADTO(res),
	}
	if req.RequiredBy != nil {
		s := h.formatTime(*req.RequiredBy)
		dto.RequiredBy = &s
	}
	return dto
}

func toSLADTO(res sla.Result) SLADTO {
	return SLADTO{
		Completed:            res.Completed,
		SignedWorkingMinutes: res.SignedWorkingMinutes,
		Level:                string(res.Level),
		Label:                res.Label,
	}
}

// formatTime renders an instant in the calendar's zone.
func (h *Handler) formatTime(t time.Time) string {
	return t.In(h.Clock.Calendar().Location()).Format(time.RFC3339)
}

func parseInstant(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseOptionalInstant treats null and "" as an absent deadline.
func parseOptionalInstant(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseInstant(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseLevel(s string) (sla.Level, bool) {
	for _, lv := range sla.Levels {
		if string(lv) == s {
			return lv, true
		}
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
