/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types keep the
  sla and store types out of the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TIMESTAMPS:
  All instants are RFC 3339 strings. Responses are rendered in the calendar's
  zone so the dashboard shows local business time. An absent deadline is
  null or "".

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - sla/types.go: Status, FulfillmentMethod, Level
*/
package api

// =============================================================================
// SLA EVALUATION
// =============================================================================

// EvaluateItem is one request snapshot in a batch evaluation.
type EvaluateItem struct {
	ID                string  `json:"id"`
	RequiredBy        *string `json:"required_by"`
	Status            string  `json:"status"`
	FulfillmentMethod string  `json:"fulfillment_method,omitempty"`
}

// EvaluateRequest is the body of POST /api/sla/evaluate.
// Now is optional; the server clock is used when it is omitted.
type EvaluateRequest struct {
	Now   *string        `json:"now,omitempty"`
	Items []EvaluateItem `json:"items"`
}

// SLADTO is the badge state for a single request.
type SLADTO struct {
	Completed            bool   `json:"completed"`
	SignedWorkingMinutes int    `json:"signed_working_minutes"`
	Level                string `json:"level"`
	Label                string `json:"label"`
}

// EvaluateResultDTO pairs an item id with its badge state.
type EvaluateResultDTO struct {
	ID string `json:"id"`
	SLADTO
}

// EvaluateResponse is returned by POST /api/sla/evaluate.
type EvaluateResponse struct {
	EvaluatedAt string              `json:"evaluated_at"`
	Results     []EvaluateResultDTO `json:"results"`
}

// ItemErrorDTO describes why one batch item could not be evaluated.
type ItemErrorDTO struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// CalendarDTO is the active working calendar.
type CalendarDTO struct {
	Zone                  string `json:"zone"`
	TimezoneOffsetMinutes int    `json:"timezone_offset_minutes"`
	WorkStartHour         int    `json:"work_start_hour"`
	WorkEndHour           int    `json:"work_end_hour"`
	NonWorkingWeekday     string `json:"non_working_weekday"`
	DailyWorkingMinutes   int    `json:"daily_working_minutes"`
	WarningThreshold      int    `json:"warning_threshold_minutes"`
	SafeThreshold         int    `json:"safe_threshold_minutes"`
}

// =============================================================================
// SAMPLE REQUESTS
// =============================================================================

// RequestDTO is a mirrored sample request with its freshly evaluated SLA.
type RequestDTO struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Requester         string  `json:"requester,omitempty"`
	RequiredBy        *string `json:"required_by"`
	Status            string  `json:"status"`
	FulfillmentMethod string  `json:"fulfillment_method,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	SLA               SLADTO  `json:"sla"`
}

// CreateRequestRequest is the body of POST /api/requests.
// An empty ID is replaced by a generated one.
type CreateRequestRequest struct {
	ID                string  `json:"id,omitempty"`
	Title             string  `json:"title"`
	Requester         string  `json:"requester,omitempty"`
	RequiredBy        *string `json:"required_by"`
	Status            string  `json:"status"`
	FulfillmentMethod string  `json:"fulfillment_method,omitempty"`
}

// UpdateStatusRequest is the body of PUT /api/requests/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// BoardDTO is the dashboard view: per-level counts plus the urgency-sorted list.
type BoardDTO struct {
	EvaluatedAt string         `json:"evaluated_at"`
	Counts      map[string]int `json:"counts"`
	Requests    []RequestDTO   `json:"requests"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo board.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
