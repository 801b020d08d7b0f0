package sla

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// Status is the sample request lifecycle state as reported by the tracker.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusAssigned        Status = "assigned"
	StatusInProduction    Status = "in_production"
	StatusReady           Status = "ready"
	StatusDispatched      Status = "dispatched"
	StatusReceived        Status = "received"
	StatusRejected        Status = "rejected"
)

var knownStatuses = map[Status]bool{
	StatusDraft: true, StatusPendingApproval: true, StatusApproved: true,
	StatusAssigned: true, StatusInProduction: true, StatusReady: true,
	StatusDispatched: true, StatusReceived: true, StatusRejected: true,
}

// FulfillmentMethod is how a finished sample reaches the requester.
// The empty value means the tracker has not recorded one yet.
type FulfillmentMethod string

const (
	MethodNone           FulfillmentMethod = ""
	MethodSelfPickup     FulfillmentMethod = "self_pickup"
	MethodCourier        FulfillmentMethod = "courier"
	MethodCompanyVehicle FulfillmentMethod = "company_vehicle"
	MethodFieldBoy       FulfillmentMethod = "field_boy"
	MethodOther          FulfillmentMethod = "other"
)

var knownMethods = map[FulfillmentMethod]bool{
	MethodNone: true, MethodSelfPickup: true, MethodCourier: true,
	MethodCompanyVehicle: true, MethodFieldBoy: true, MethodOther: true,
}

var (
	ErrUnknownStatus            = errors.New("unknown request status")
	ErrUnknownFulfillmentMethod = errors.New("unknown fulfillment method")
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !knownStatuses[st] {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// ParseFulfillmentMethod validates a raw method string. Empty is allowed.
func ParseFulfillmentMethod(s string) (FulfillmentMethod, error) {
	m := FulfillmentMethod(s)
	if !knownMethods[m] {
		return "", fmt.Errorf("%w: %q", ErrUnknownFulfillmentMethod, s)
	}
	return m, nil
}

// =============================================================================
// LEVELS
// =============================================================================

// Level is the urgency badge shown next to a request.
type Level string

const (
	LevelSafe        Level = "safe"
	LevelApproaching Level = "approaching"
	LevelWarning     Level = "warning"
	LevelOverdue     Level = "overdue"
	LevelCompleted   Level = "completed"
	LevelNone        Level = "none"
)

// Levels lists every level in urgency order.
var Levels = []Level{LevelOverdue, LevelWarning, LevelApproaching, LevelSafe, LevelCompleted, LevelNone}

// Rank orders levels by urgency; lower is more urgent.
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return len(Levels)
}

// =============================================================================
// INPUT / RESULT
// =============================================================================

// Input is everything one evaluation needs. Now is supplied by the caller;
// the engine never reads the wall clock.
type Input struct {
	Now               time.Time
	Deadline          *time.Time
	Status            Status
	FulfillmentMethod FulfillmentMethod
}

// Result is recomputed on every call and never stored.
type Result struct {
	Completed bool
	// SignedWorkingMinutes is positive while time remains and negative once
	// overdue. Meaningless when Completed or Level is LevelNone.
	SignedWorkingMinutes int
	Level                Level
	Label                string
}

const (
	LabelDone          = "Done"
	LabelNotApplicable = "—"
)
