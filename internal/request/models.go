package request

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an expenditure request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// WithdrawnReason is the decision reason recorded when a requester withdraws
// their own request.
const WithdrawnReason = "Withdrawn by requester"

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// Purpose is the enumerated spending category attached to a request.
type Purpose string

const (
	PurposeRefund      Purpose = "refund"
	PurposeOffice      Purpose = "office"
	PurposeRepair      Purpose = "repair"
	PurposePackaging   Purpose = "packaging"
	PurposeMarketing   Purpose = "marketing"
	PurposeShipping    Purpose = "shipping"
	PurposeProcurement Purpose = "procurement"
	PurposePayroll     Purpose = "payroll"
	PurposeOther       Purpose = "other"
)

var allPurposes = []Purpose{
	PurposeRefund,
	PurposeOffice,
	PurposeRepair,
	PurposePackaging,
	PurposeMarketing,
	PurposeShipping,
	PurposeProcurement,
	PurposePayroll,
	PurposeOther,
}

var purposeSet = func() map[Purpose]struct{} {
	set := make(map[Purpose]struct{}, len(allPurposes))
	for _, purpose := range allPurposes {
		set[purpose] = struct{}{}
	}
	return set
}()

// AllPurposes returns the ordered list of known spending categories.
func AllPurposes() []Purpose {
	cp := make([]Purpose, len(allPurposes))
	copy(cp, allPurposes)
	return cp
}

// ParsePurpose converts a string into a known Purpose.
func ParsePurpose(value string) (Purpose, bool) {
	normalized := Purpose(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := purposeSet[normalized]
	return normalized, ok
}

// Request is one expenditure approval case. It corresponds to a single row in
// the requests table and is identified by its immutable Code.
type Request struct {
	Code           string
	CreatedAt      time.Time
	RequesterID    string
	RequesterTag   string
	OriginSurface  string
	Amount         int64
	Purpose        Purpose
	Note           string
	EvidenceRefs   []string
	Status         Status
	DeciderTag     string
	DecisionReason string
	DecidedAt      time.Time
	PostingRef     string
}

// IsPending reports whether the request still awaits a decision.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Decided reports whether the request has reached a terminal state.
func (r *Request) Decided() bool {
	return r.Status.IsTerminal()
}
