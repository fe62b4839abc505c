package gateway

import (
	"time"

	"payflow/internal/request"
	"payflow/internal/workflow"
)

// submitPayload is the body of POST /api/requests.
type submitPayload struct {
	DeliveryID    string   `json:"deliveryId,omitempty"`
	RequesterID   string   `json:"requesterId"`
	RequesterTag  string   `json:"requesterTag"`
	OriginSurface string   `json:"originSurface,omitempty"`
	Amount        int64    `json:"amount"`
	Purpose       string   `json:"purpose"`
	Note          string   `json:"note,omitempty"`
	EvidenceRefs  []string `json:"evidenceRefs"`
}

// submitResponse reports a persisted submission. Replay is true when the
// delivery key was seen before and the original request is returned instead
// of creating a duplicate.
type submitResponse struct {
	Code      string `json:"code"`
	Status    string `json:"status"`
	Announced bool   `json:"announced"`
	Replay    bool   `json:"replay,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// decisionPayload is the body of POST /api/requests/{code}/decision.
type decisionPayload struct {
	ActorID  string   `json:"actorId"`
	ActorTag string   `json:"actorTag"`
	Roles    []string `json:"roles"`
	Outcome  string   `json:"outcome"`
	Reason   string   `json:"reason,omitempty"`
}

// decisionResponse reports a terminal transition.
type decisionResponse struct {
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	DeciderTag   string    `json:"deciderTag"`
	DecidedAt    time.Time `json:"decidedAt"`
	LedgerPosted bool      `json:"ledgerPosted"`
	Warning      string    `json:"warning,omitempty"`
}

// withdrawPayload is the body of POST /api/requests/{code}/withdraw.
type withdrawPayload struct {
	RequesterID string `json:"requesterId"`
}

// requestView is the read-model representation of a request.
type requestView struct {
	Code           string     `json:"code"`
	CreatedAt      time.Time  `json:"createdAt"`
	RequesterID    string     `json:"requesterId"`
	RequesterTag   string     `json:"requesterTag"`
	OriginSurface  string     `json:"originSurface,omitempty"`
	Amount         int64      `json:"amount"`
	Purpose        string     `json:"purpose"`
	Note           string     `json:"note,omitempty"`
	EvidenceRefs   []string   `json:"evidenceRefs"`
	Status         string     `json:"status"`
	DeciderTag     string     `json:"deciderTag,omitempty"`
	DecisionReason string     `json:"decisionReason,omitempty"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
	PostingRef     string     `json:"postingRef,omitempty"`
}

// listResponse wraps GET /api/requests.
type listResponse struct {
	Requests []requestView `json:"requests"`
	Count    int           `json:"count"`
}

// errorResponse is the uniform error envelope. SettledStatus is present only
// on conflict responses, naming the terminal state that won.
type errorResponse struct {
	Error         string `json:"error"`
	SettledStatus string `json:"settledStatus,omitempty"`
}

func viewOf(req *request.Request) requestView {
	view := requestView{
		Code:           req.Code,
		CreatedAt:      req.CreatedAt,
		RequesterID:    req.RequesterID,
		RequesterTag:   req.RequesterTag,
		OriginSurface:  req.OriginSurface,
		Amount:         req.Amount,
		Purpose:        string(req.Purpose),
		Note:           req.Note,
		EvidenceRefs:   req.EvidenceRefs,
		Status:         string(req.Status),
		DeciderTag:     req.DeciderTag,
		DecisionReason: req.DecisionReason,
		PostingRef:     req.PostingRef,
	}
	if view.EvidenceRefs == nil {
		view.EvidenceRefs = []string{}
	}
	if !req.DecidedAt.IsZero() {
		decidedAt := req.DecidedAt
		view.DecidedAt = &decidedAt
	}
	return view
}

func decisionViewOf(result *workflow.DecisionResult, warning string) decisionResponse {
	return decisionResponse{
		Code:         result.Code,
		Status:       string(result.Status),
		DeciderTag:   result.DeciderTag,
		DecidedAt:    result.DecidedAt,
		LedgerPosted: result.LedgerPosted,
		Warning:      warning,
	}
}
