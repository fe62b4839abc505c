package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"payflow/internal/request"
)

// Requests table layout, columns A through N. The column order is part of the
// persisted contract; rows are always written whole in exactly this order.
var requestsHeader = []string{
	"code",
	"created_at",
	"requester_id",
	"requester_tag",
	"origin_surface",
	"amount",
	"purpose",
	"note",
	"evidence_refs",
	"status",
	"decider_tag",
	"decision_reason",
	"decided_at",
	"posting_ref",
}

const requestsWidth = 14

// evidence refs share one cell, newline-separated
const evidenceSeparator = "\n"

// Header returns the fixed header row of the requests table.
func Header() []string {
	cp := make([]string, len(requestsHeader))
	copy(cp, requestsHeader)
	return cp
}

func encodeRequest(r *request.Request) []string {
	return []string{
		r.Code,
		formatTime(r.CreatedAt),
		r.RequesterID,
		r.RequesterTag,
		r.OriginSurface,
		strconv.FormatInt(r.Amount, 10),
		string(r.Purpose),
		r.Note,
		strings.Join(r.EvidenceRefs, evidenceSeparator),
		string(r.Status),
		r.DeciderTag,
		r.DecisionReason,
		formatTime(r.DecidedAt),
		r.PostingRef,
	}
}

func decodeRequest(row []string) (*request.Request, error) {
	if len(row) < requestsWidth {
		padded := make([]string, requestsWidth)
		copy(padded, row)
		row = padded
	}
	code := strings.TrimSpace(row[0])
	if code == "" {
		return nil, fmt.Errorf("decode request row: empty code")
	}

	createdAt, err := parseTime(row[1])
	if err != nil {
		return nil, fmt.Errorf("decode request %s: created_at: %w", code, err)
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode request %s: amount: %w", code, err)
	}
	status, ok := request.ParseStatus(row[9])
	if !ok {
		return nil, fmt.Errorf("decode request %s: unknown status %q", code, row[9])
	}
	decidedAt, err := parseTime(row[12])
	if err != nil {
		return nil, fmt.Errorf("decode request %s: decided_at: %w", code, err)
	}

	var refs []string
	if cell := strings.TrimSpace(row[8]); cell != "" {
		refs = strings.Split(cell, evidenceSeparator)
	}

	return &request.Request{
		Code:           code,
		CreatedAt:      createdAt,
		RequesterID:    row[2],
		RequesterTag:   row[3],
		OriginSurface:  row[4],
		Amount:         amount,
		Purpose:        request.Purpose(row[6]),
		Note:           row[7],
		EvidenceRefs:   refs,
		Status:         status,
		DeciderTag:     row[10],
		DecisionReason: row[11],
		DecidedAt:      decidedAt,
		PostingRef:     row[13],
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
