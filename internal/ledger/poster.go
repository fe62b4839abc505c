package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"payflow/internal/request"
)

// KindExpense is the only entry kind this workflow produces.
const KindExpense = "expense"

// Period table layout. Every calendar period gets its own table, created
// lazily on first posting, with exactly this header.
var periodHeader = []string{
	"datetime",
	"kind",
	"amount",
	"purpose",
	"requester_tag",
	"decider_tag",
	"code",
	"note",
	"evidence_refs",
}

// Tabular is the slice of the backing store the poster needs.
type Tabular interface {
	EnsureTable(ctx context.Context, title string, header []string) error
	AppendRow(ctx context.Context, title string, row []string) error
}

// Entry is an immutable record of a completed disbursement. Exactly one entry
// exists per approved request; the workflow engine's terminal-transition
// guard enforces the single-posting contract, not this package.
type Entry struct {
	Timestamp    time.Time
	Kind         string
	Amount       int64
	Purpose      request.Purpose
	RequesterTag string
	DeciderTag   string
	RequestCode  string
	Note         string
	EvidenceRefs []string
}

// FromRequest derives the ledger entry for an approved request.
func FromRequest(req *request.Request) Entry {
	return Entry{
		Timestamp:    req.DecidedAt,
		Kind:         KindExpense,
		Amount:       req.Amount,
		Purpose:      req.Purpose,
		RequesterTag: req.RequesterTag,
		DeciderTag:   req.DeciderTag,
		RequestCode:  req.Code,
		Note:         req.Note,
		EvidenceRefs: req.EvidenceRefs,
	}
}

// PeriodKey names the ledger table for the calendar month containing t.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Header returns the fixed header row of a period table.
func Header() []string {
	cp := make([]string, len(periodHeader))
	copy(cp, periodHeader)
	return cp
}

// Poster appends ledger entries into period-scoped tables.
type Poster struct {
	tab Tabular
}

// NewPoster builds a ledger poster over a tabular backend.
func NewPoster(tab Tabular) *Poster {
	return &Poster{tab: tab}
}

// Post ensures the period table for the entry's timestamp exists, then
// appends the entry.
func (p *Poster) Post(ctx context.Context, entry Entry) error {
	if entry.RequestCode == "" {
		return fmt.Errorf("post ledger entry: request code is required")
	}
	kind := entry.Kind
	if kind == "" {
		kind = KindExpense
	}

	period := PeriodKey(entry.Timestamp)
	if err := p.tab.EnsureTable(ctx, period, Header()); err != nil {
		return fmt.Errorf("ensure period table %s: %w", period, err)
	}

	row := []string{
		entry.Timestamp.UTC().Format(time.RFC3339),
		kind,
		strconv.FormatInt(entry.Amount, 10),
		string(entry.Purpose),
		entry.RequesterTag,
		entry.DeciderTag,
		entry.RequestCode,
		entry.Note,
		strings.Join(entry.EvidenceRefs, "\n"),
	}
	if err := p.tab.AppendRow(ctx, period, row); err != nil {
		return fmt.Errorf("append ledger entry for %s: %w", entry.RequestCode, err)
	}
	return nil
}
