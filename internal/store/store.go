package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"payflow/internal/request"
)

// Tabular is the slice of the backing store the request store needs. The
// Google Sheets client satisfies it in production; tests use an in-memory
// implementation.
type Tabular interface {
	EnsureTable(ctx context.Context, title string, header []string) error
	AppendRow(ctx context.Context, title string, row []string) error
	Column(ctx context.Context, title, column string) ([]string, error)
	Row(ctx context.Context, title string, index, width int) ([]string, error)
	Rows(ctx context.Context, title string, width int) ([][]string, error)
	UpdateRow(ctx context.Context, title string, index int, row []string) error
}

// Store persists requests as rows of a single append-only table. Rows are
// never deleted; terminal rows are the permanent record.
type Store struct {
	tab   Tabular
	table string

	// mu serializes conditional updates within this process and guards the
	// code→row cache. Cross-process writers are covered only by the
	// read-verify-write discipline, since the backing store has no CAS.
	mu   sync.Mutex
	rows map[string]int
}

// New builds a request store over a tabular backend.
func New(tab Tabular, table string) *Store {
	return &Store{
		tab:   tab,
		table: table,
		rows:  make(map[string]int),
	}
}

// Init ensures the requests table exists with its fixed header.
func (s *Store) Init(ctx context.Context) error {
	if err := s.tab.EnsureTable(ctx, s.table, Header()); err != nil {
		return unavailable("init requests table", err)
	}
	return nil
}

// Append writes a new request as a fresh row. The append must complete before
// any externally observable side effect of submission, so a crash after
// Append leaves a recoverable record.
func (s *Store) Append(ctx context.Context, req *request.Request) error {
	if req == nil || req.Code == "" {
		return fmt.Errorf("append: request with code is required")
	}
	if err := s.tab.AppendRow(ctx, s.table, encodeRequest(req)); err != nil {
		return unavailable("append request", err)
	}
	return nil
}

// FindRowByCode locates the 1-based row index of a request. It consults a
// local cache first and falls back to a linear scan of the code column; the
// cache is only trusted for hits because rows are appended by concurrent
// writers and positions never change once assigned.
func (s *Store) FindRowByCode(ctx context.Context, code string) (int, error) {
	if code == "" {
		return 0, ErrNotFound
	}

	s.mu.Lock()
	index, ok := s.rows[code]
	s.mu.Unlock()
	if ok {
		return index, nil
	}

	return s.scanForCode(ctx, code)
}

func (s *Store) scanForCode(ctx context.Context, code string) (int, error) {
	codes, err := s.tab.Column(ctx, s.table, "A")
	if err != nil {
		return 0, unavailable("scan code column", err)
	}

	found := 0
	s.mu.Lock()
	for i, cell := range codes {
		if i == 0 {
			continue // header row
		}
		if cell == "" {
			continue
		}
		s.rows[cell] = i + 1
		if cell == code {
			found = i + 1
		}
	}
	s.mu.Unlock()

	if found == 0 {
		return 0, ErrNotFound
	}
	return found, nil
}

// Read loads the full request at the given row index.
func (s *Store) Read(ctx context.Context, index int) (*request.Request, error) {
	row, err := s.tab.Row(ctx, s.table, index, requestsWidth)
	if err != nil {
		return nil, unavailable("read request row", err)
	}
	req, err := decodeRequest(row)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ConditionalUpdate re-reads the row, verifies its status still equals
// expected, applies mutate to a copy, and overwrites the full row. The
// re-read happens immediately before the write to keep the race window as
// narrow as the backing store allows; within this process the whole sequence
// is serialized. On ErrConflict the returned request is the observed row so
// callers can report the terminal state that won.
func (s *Store) ConditionalUpdate(ctx context.Context, index int, expected request.Status, mutate func(*request.Request)) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.tab.Row(ctx, s.table, index, requestsWidth)
	if err != nil {
		return nil, unavailable("re-read request row", err)
	}
	current, err := decodeRequest(row)
	if err != nil {
		return nil, err
	}
	if current.Status != expected {
		return current, ErrConflict
	}

	updated := *current
	updated.EvidenceRefs = append([]string(nil), current.EvidenceRefs...)
	mutate(&updated)

	if err := s.tab.UpdateRow(ctx, s.table, index, encodeRequest(&updated)); err != nil {
		return nil, unavailable("write request row", err)
	}
	return &updated, nil
}

// List returns every request in the table, in row order.
func (s *Store) List(ctx context.Context) ([]*request.Request, error) {
	rows, err := s.tab.Rows(ctx, s.table, requestsWidth)
	if err != nil {
		return nil, unavailable("list requests", err)
	}
	out := make([]*request.Request, 0, len(rows))
	for _, row := range rows {
		req, err := decodeRequest(row)
		if err != nil {
			// Tolerate stray rows (manual edits); the table is shared
			// with humans through the spreadsheet UI.
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

// GetByCode is a find-then-read convenience used by read-only surfaces.
func (s *Store) GetByCode(ctx context.Context, code string) (*request.Request, error) {
	index, err := s.FindRowByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, index)
}

func unavailable(op string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
