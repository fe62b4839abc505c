package testsupport

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTabular is an in-memory stand-in for the external tabular store. It
// mirrors the backend's semantics: tables with a header row, append-only
// rows, and whole-row overwrites by 1-based position.
type MemoryTabular struct {
	mu     sync.Mutex
	tables map[string][][]string

	// FailOp, when set, is consulted before every operation. Returning a
	// non-nil error makes that operation fail, letting tests inject
	// transport faults. op is one of ensure, append, column, row, rows,
	// update.
	FailOp func(op, title string) error
}

// NewMemoryTabular builds an empty in-memory backend.
func NewMemoryTabular() *MemoryTabular {
	return &MemoryTabular{tables: make(map[string][][]string)}
}

func (m *MemoryTabular) fail(op, title string) error {
	if m.FailOp != nil {
		return m.FailOp(op, title)
	}
	return nil
}

// EnsureTable creates the table with its header when absent.
func (m *MemoryTabular) EnsureTable(_ context.Context, title string, header []string) error {
	if err := m.fail("ensure", title); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[title]; !ok {
		m.tables[title] = [][]string{append([]string(nil), header...)}
	}
	return nil
}

// AppendRow appends a row to an existing table.
func (m *MemoryTabular) AppendRow(_ context.Context, title string, row []string) error {
	if err := m.fail("append", title); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[title]; !ok {
		return fmt.Errorf("table %s does not exist", title)
	}
	m.tables[title] = append(m.tables[title], append([]string(nil), row...))
	return nil
}

// Column returns the first cell of every row.
func (m *MemoryTabular) Column(_ context.Context, title, column string) ([]string, error) {
	if err := m.fail("column", title); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[title]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", title)
	}
	offset := columnOffset(column)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cell := ""
		if offset < len(row) {
			cell = row[offset]
		}
		out = append(out, cell)
	}
	return out, nil
}

// Row returns the row at the 1-based index, padded to width.
func (m *MemoryTabular) Row(_ context.Context, title string, index, width int) ([]string, error) {
	if err := m.fail("row", title); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[title]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", title)
	}
	if index < 1 || index > len(rows) {
		return make([]string, width), nil
	}
	out := make([]string, width)
	copy(out, rows[index-1])
	return out, nil
}

// Rows returns every data row below the header, padded to width.
func (m *MemoryTabular) Rows(_ context.Context, title string, width int) ([][]string, error) {
	if err := m.fail("rows", title); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[title]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", title)
	}
	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out = append(out, padded)
	}
	return out, nil
}

// UpdateRow overwrites the row at the 1-based index.
func (m *MemoryTabular) UpdateRow(_ context.Context, title string, index int, row []string) error {
	if err := m.fail("update", title); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[title]
	if !ok {
		return fmt.Errorf("table %s does not exist", title)
	}
	if index < 1 || index > len(rows) {
		return fmt.Errorf("row %d out of range for table %s", index, title)
	}
	rows[index-1] = append([]string(nil), row...)
	return nil
}

// TableRows returns a copy of a table's rows, header included. For assertions.
func (m *MemoryTabular) TableRows(title string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[title]
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// HasTable reports whether a table was created.
func (m *MemoryTabular) HasTable(title string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tables[title]
	return ok
}

func columnOffset(column string) int {
	offset := 0
	for _, r := range column {
		offset = offset*26 + int(r-'A') + 1
	}
	if offset < 1 {
		offset = 1
	}
	return offset - 1
}
