package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"payflow/internal/config"
)

// Client wraps the Google Sheets values API as a plain tabular surface:
// append a row, read a column, read a row, overwrite a row, create a table.
// One spreadsheet holds every table.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]struct{}
}

// NewClient builds a sheets client from configuration. Credentials come from
// store.credentials_file or inline store.credentials_json.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Store.SpreadsheetID) == "" {
		return nil, fmt.Errorf("store.spreadsheet_id is required")
	}

	credentials := []byte(cfg.Store.CredentialsJSON)
	if len(strings.TrimSpace(cfg.Store.CredentialsJSON)) == 0 {
		data, err := os.ReadFile(cfg.Store.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentials = data
	}

	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(credentials),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.Store.SpreadsheetID,
	}, nil
}

// EnsureTable creates the named table with the given header row when it does
// not exist yet. Safe to call repeatedly.
func (c *Client) EnsureTable(ctx context.Context, title string, header []string) error {
	known, err := c.hasTable(ctx, title, false)
	if err != nil {
		return err
	}
	if known {
		return nil
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		// Another writer may have created the table between our listing and
		// the addSheet call. Re-list before treating this as a failure.
		exists, listErr := c.hasTable(ctx, title, true)
		if listErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create table %s: %w", title, err)
	}

	c.rememberTitle(title)
	if err := c.AppendRow(ctx, title, header); err != nil {
		return fmt.Errorf("write header for %s: %w", title, err)
	}
	return nil
}

// AppendRow appends one row to the end of the named table.
func (c *Client) AppendRow(ctx context.Context, title string, row []string) error {
	values := &gsheets.ValueRange{Values: [][]any{toAny(row)}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, title+"!A1", values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", title, err)
	}
	return nil
}

// Column returns the full contents of a single column, one string per row.
func (c *Client) Column(ctx context.Context, title, column string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s:%s", title, column, column)
	res, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read column %s of %s: %w", column, title, err)
	}
	out := make([]string, 0, len(res.Values))
	for _, row := range res.Values {
		if len(row) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(row[0]))
	}
	return out, nil
}

// Row reads one row by 1-based index, padded or truncated to width cells.
func (c *Client) Row(ctx context.Context, title string, index, width int) ([]string, error) {
	rng := fmt.Sprintf("%s!A%d:%s%d", title, index, columnLetter(width), index)
	res, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read row %d of %s: %w", index, title, err)
	}
	out := make([]string, width)
	if len(res.Values) > 0 {
		for i, cell := range res.Values[0] {
			if i >= width {
				break
			}
			out[i] = fmt.Sprint(cell)
		}
	}
	return out, nil
}

// Rows reads every data row below the header, each padded to width cells.
func (c *Client) Rows(ctx context.Context, title string, width int) ([][]string, error) {
	rng := fmt.Sprintf("%s!A2:%s", title, columnLetter(width))
	res, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", title, err)
	}
	out := make([][]string, 0, len(res.Values))
	for _, raw := range res.Values {
		row := make([]string, width)
		for i, cell := range raw {
			if i >= width {
				break
			}
			row[i] = fmt.Sprint(cell)
		}
		out = append(out, row)
	}
	return out, nil
}

// UpdateRow overwrites one full row by 1-based index. The write replaces every
// cell in the range; partial updates are deliberately not offered.
func (c *Client) UpdateRow(ctx context.Context, title string, index int, row []string) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", title, index, columnLetter(len(row)), index)
	values := &gsheets.ValueRange{Values: [][]any{toAny(row)}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update row %d of %s: %w", index, title, err)
	}
	return nil
}

func (c *Client) hasTable(ctx context.Context, title string, refresh bool) (bool, error) {
	c.mu.Lock()
	if !refresh && c.titles != nil {
		_, ok := c.titles[title]
		c.mu.Unlock()
		if ok {
			return true, nil
		}
	}
	c.mu.Unlock()

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("list tables: %w", err)
	}

	titles := make(map[string]struct{}, len(meta.Sheets))
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil {
			titles[sheet.Properties.Title] = struct{}{}
		}
	}

	c.mu.Lock()
	c.titles = titles
	_, ok := titles[title]
	c.mu.Unlock()
	return ok, nil
}

func (c *Client) rememberTitle(title string) {
	c.mu.Lock()
	if c.titles == nil {
		c.titles = make(map[string]struct{})
	}
	c.titles[title] = struct{}{}
	c.mu.Unlock()
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

func columnLetter(n int) string {
	if n < 1 {
		n = 1
	}
	letters := ""
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}
