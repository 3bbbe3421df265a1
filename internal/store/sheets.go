package store

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore backs tables with worksheets of a single Google spreadsheet.
// Each worksheet's first row is the header schema; every row below is one
// record. This is the primary backend when a spreadsheet is configured.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsStore creates a sheets-backed store. credential is either the
// raw service-account JSON or a path to it.
func NewSheetsStore(ctx context.Context, spreadsheetID, credential string) (*SheetsStore, error) {
	var opts []option.ClientOption
	if cred := strings.TrimSpace(credential); cred != "" {
		if strings.HasPrefix(cred, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(cred)))
		} else {
			opts = append(opts, option.WithCredentialsFile(cred))
		}
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// EnsureTable creates the worksheet if absent and rewrites its header row
// when it differs from the expected schema. The rewrite clears all rows.
func (s *SheetsStore) EnsureTable(ctx context.Context, name string, headers []string) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	exists := false
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			exists = true
			break
		}
	}

	if !exists {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to add worksheet %s: %w", name, err)
		}
	}

	current, err := s.headerRow(ctx, name)
	if err != nil {
		return err
	}
	if sameHeaders(current, headers) {
		return nil
	}

	// Header drift: clear the worksheet and write the expected schema.
	// Destructive, matching the documented reset semantics.
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, name, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear worksheet %s: %w", name, err)
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, fmt.Sprintf("%s!A1", name), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header row for %s: %w", name, err)
	}
	return nil
}

// ReadAll returns every data row of the worksheet, keyed by the header row
func (s *SheetsStore) ReadAll(ctx context.Context, name string) ([]Record, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", name, err)
	}
	if len(resp.Values) < 2 {
		return []Record{}, nil
	}

	headers := toStrings(resp.Values[0])
	records := make([]Record, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := toStrings(raw)
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Append writes one new row below the existing data
func (s *SheetsStore) Append(ctx context.Context, name string, rec Record) error {
	headers, err := s.headerRow(ctx, name)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return fmt.Errorf("worksheet %s has no header row; call EnsureTable first", name)
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = rec[h]
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, name, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to worksheet %s: %w", name, err)
	}
	return nil
}

// UpdateByID rewrites the row whose first column matches id, merging the
// updates into the existing values. No locking: a concurrent writer can
// still win the race between the read and the write.
func (s *SheetsStore) UpdateByID(ctx context.Context, name, id string, updates Record) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, name).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read worksheet %s: %w", name, err)
	}
	if len(resp.Values) < 2 {
		return ErrRecordNotFound
	}

	headers := toStrings(resp.Values[0])
	for i, raw := range resp.Values[1:] {
		row := toStrings(raw)
		if len(row) == 0 || row[0] != id {
			continue
		}

		rec := make(Record, len(headers))
		for j, h := range headers {
			if j < len(row) {
				rec[h] = row[j]
			}
		}
		rec = merge(rec, updates)

		out := make([]interface{}, len(headers))
		for j, h := range headers {
			out[j] = rec[h]
		}

		rowNum := i + 2 // 1-based, plus header row
		rangeStr := fmt.Sprintf("%s!A%d:%s%d", name, rowNum, columnName(len(headers)), rowNum)
		vr := &sheets.ValueRange{Values: [][]interface{}{out}}
		_, err = s.svc.Spreadsheets.Values.
			Update(s.spreadsheetID, rangeStr, vr).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to update row in worksheet %s: %w", name, err)
		}
		return nil
	}
	return ErrRecordNotFound
}

func (s *SheetsStore) headerRow(ctx context.Context, name string) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("%s!1:1", name)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row of %s: %w", name, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}

// columnName converts a 1-based column number to its A1-notation letter
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
