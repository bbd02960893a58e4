package fetcher

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int             // default 0
	SheetName  string          // if set, overrides SheetIndex
	HeaderCh   chan<- []string // optional: receives the first row instead of rowCh
}

// ReadXLSX reads one sheet of an XLSX file and returns its header row and the
// data rows beneath it.
func ReadXLSX(ctx context.Context, path string, opts XLSXOptions) ([]string, [][]string, error) {
	headerCh := make(chan []string, 1)
	opts.HeaderCh = headerCh
	rowCh, errCh := StreamXLSX(ctx, path, opts)

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, nil, err
	}

	select {
	case header := <-headerCh:
		return header, rows, nil
	default:
		return nil, nil, eris.Errorf("xlsx: %s has no header row", path)
	}
}

// StreamXLSX reads an XLSX sheet and sends rows to a channel. Date cells are
// rendered as 2006-01-02 so they parse like CSV dates.
// Both channels are closed when processing completes.
func StreamXLSX(ctx context.Context, path string, opts XLSXOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := xlsx.OpenFile(path)
		if err != nil {
			errCh <- eris.Wrap(err, "xlsx: open file")
			return
		}

		sheet, err := getSheet(f, opts)
		if err != nil {
			errCh <- err
			return
		}

		for i, row := range sheet.Rows {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}

			var out chan<- []string = rowCh
			if i == 0 && opts.HeaderCh != nil {
				out = opts.HeaderCh
			}

			select {
			case out <- rowToStrings(row, f.Date1904):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xlsx: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row, date1904 bool) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell.IsTime() {
			if t, err := cell.GetTime(date1904); err == nil {
				cells[j] = t.Format(time.DateOnly)
				continue
			}
		}
		cells[j] = cell.String()
	}
	return cells
}
