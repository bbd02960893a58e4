package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// utf8BOM is stripped from the head of CSV input. Excel exports carry it.
const utf8BOM = "\ufeff"

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HeaderCh   chan<- []string // optional: receives the first row instead of rowCh
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads CSV from r and sends rows to a channel. When HeaderCh is
// set the first row goes there and is not repeated on the row channel.
// Rows may have differing field counts. Both channels are closed when
// processing completes; at most one error is sent.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		br := bufio.NewReader(r)
		if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
			_, _ = br.Discard(len(utf8BOM))
		}

		reader := csv.NewReader(br)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			var out chan<- []string = rowCh
			if first && opts.HeaderCh != nil {
				out = opts.HeaderCh
			}
			first = false

			select {
			case out <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSVFile reads a whole CSV file into its header and data rows.
func ReadCSVFile(ctx context.Context, path string, opts CSVOptions) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	opts.HeaderCh = headerCh
	rowCh, errCh := StreamCSV(ctx, f, opts)

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
		return nil, nil, eris.Errorf("csv: %s has no header row", path)
	}
}
