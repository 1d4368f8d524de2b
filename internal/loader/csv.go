package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/autopages/internal/record"
)

// CSVLoader handles delimited tabular files. The first row holds the column
// names; every further row becomes one record.
type CSVLoader struct {
	Delimiter rune
}

func (l *CSVLoader) Load(r io.Reader, filename string) ([]*record.Fields, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.Delimiter
	if reader.Comma == 0 {
		reader.Comma = DefaultDelimiter
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := columnNames(records[0])
	rows := make([]*record.Fields, 0, len(records)-1)
	for _, rec := range records[1:] {
		f := record.NewFields()
		for j, cell := range rec {
			f.Set(headers[j], cell)
		}
		rows = append(rows, f)
	}
	return rows, nil
}

// columnNames names blank header cells "Unnamed: <col>", which is how
// spreadsheet exports with an index column usually come out.
func columnNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}
