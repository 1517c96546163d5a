// Package ingest loads a timestamped CSV file into a table.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/table"
)

const DefaultTimeColumn = "Date_time"

// layouts are tried in order when Options.TimeLayout is empty.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

type Options struct {
	// TimeColumn names the timestamp column. Default DefaultTimeColumn.
	TimeColumn string
	// TimeLayout is a time.Parse layout; empty tries the common layouts.
	TimeLayout string
	// Fields selects and orders the value columns. Empty keeps every non-time
	// column in header order.
	Fields []string
	// Target names the predicted field. Empty picks the last field.
	Target string
	// Location applies to layouts without a zone. Default UTC.
	Location *time.Location
}

func LoadCSV(path string, opts Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a header row plus data rows, sorts the rows by timestamp and
// builds a table. Unparseable cells fail with a *dataerr.MalformedInputError
// naming the data row (0-based, file order) and the column.
func ReadCSV(r io.Reader, opts Options) (*table.Table, error) {
	if opts.TimeColumn == "" {
		opts.TimeColumn = DefaultTimeColumn
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, dataerr.Malformed(-1, "empty input, a header row is required")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	timeCol, columns, fields, err := resolveColumns(header, opts)
	if err != nil {
		return nil, err
	}
	target := opts.Target
	if target == "" {
		target = fields[len(fields)-1]
	}

	var rows []table.Row
	for row := 0; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dataerr.Malformed(row, "%v", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		at, err := parseTime(strings.TrimSpace(record[timeCol]), opts)
		if err != nil {
			return nil, dataerr.Malformed(row, "column %s: %v", header[timeCol], err)
		}
		values := make([]float64, len(columns))
		for j, col := range columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, dataerr.Malformed(row, "column %s: %q is not a number", header[col], record[col])
			}
			values[j] = v
		}
		rows = append(rows, table.Row{Time: at, Values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time.Before(rows[j].Time)
	})
	return table.New(fields, target, rows)
}

func resolveColumns(header []string, opts Options) (timeCol int, columns []int, fields []string, err error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	timeCol, ok := index[opts.TimeColumn]
	if !ok {
		return 0, nil, nil, dataerr.InvalidConfig("timeColumn", opts.TimeColumn, "not in header %v", header)
	}

	fields = opts.Fields
	if len(fields) == 0 {
		for i, name := range header {
			if i != timeCol {
				fields = append(fields, name)
			}
		}
	}
	if len(fields) == 0 {
		return 0, nil, nil, dataerr.Malformed(-1, "no value columns besides %s", opts.TimeColumn)
	}
	columns = make([]int, len(fields))
	for j, name := range fields {
		col, ok := index[name]
		if !ok || col == timeCol {
			return 0, nil, nil, dataerr.InvalidConfig("fields", name, "not a value column of header %v", header)
		}
		columns[j] = col
	}
	return timeCol, columns, fields, nil
}

func parseTime(s string, opts Options) (time.Time, error) {
	if opts.TimeLayout != "" {
		t, err := time.ParseInLocation(opts.TimeLayout, s, opts.Location)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, opts.Location); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q matches none of the known time layouts", s)
}
