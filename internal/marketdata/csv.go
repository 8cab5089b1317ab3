// Package marketdata loads historical daily bars from CSV files.
//
// Expected header (case-insensitive, any column order):
//
//	Date,Open,High,Low,Close[,Adj Close][,Volume][,Volatility]
//
// Dates are YYYY-MM-DD. Rows with "null" or empty prices are skipped.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing csv column")

var requiredColumns = []string{"date", "close"}

// ReadCSV parses daily bars from r, sorted by date.
// Open, High and Low default to Close when absent.
func ReadCSV(r io.Reader) (domain.PriceTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.PriceTable{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var table domain.PriceTable
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row, ok, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidPriceTable, line, err)
		}
		if ok {
			table = append(table, row)
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Date.Before(table[j].Date)
	})
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// parseRecord converts one record. ok is false for rows without a price.
func parseRecord(record []string, cols map[string]int) (domain.PriceRow, bool, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := time.Parse(domain.DateLayout, field("date"))
	if err != nil {
		return domain.PriceRow{}, false, fmt.Errorf("bad date %q", field("date"))
	}

	closeStr := field("close")
	if closeStr == "" || strings.EqualFold(closeStr, "null") {
		return domain.PriceRow{}, false, nil
	}
	closePrice, err := strconv.ParseFloat(closeStr, 64)
	if err != nil {
		return domain.PriceRow{}, false, fmt.Errorf("bad close %q", closeStr)
	}

	optional := func(name string, fallback float64) (float64, error) {
		s := field(name)
		if s == "" || strings.EqualFold(s, "null") {
			return fallback, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s %q", name, s)
		}
		return v, nil
	}

	row := domain.PriceRow{Date: date, Close: closePrice}
	if row.Open, err = optional("open", closePrice); err != nil {
		return domain.PriceRow{}, false, err
	}
	if row.High, err = optional("high", closePrice); err != nil {
		return domain.PriceRow{}, false, err
	}
	if row.Low, err = optional("low", closePrice); err != nil {
		return domain.PriceRow{}, false, err
	}
	if row.Volume, err = optional("volume", 0); err != nil {
		return domain.PriceRow{}, false, err
	}
	if row.Volatility, err = optional("volatility", 0); err != nil {
		return domain.PriceRow{}, false, err
	}
	return row, true, nil
}

// LoadCSV reads a CSV file of daily bars.
func LoadCSV(path string) (domain.PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// WriteCSV writes bars in the format ReadCSV accepts.
func WriteCSV(w io.Writer, table domain.PriceTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Open", "High", "Low", "Close", "Volume", "Volatility"}); err != nil {
		return err
	}
	for _, row := range table {
		err := cw.Write([]string{
			row.Date.Format(domain.DateLayout),
			formatFloat(row.Open),
			formatFloat(row.High),
			formatFloat(row.Low),
			formatFloat(row.Close),
			formatFloat(row.Volume),
			formatFloat(row.Volatility),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FileName returns the CSV file name for symbol inside a data directory.
func FileName(dir, symbol string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+".csv")
}
