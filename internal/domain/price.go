package domain

import (
	"fmt"
	"time"
)

// PriceRow is one trading day of the input table.
// Volatility is annualized; zero means "not computed yet".
type PriceRow struct {
	Date       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Volatility float64
	MAShort    float64 // short moving average of Close (wheel only)
	MALong     float64 // long moving average of Close (wheel only)
}

// PriceTable is a chronologically ordered sequence of price rows.
type PriceTable []PriceRow

// Validate checks strict date ordering and positive closes.
// An empty table is valid here; callers decide whether empty is an error.
func (t PriceTable) Validate() error {
	for i, row := range t {
		if row.Close <= 0 {
			return fmt.Errorf("%w: row %d (%s) has non-positive close %v",
				ErrInvalidPriceTable, i, row.Date.Format(DateLayout), row.Close)
		}
		if i > 0 && !row.Date.After(t[i-1].Date) {
			return fmt.Errorf("%w: row %d (%s) is not after %s",
				ErrInvalidPriceTable, i, row.Date.Format(DateLayout), t[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}

// Closes returns the close column.
func (t PriceTable) Closes() []float64 {
	out := make([]float64, len(t))
	for i, row := range t {
		out[i] = row.Close
	}
	return out
}

// Clone returns a deep copy so callers can fill derived columns without
// touching the source table.
func (t PriceTable) Clone() PriceTable {
	if t == nil {
		return nil
	}
	out := make(PriceTable, len(t))
	copy(out, t)
	return out
}

// DateLayout is the calendar date format used in configs, CSVs and reports.
const DateLayout = "2006-01-02"
