package domain

import "time"

// Greeks are portfolio-level sensitivities in share-equivalent units.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"` // per calendar day
	Vega  float64 `json:"vega"`  // per 1 volatility point
}

// Snapshot is the end-of-day state of the portfolio.
// TotalValue = CashValue + EquityValue + LeapValue - WheelPutValue - WheelCallValue.
type Snapshot struct {
	Date           time.Time `json:"date"`
	EquityValue    float64   `json:"equity_value"`
	LeapValue      float64   `json:"leap_value"`
	WheelPutValue  float64   `json:"wheel_put_value"`
	WheelCallValue float64   `json:"wheel_call_value"`
	CashValue      float64   `json:"cash_value"`
	TotalValue     float64   `json:"total_value"`
	BenchmarkValue float64   `json:"benchmark_value"`
	EquityPrice    float64   `json:"equity_price"`
	Drawdown       float64   `json:"drawdown"` // fraction of running peak, in [0, 1]
	Greeks         *Greeks   `json:"greeks,omitempty"`
}
