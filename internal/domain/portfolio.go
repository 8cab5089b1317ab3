package domain

import (
	"math"
	"time"
)

// OptionKind distinguishes calls from puts.
type OptionKind string

// Option kinds
const (
	OptionCall OptionKind = "CALL"
	OptionPut  OptionKind = "PUT"
)

// ContractMultiplier is the number of shares one option contract covers.
const ContractMultiplier = 100

// OptionPosition is a single option leg held by the portfolio.
// Contracts may be fractional for the LEAP leg; wheel legs use whole contracts.
type OptionPosition struct {
	Kind         OptionKind
	Strike       float64
	Expiry       time.Time
	Contracts    float64
	EntryPrice   float64 // per-share premium at open
	CurrentPrice float64 // per-share premium at last repricing
}

// Value returns the marked value of the leg. A zero-volatility mark can be negative.
func (p *OptionPosition) Value() float64 {
	if p == nil {
		return 0
	}
	return p.Contracts * ContractMultiplier * p.CurrentPrice
}

// DaysToExpiry returns whole calendar days from date to expiry.
// Negative once expiry has passed.
func (p *OptionPosition) DaysToExpiry(date time.Time) int {
	return DaysBetween(date, p.Expiry)
}

// YearsToExpiry returns DaysToExpiry/365, floored at zero.
func (p *OptionPosition) YearsToExpiry(date time.Time) float64 {
	return math.Max(float64(p.DaysToExpiry(date)), 0) / 365.0
}

// PnLPercent returns (current - entry) / entry * 100.
// ok is false when the entry price is not positive.
func (p *OptionPosition) PnLPercent() (pct float64, ok bool) {
	if p == nil || p.EntryPrice <= 0 {
		return 0, false
	}
	return (p.CurrentPrice - p.EntryPrice) / p.EntryPrice * 100, true
}

// Portfolio is the mutable state of the simulated account.
// Shares and contracts are never negative; wheel legs are short positions.
type Portfolio struct {
	Cash         float64
	EquityShares float64
	Leap         *OptionPosition // long call
	WheelPut     *OptionPosition // short put
	WheelCall    *OptionPosition // short covered call
}

// EquityValue marks shares at price.
func (p *Portfolio) EquityValue(price float64) float64 {
	return p.EquityShares * price
}

// NetValue returns cash + equity + LEAP - short put - short call.
func (p *Portfolio) NetValue(price float64) float64 {
	return p.Cash + p.EquityValue(price) + p.Leap.Value() - p.WheelPut.Value() - p.WheelCall.Value()
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a = TruncateDay(a)
	b = TruncateDay(b)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// TruncateDay drops the time-of-day component in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
