package reporting

import "github.com/shopspring/decimal"

// Money formats v as a fixed two-decimal amount.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent formats a percentage value with two decimals and a % suffix.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// sumValues adds amounts in decimal and rounds the total to cents.
func sumValues(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
