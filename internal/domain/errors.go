package domain

import "errors"

// Input errors. The HTTP layer maps these to 400 responses.
var (
	// ErrInvalidInput is returned when a request cannot be interpreted at all.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig is returned when a backtest configuration fails validation.
	ErrInvalidConfig = errors.New("invalid backtest config")

	// ErrInvalidDateRange is returned when end date is not after start date
	// for an operation that needs at least one day.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrEmptyPriceTable is returned when historical mode has no price rows to run on.
	ErrEmptyPriceTable = errors.New("empty price table")

	// ErrInvalidPriceTable is returned when rows are out of order or carry non-positive closes.
	ErrInvalidPriceTable = errors.New("invalid price table")

	// ErrUnknownScenario is returned by strict scenario parsing.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// IsInputError reports whether err was caused by caller-supplied data.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrEmptyPriceTable) ||
		errors.Is(err, ErrInvalidPriceTable) ||
		errors.Is(err, ErrUnknownScenario)
}
