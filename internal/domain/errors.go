package domain

import "fmt"

// MinHistoryPoints is the minimum number of usable price samples required
// before indicators can be computed.
const MinHistoryPoints = 30

// InsufficientDataError reports a price series too short for analysis.
// Callers are expected to substitute a labeled fallback forecast.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price data: have %d usable points, need %d", e.Have, e.Need)
}

// InvalidInputError reports a malformed forecast input.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
