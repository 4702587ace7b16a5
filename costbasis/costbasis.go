// Package costbasis tracks what held currency cost to acquire. Two
// trackers run over the same store: FIFO keeps discrete acquisition
// lots and consumes them oldest first, Average keeps one blended
// record per currency. The trade executor feeds both; which one a
// report uses is the caller's choice.
package costbasis

import (
	"errors"
	"strings"
)

// ErrInsufficientAmount reports a removal larger than the tracked
// holding. Nothing is consumed when this is returned.
var ErrInsufficientAmount = errors.New("insufficient tracked amount")

func normalize(currency string) string {
	return strings.ToUpper(currency)
}
