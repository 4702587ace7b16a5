// Package orderid generates and validates the 19-digit order
// identifiers used by the ledger. The first 18 digits form a strictly
// increasing sequence counter; the 19th is a Verhoeff check digit over
// the counter, so a mistyped or corrupted id is caught before it ever
// reaches the store.
package orderid

import (
	"errors"
	"fmt"
)

// MaxCounter is the largest 18-digit sequence counter whose 19-digit
// identifier (counter shifted left one digit plus check digit) still
// fits in an int64.
const MaxCounter int64 = 922_337_203_685_477_579

var (
	// ErrFormat reports an identifier that does not decompose into 19
	// decimal digits.
	ErrFormat = errors.New("order id is not a 19 digit number")

	// ErrExhausted reports that every identifier in the valid range has
	// been issued.
	ErrExhausted = errors.New("order id space exhausted")
)

// Verhoeff tables. d is the multiplication table of the dihedral group
// D5, p the position permutation table (period 8), inv the inverse
// table. These values are canonical and shared with every other system
// that validates ledger ids; they must never change.
var (
	d = [10][10]int64{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
		{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
		{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
		{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
		{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
		{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
		{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
		{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}

	p = [8][10]int64{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
		{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
		{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
		{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
		{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
		{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
		{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
	}

	inv = [10]int64{0, 4, 3, 2, 1, 5, 6, 7, 8, 9}
)

// CheckDigit computes the Verhoeff check digit for an 18-digit sequence
// counter. The counter occupies digit positions 1..18 counted from the
// right; position 0 is reserved for the check digit itself.
func CheckDigit(counter int64) (int64, error) {
	if counter <= 0 || counter > MaxCounter {
		return 0, fmt.Errorf("check digit for counter %d: %w", counter, ErrFormat)
	}

	var c int64
	n := counter
	for i := 1; i <= 18; i++ {
		digit := n % 10
		n /= 10
		c = d[c][p[i%8][digit]]
	}
	return inv[c], nil
}

// Validate reports whether id carries a correct check digit. The
// accumulation runs over all 19 digits right to left, check digit
// included; the id is valid iff the accumulator lands on zero.
// Malformed input (zero or negative) is simply invalid.
func Validate(id int64) bool {
	if id <= 0 {
		return false
	}

	var c int64
	n := id
	for i := 0; i < 19; i++ {
		digit := n % 10
		n /= 10
		c = d[c][p[i%8][digit]]
	}
	return c == 0
}

// Generate produces the identifier that follows lastID. Pass 0 when
// the ledger is empty. The counter portion is incremented by one and a
// fresh check digit appended, so consecutive ids differ in more than
// the final digit.
func Generate(lastID int64) (int64, error) {
	counter, err := split(lastID)
	if err != nil {
		return 0, err
	}

	next := counter + 1
	if next > MaxCounter {
		return 0, fmt.Errorf("generate after %d: %w", lastID, ErrExhausted)
	}

	check, err := CheckDigit(next)
	if err != nil {
		return 0, err
	}
	return next*10 + check, nil
}

// Remaining returns how many identifiers can still be issued after
// lastID (0 for an empty ledger).
func Remaining(lastID int64) (int64, error) {
	counter, err := split(lastID)
	if err != nil {
		return 0, err
	}
	return MaxCounter - counter, nil
}

// Capacity returns the total number of issuable identifiers.
func Capacity() int64 {
	return MaxCounter
}

// split separates the sequence counter from the check digit. An id of
// 0 stands for the empty ledger and yields counter 0.
func split(id int64) (int64, error) {
	if id < 0 {
		return 0, fmt.Errorf("split id %d: %w", id, ErrFormat)
	}
	return id / 10, nil
}
