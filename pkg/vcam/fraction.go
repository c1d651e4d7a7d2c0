// Package vcam holds the value types shared by the wire codec, the
// preferences store and the bridge: frame rates, pixel formats, frame
// buffers and device control descriptors.
package vcam

import (
	"fmt"
	"strconv"
	"strings"
)

// Fraction is a rational frame rate, num/den. A zero denominator with a
// nonzero numerator represents positive infinity; a zero numerator and
// zero denominator is the invalid sentinel.
type Fraction struct {
	Num int64
	Den int64
}

// InvalidFraction is the normalized sentinel for a fraction that failed
// to parse or carried a non-positive denominator.
var InvalidFraction = Fraction{Num: 0, Den: 1}

// ParseFraction parses "N" or "N/D". Trailing non-digit characters make
// the string invalid. A parsed denominator less than 1 normalizes to
// InvalidFraction, matching the reference implementation.
func ParseFraction(s string) Fraction {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		numStr := strings.TrimSpace(s[:idx])
		denStr := strings.TrimSpace(s[idx+1:])

		num, numOK := parseInt64Prefix(numStr)
		den, denOK := parseInt64Prefix(denStr)

		if !numOK || !denOK || den < 1 {
			return InvalidFraction
		}

		return Fraction{Num: num, Den: den}
	}

	num, ok := parseInt64Prefix(strings.TrimSpace(s))
	if !ok {
		return Fraction{Num: 0, Den: 1}
	}

	return Fraction{Num: num, Den: 1}
}

// parseInt64Prefix mimics strtol: it parses as much of s as forms a
// valid base-10 integer, but reports ok=false if any character is left
// over (the codec treats "abc", "3x" etc as malformed).
func parseInt64Prefix(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// IsFractionString reports whether s parses cleanly as a Fraction,
// without normalizing an invalid denominator away.
func IsFractionString(s string) bool {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		_, numOK := parseInt64Prefix(strings.TrimSpace(s[:idx]))
		_, denOK := parseInt64Prefix(strings.TrimSpace(s[idx+1:]))
		return numOK && denOK
	}

	_, ok := parseInt64Prefix(strings.TrimSpace(s))
	return ok
}

// String renders the fraction as "N/D".
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Value returns the floating point quotient num/den.
func (f Fraction) Value() float64 {
	return float64(f.Num) / float64(f.Den)
}

// IsInfinity reports whether the fraction is +infinity (den == 0, num != 0).
func (f Fraction) IsInfinity() bool {
	return f.Num != 0 && f.Den == 0
}

// Sign returns 1 if num and den carry the same sign, -1 otherwise.
func (f Fraction) Sign() int {
	if signbit(f.Num) == signbit(f.Den) {
		return 1
	}
	return -1
}

func signbit(n int64) bool {
	return n < 0
}

// Equal compares fractions by cross-multiplication, so 1/2 == 2/4.
func (f Fraction) Equal(other Fraction) bool {
	if f.Den == 0 && other.Den != 0 {
		return false
	}
	if f.Den != 0 && other.Den == 0 {
		return false
	}
	return f.Num*other.Den == f.Den*other.Num
}

// Less compares fractions by cross-multiplication.
func (f Fraction) Less(other Fraction) bool {
	return f.Num*other.Den < f.Den*other.Num
}
