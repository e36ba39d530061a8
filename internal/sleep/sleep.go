// Package sleep converts self-reported sleep durations such as "4-6 hrs" into
// numeric hours.
package sleep

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse is matched by every ParseError via errors.Is.
var ErrParse = errors.New("malformed sleep duration")

// ParseError reports a cell that is neither blank nor a valid duration.
type ParseError struct {
	Index  int // position in the input; -1 for a single ParseHours call
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sleep value %d %q: %s", e.Index, e.Value, e.Reason)
	}
	return fmt.Sprintf("sleep value %q: %s", e.Value, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

var (
	unitSuffix = regexp.MustCompile(`(?i)\s*(hours?|hrs?|h)\.?\s*$`)
	rangeSplit = regexp.MustCompile(`\s*(?:-|–|—|\bto\b)\s*`)
)

// ParseHours converts one entry. "6 hrs" yields 6, "4-6 hrs" yields 5.
// A blank entry yields NaN and no error.
func ParseHours(s string) (float64, error) {
	return parseAt(-1, s)
}

// Normalize converts every entry, keeping length and order. Blank entries map
// to NaN. The first malformed entry aborts with a *ParseError.
func Normalize(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		h, err := parseAt(i, v)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func parseAt(idx int, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN(), nil
	}
	body := strings.TrimSpace(unitSuffix.ReplaceAllString(s, ""))
	if body == "" {
		return 0, &ParseError{Index: idx, Value: raw, Reason: "no number before unit"}
	}
	parts := rangeSplit.Split(body, -1)
	switch len(parts) {
	case 1:
		return bound(idx, raw, parts[0])
	case 2:
		lo, err := bound(idx, raw, parts[0])
		if err != nil {
			return 0, err
		}
		hi, err := bound(idx, raw, parts[1])
		if err != nil {
			return 0, err
		}
		if lo > hi {
			return 0, &ParseError{Index: idx, Value: raw, Reason: "range lower bound exceeds upper bound"}
		}
		return (lo + hi) / 2, nil
	default:
		return 0, &ParseError{Index: idx, Value: raw, Reason: "more than two range bounds"}
	}
}

func bound(idx int, raw, part string) (float64, error) {
	p := strings.TrimSpace(part)
	if p == "" {
		return 0, &ParseError{Index: idx, Value: raw, Reason: "empty range bound"}
	}
	x, err := strconv.ParseFloat(p, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, &ParseError{Index: idx, Value: raw, Reason: fmt.Sprintf("%q is not a number", p)}
	}
	if x < 0 || x > 24 {
		return 0, &ParseError{Index: idx, Value: raw, Reason: "hours outside 0-24"}
	}
	return x, nil
}
