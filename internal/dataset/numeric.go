package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NumberFormat describes the locale used when reading numeric cells.
type NumberFormat struct {
	// DecimalSeparator; if 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator; if 0, strip common separators (',' '.' space) that differ from the decimal one.
	ThousandsSeparator rune
}

// Coercion is the outcome of converting one column to numbers. Values has one
// entry per table row; NaN marks a cell that could not be used.
type Coercion struct {
	Column  string
	Values  []float64
	Missing int // blank cells
	Invalid int // non-blank cells that are not numeric
}

// Dropped is the number of rows that carry no usable number.
func (c Coercion) Dropped() int { return c.Missing + c.Invalid }

// Valid is the number of rows with a usable number.
func (c Coercion) Valid() int { return len(c.Values) - c.Dropped() }

// Coerce converts raw cells to numbers using the given locale. Blank and
// non-numeric cells become NaN and are counted separately.
func Coerce(name string, cells []string, nf NumberFormat) Coercion {
	out := Coercion{Column: name, Values: make([]float64, len(cells))}
	for i, raw := range cells {
		v := strings.TrimSpace(raw)
		if v == "" {
			out.Values[i] = math.NaN()
			out.Missing++
			continue
		}
		x, ok := ParseNumber(v, nf)
		if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
			out.Values[i] = math.NaN()
			out.Invalid++
			continue
		}
		out.Values[i] = x
	}
	return out
}

// ParseNumber parses a single cell, honoring percent signs and locale separators.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := nf.DecimalSeparator
	thou := nf.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatNumber renders a derived value back into a cell; NaN becomes blank.
func FormatNumber(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
