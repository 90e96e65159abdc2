package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dealpulse/pkg/contracts/domain"
)

// Unit states the convention a source column uses for suffix-less numbers.
// The workbook is inconsistent about whether a bare "350" means dollars or
// millions, so every call site binds the convention explicitly instead of
// letting the parser guess.
type Unit int

const (
	// UnitDollars treats bare numbers as already being in dollars.
	UnitDollars Unit = iota
	// UnitMillions multiplies bare numbers by 1e6. Values carrying an
	// explicit B/M suffix are unaffected by the unit.
	UnitMillions
)

func (u Unit) factor() float64 {
	if u == UnitMillions {
		return 1e6
	}
	return 1
}

// undisclosedLiteral is the sentinel the workbook uses for missing values.
const undisclosedLiteral = "undisclosed"

// Normalize converts a raw cell value into a canonical dollar Amount.
//
// nil, blank strings, and the "Undisclosed" literal map to the Undisclosed
// marker. Numeric Go values are taken as dollars unchanged, which makes
// normalization idempotent. Strings are stripped of currency symbols and
// thousands separators, scaled by a trailing B/M (or billion/million)
// suffix, and otherwise by the column unit. Anything unparseable degrades
// to Undisclosed; Normalize never panics and never returns an error.
func Normalize(raw any, unit Unit) domain.Amount {
	switch v := raw.(type) {
	case nil:
		return domain.UndisclosedAmount()
	case domain.Amount:
		return v
	case float64:
		return domain.NewAmount(v)
	case float32:
		return domain.NewAmount(float64(v))
	case int:
		return domain.NewAmount(float64(v))
	case int32:
		return domain.NewAmount(float64(v))
	case int64:
		return domain.NewAmount(float64(v))
	case string:
		return normalizeString(v, unit)
	case fmt.Stringer:
		return normalizeString(v.String(), unit)
	default:
		return domain.UndisclosedAmount()
	}
}

func normalizeString(raw string, unit Unit) domain.Amount {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, undisclosedLiteral) {
		return domain.UndisclosedAmount()
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	factor := unit.factor()
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "billion"):
		factor = 1e9
		s = s[:len(s)-len("billion")]
	case strings.HasSuffix(lower, "million"):
		factor = 1e6
		s = s[:len(s)-len("million")]
	case strings.HasSuffix(lower, "b"):
		factor = 1e9
		s = s[:len(s)-1]
	case strings.HasSuffix(lower, "m"):
		factor = 1e6
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return domain.UndisclosedAmount()
	}

	return domain.NewAmount(n * factor)
}

// Style selects how Format renders a disclosed amount.
type Style int

const (
	// StyleFull renders the exact dollar value with thousands separators,
	// e.g. "$2,100,000,000". Normalize(Format(a, StyleFull)) round-trips.
	StyleFull Style = iota
	// StyleAbbrev renders the compact dashboard form, e.g. "$2.1B", "$350M".
	StyleAbbrev
)

// Format is the display inverse of Normalize. Undisclosed always formats to
// the literal "Undisclosed" regardless of style.
func Format(a domain.Amount, style Style) string {
	if !a.Disclosed {
		return "Undisclosed"
	}
	if style == StyleAbbrev {
		return formatAbbrev(a.Value)
	}
	return formatFull(a.Value)
}

func formatAbbrev(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case av >= 1e6:
		return fmt.Sprintf("$%.0fM", v/1e6)
	default:
		return formatFull(v)
	}
}

func formatFull(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	return sign + "$" + groupThousands(intPart) + fracPart
}

// groupThousands inserts comma separators into a digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
