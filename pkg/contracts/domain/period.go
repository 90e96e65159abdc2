package domain

import "fmt"

// PeriodKey is the canonical, totally ordered representation of a reporting
// quarter. Quarter is 1..4; Year 0 means the source string carried no year.
// The zero value (Quarter 0) is the UnknownPeriod key.
//
// Ordering policy, fixed at the boundary so no downstream code re-decides it:
// yearless quarters sort as one group before all yeared quarters, yeared
// quarters sort chronologically by (year, quarter), and UnknownPeriod sorts
// after everything.
type PeriodKey struct {
	Year    int `json:"year,omitempty"`
	Quarter int `json:"quarter"`
}

// UnknownPeriod is the key for records whose quarter could not be resolved.
// Chronological aggregations skip it rather than plot an unordered bucket.
var UnknownPeriod = PeriodKey{}

// IsUnknown reports whether no quarter could be extracted.
func (k PeriodKey) IsUnknown() bool {
	return k.Quarter == 0
}

// HasYear reports whether the source string carried an explicit year.
func (k PeriodKey) HasYear() bool {
	return k.Year != 0
}

// Less implements the total order described on PeriodKey.
func (k PeriodKey) Less(other PeriodKey) bool {
	if k.IsUnknown() || other.IsUnknown() {
		return !k.IsUnknown() && other.IsUnknown()
	}
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Quarter < other.Quarter
}

// String renders "Q1", "Q1 2025", or "Unknown".
func (k PeriodKey) String() string {
	if k.IsUnknown() {
		return "Unknown"
	}
	if !k.HasYear() {
		return fmt.Sprintf("Q%d", k.Quarter)
	}
	return fmt.Sprintf("Q%d %d", k.Quarter, k.Year)
}
