package resource

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholder replaces missing values in display and export cells.
const Placeholder = "N/A"

// DateLayout is the display format of timestamps.
const DateLayout = "2006-01-02 15:04"

// Text returns s trimmed, or Placeholder when empty.
func Text(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Placeholder
	}
	return s
}

// Date formats t in UTC, or returns Placeholder for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.UTC().Format(DateLayout)
}

// StatusLabel renders a status flag.
func StatusLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

// Money formats an amount in minor units with two decimals.
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// PriceRange formats a price range, collapsing equal bounds to one price.
func PriceRange(lo, hi int64) string {
	if lo == 0 && hi == 0 {
		return Placeholder
	}
	if lo == hi {
		return Money(lo)
	}
	return Money(lo) + " - " + Money(hi)
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
