// Package utils provides small shared helpers for the Praxis governance service.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatCode renders a human-readable entity code: <PREFIX>-<NNN>, optionally
// with a sub-dimension segment (<PREFIX>-<SUB>-<NNN>). The number is zero-padded
// to at least padding digits; larger numbers render at their natural width.
func FormatCode(prefix, subDimension string, number int64, padding int) string {
	if padding < 3 {
		padding = 3
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(prefix))
	if subDimension != "" {
		b.WriteString("-")
		b.WriteString(strings.ToUpper(subDimension))
	}
	fmt.Fprintf(&b, "-%0*d", padding, number)
	return b.String()
}

// FallbackNumber derives a guaranteed-unique-in-practice reservation number
// from a high-resolution timestamp. Used when the allocator exhausts its
// optimistic retries; the resulting code is valid but not dense.
func FallbackNumber(now time.Time) int64 {
	return now.UnixNano()
}
