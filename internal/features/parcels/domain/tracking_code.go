package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

var trackingCodePattern = regexp.MustCompile(`^TRK\d{13,}\d{4}$`)

// NewTrackingCode returns TRK followed by the millisecond epoch and a
// zero-padded 4 digit random suffix. Uniqueness is enforced by the store.
func NewTrackingCode(now time.Time) string {
	return fmt.Sprintf("TRK%d%04d", now.UnixMilli(), rand.IntN(10000))
}

// ValidTrackingCode reports whether code has the tracking code shape.
func ValidTrackingCode(code string) bool {
	return trackingCodePattern.MatchString(code)
}
