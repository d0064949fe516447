// Package format renders metric values for reports. Both the stream
// aggregator and the summary formatter go through these functions so the
// same input always produces the same text.
package format

import (
	"fmt"
	"math"
)

const (
	// zeroDuration is the magnitude below which a duration prints as zero
	// at two decimals in any unit
	zeroDuration = 0.000005

	kibibyte = 1024
	mebibyte = 1024 * 1024
)

// Duration formats a duration given in milliseconds.
// Sub-millisecond values render in microseconds, values under a second in
// milliseconds, everything else in seconds. Always two decimals.
// Values that round to zero stay in milliseconds, the input unit.
func Duration(ms float64) string {
	if math.Abs(ms) < zeroDuration {
		return "0.00ms"
	} else if ms < 1 {
		return fmt.Sprintf("%.2fµs", ms*1000)
	} else if ms < 1000 {
		return fmt.Sprintf("%.2fms", ms)
	}
	return fmt.Sprintf("%.2fs", ms/1000)
}

// Bytes formats a byte count (or byte rate) with binary units
func Bytes(bytes float64) string {
	if bytes < kibibyte {
		return fmt.Sprintf("%.0f B", bytes)
	} else if bytes < mebibyte {
		return fmt.Sprintf("%.1f kB", bytes/kibibyte)
	}
	return fmt.Sprintf("%.1f MB", bytes/mebibyte)
}

// Percent formats a 0..1 rate as a percentage with two decimals
func Percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
