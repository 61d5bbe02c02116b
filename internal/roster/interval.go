// Package roster holds the pure assignment and leave rules. Nothing here touches storage.
package roster

import "github.com/noah-isme/nurse-roster-api/internal/models"

const secondsPerDay = 24 * 60 * 60

// Overlaps treats both ranges as half-open intervals on the same reference day.
// Ranges that only touch at an endpoint do not overlap. No day rollover is applied.
func Overlaps(startA, endA, startB, endB models.TimeOfDay) bool {
	return startA < endB && startB < endA
}

// Duration returns the length of a shift in hours. An end before the start falls on the next day.
func Duration(start, end models.TimeOfDay) float64 {
	diff := end.Seconds() - start.Seconds()
	if diff < 0 {
		diff += secondsPerDay
	}
	return float64(diff) / 3600
}
