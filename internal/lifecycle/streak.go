package lifecycle

import (
	"math"
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

// HoursSince returns the whole wall-clock hours elapsed between lastFed and
// now. This is an hour difference, not a calendar-day difference.
func HoursSince(now, lastFed time.Time) int {
	return int(now.Sub(lastFed).Hours())
}

// CalendarDaysBetween returns the number of calendar-date boundaries crossed
// between a and b, in a's location. Same date yields 0 even when nearly 24
// hours apart.
func CalendarDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, a.Location())
	// Rounding absorbs DST offsets inside the span.
	return int(math.Round(bd.Sub(ad).Hours() / 24))
}

// NextStreak computes the streak a dragon would hold after training now,
// based on the calendar-day gap since its previous LastFed. Callers must
// invoke this before advancing LastFed.
//
// Same day: unchanged (a second session today never double-counts).
// Next day: streak + 1.
// Anything else resets to 1, today counting as day one.
func NextStreak(d *domain.Dragon, now time.Time) int {
	diffDays := CalendarDaysBetween(d.LastFed, now)

	if diffDays == 0 {
		return d.CurrentStreak
	}
	if diffDays == 1 {
		return d.CurrentStreak + 1
	}

	// A dragon that has never trained starts its streak at 1 no matter what
	// its seeded LastFed says. Kept separate from the generic reset below in
	// case the two values ever diverge.
	if d.TotalFocusMinutes == 0 {
		return 1
	}

	return 1
}
