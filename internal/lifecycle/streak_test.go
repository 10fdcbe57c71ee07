package lifecycle

import (
	"testing"
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

var noon = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func trainedDragon(streak, minutes int, lastFed time.Time) *domain.Dragon {
	return &domain.Dragon{
		CurrentStreak:     streak,
		TotalFocusMinutes: minutes,
		LastFed:           lastFed,
	}
}

func TestNextStreakSameDayUnchanged(t *testing.T) {
	d := trainedDragon(4, 100, noon.Add(-2*time.Hour))

	if got := NextStreak(d, noon); got != 4 {
		t.Errorf("same-day NextStreak = %d, want 4", got)
	}
	// Idempotent: a second session the same day still reports the same value.
	if got := NextStreak(d, noon.Add(time.Hour)); got != 4 {
		t.Errorf("repeated same-day NextStreak = %d, want 4", got)
	}
}

func TestNextStreakConsecutiveDay(t *testing.T) {
	d := trainedDragon(4, 100, noon.AddDate(0, 0, -1))

	if got := NextStreak(d, noon); got != 5 {
		t.Errorf("consecutive-day NextStreak = %d, want 5", got)
	}
}

func TestNextStreakConsecutiveDateAcrossShortGap(t *testing.T) {
	// 11pm yesterday to 1am today is only two hours but crosses a date line.
	lastFed := time.Date(2026, time.March, 9, 23, 0, 0, 0, time.UTC)
	now := time.Date(2026, time.March, 10, 1, 0, 0, 0, time.UTC)
	d := trainedDragon(2, 50, lastFed)

	if got := NextStreak(d, now); got != 3 {
		t.Errorf("cross-midnight NextStreak = %d, want 3", got)
	}
}

func TestNextStreakBrokenResetsToOne(t *testing.T) {
	d := trainedDragon(5, 100, noon.AddDate(0, 0, -3))

	if got := NextStreak(d, noon); got != 1 {
		t.Errorf("broken-streak NextStreak = %d, want 1", got)
	}
}

func TestNextStreakNewDragonStartsAtOne(t *testing.T) {
	// Zero accumulated minutes means "never trained", even when the seeded
	// LastFed is recent enough that diffDays would be 0 or 1.
	d := trainedDragon(0, 0, noon.AddDate(0, 0, -5))

	if got := NextStreak(d, noon); got != 1 {
		t.Errorf("new-dragon NextStreak = %d, want 1", got)
	}
}

func TestHoursSince(t *testing.T) {
	lastFed := noon.Add(-25*time.Hour - 30*time.Minute)
	if got := HoursSince(noon, lastFed); got != 25 {
		t.Errorf("HoursSince = %d, want 25", got)
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{noon, noon.Add(2 * time.Hour), 0},
		{noon.Add(-11 * time.Hour), noon.Add(11 * time.Hour), 0},
		{time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC), time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC), 1},
		{noon.AddDate(0, 0, -3), noon, 3},
	}
	for _, tc := range cases {
		if got := CalendarDaysBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("CalendarDaysBetween(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
