package lifecycle

import (
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

// Hours of inactivity before a dragon stops being content, and before it
// slips into automatic hibernation.
const (
	contentWindowHours  = 24
	hibernateAfterHours = 7 * 24
)

// MoodFor classifies a dragon's current mood. A voluntary nap always reads as
// sleeping; otherwise mood degrades with hours since last training, ending in
// hibernating after a week of neglect. Recomputed on every read, never stored.
func MoodFor(d *domain.Dragon, now time.Time) domain.Mood {
	if d.IsNapping {
		return domain.MoodSleeping
	}

	hours := HoursSince(now, d.LastFed)
	switch {
	case hours < contentWindowHours:
		return domain.MoodContent
	case hours < hibernateAfterHours:
		return domain.MoodEager
	default:
		return domain.MoodHibernating
	}
}
