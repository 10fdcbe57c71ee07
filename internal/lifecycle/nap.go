package lifecycle

import (
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

// ToggleNap flips a dragon between active and dormant, mutating it in place.
//
// Waking has asymmetric accounting. A voluntary nap pauses the activity
// clock: LastFed shifts forward by exactly the nap duration, so no neglect
// accrued while resting. Waking out of automatic hibernation instead resets
// LastFed to now — there is no bounded pause to restore, the backlog is
// simply forgiven.
//
// Putting an active dragon to sleep records the nap start and leaves LastFed
// untouched. IsNapping and NapStartedAt move in lockstep in every branch.
func ToggleNap(d *domain.Dragon, now time.Time) {
	wasAutoHibernating := MoodFor(d, now) == domain.MoodHibernating
	wakingUp := d.IsNapping || wasAutoHibernating

	if !wakingUp {
		start := now
		d.IsNapping = true
		d.NapStartedAt = &start
		return
	}

	if d.IsNapping && d.NapStartedAt != nil {
		napDuration := now.Sub(*d.NapStartedAt)
		d.LastFed = d.LastFed.Add(napDuration)
	} else if wasAutoHibernating {
		d.LastFed = now
	}

	d.IsNapping = false
	d.NapStartedAt = nil
}
