// Package lifecycle implements the pure rules that evolve a dragon's stage,
// streak, and mood from timestamped activity. Every function takes time as an
// explicit argument so callers control the clock.
package lifecycle

import (
	"github.com/dragonhaven/server/internal/domain"
)

// Resolve maps a progress metric to a growth stage. Thresholds are matched in
// descending order, first match wins; an unset (<= 0) ancient threshold is
// skipped. Thresholds are assumed non-decreasing and are not validated.
func Resolve(metric int, t domain.Thresholds) domain.Stage {
	if t.HasAncient() && metric >= t.Ancient {
		return domain.StageAncient
	}
	if metric >= t.Adult {
		return domain.StageAdult
	}
	if metric >= t.Teen {
		return domain.StageTeen
	}
	if metric >= t.Baby {
		return domain.StageBaby
	}
	return domain.StageEgg
}

// StageFor computes a dragon's current stage from its evolution config.
//
// A dragon whose persisted stage is already ancient while its config carries
// no ancient threshold stays ancient regardless of metric. This is the legacy
// manual "project completed" override; giving such a dragon an ancient
// threshold later reverts it to metric-driven staging.
func StageFor(d *domain.Dragon) domain.Stage {
	if d.Stage == domain.StageAncient && !d.Evolution.Thresholds.HasAncient() {
		return domain.StageAncient
	}
	return Resolve(d.Metric(), d.Evolution.Thresholds)
}
