package lifecycle

import (
	"testing"

	"github.com/dragonhaven/server/internal/domain"
)

func TestResolveBoundaries(t *testing.T) {
	th := domain.Thresholds{Baby: 1, Teen: 2, Adult: 3}

	cases := []struct {
		metric int
		want   domain.Stage
	}{
		{0, domain.StageEgg},
		{1, domain.StageBaby},
		{2, domain.StageTeen},
		{3, domain.StageAdult},
		{25, domain.StageAdult},
	}
	for _, tc := range cases {
		if got := Resolve(tc.metric, th); got != tc.want {
			t.Errorf("Resolve(%d) = %s, want %s", tc.metric, got, tc.want)
		}
	}
}

func TestResolveAncientThreshold(t *testing.T) {
	th := domain.Thresholds{Baby: 1, Teen: 2, Adult: 3, Ancient: 4}

	if got := Resolve(3, th); got != domain.StageAdult {
		t.Errorf("Resolve(3) = %s, want adult", got)
	}
	if got := Resolve(4, th); got != domain.StageAncient {
		t.Errorf("Resolve(4) = %s, want ancient", got)
	}
}

func TestResolveExactTeenBoundary(t *testing.T) {
	th := domain.Thresholds{Baby: 10, Teen: 50, Adult: 200}

	if got := Resolve(49, th); got != domain.StageBaby {
		t.Errorf("Resolve(teen-1) = %s, want baby", got)
	}
	if got := Resolve(50, th); got != domain.StageTeen {
		t.Errorf("Resolve(teen) = %s, want teen", got)
	}
}

func TestResolveMonotonic(t *testing.T) {
	th := domain.Thresholds{Baby: 5, Teen: 20, Adult: 80, Ancient: 320}

	prev := Resolve(0, th)
	for metric := 1; metric <= 400; metric++ {
		cur := Resolve(metric, th)
		if cur.Index() < prev.Index() {
			t.Fatalf("stage regressed at metric=%d: %s -> %s", metric, prev, cur)
		}
		prev = cur
	}
}

func TestStageForLegacyAncientOverride(t *testing.T) {
	d := &domain.Dragon{
		Stage:             domain.StageAncient,
		TotalFocusMinutes: 0,
		Evolution: domain.EvolutionConfig{
			Type:       domain.TrackTime,
			Thresholds: domain.Thresholds{Baby: 1, Teen: 2, Adult: 3},
		},
	}

	// No ancient threshold: manually completed dragons stay ancient forever.
	if got := StageFor(d); got != domain.StageAncient {
		t.Errorf("StageFor = %s, want ancient", got)
	}

	// Adding an ancient threshold reverts to metric-driven staging.
	d.Evolution.Thresholds.Ancient = 100
	if got := StageFor(d); got != domain.StageEgg {
		t.Errorf("StageFor with ancient threshold = %s, want egg", got)
	}
}

func TestStageForSelectsMetricByMode(t *testing.T) {
	d := &domain.Dragon{
		Stage:             domain.StageEgg,
		TotalFocusMinutes: 500,
		CurrentStreak:     1,
		Evolution: domain.EvolutionConfig{
			Type:       domain.TrackStreak,
			Thresholds: domain.Thresholds{Baby: 3, Teen: 7, Adult: 21},
		},
	}

	// Streak mode ignores the huge minute total.
	if got := StageFor(d); got != domain.StageEgg {
		t.Errorf("streak-mode StageFor = %s, want egg", got)
	}

	d.Evolution.Type = domain.TrackTime
	d.Evolution.Thresholds = domain.Thresholds{Baby: 1, Teen: 2, Adult: 3}
	if got := StageFor(d); got != domain.StageAdult {
		t.Errorf("time-mode StageFor = %s, want adult", got)
	}
}
