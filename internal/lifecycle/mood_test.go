package lifecycle

import (
	"testing"
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

func TestMoodForWindows(t *testing.T) {
	cases := []struct {
		sinceFed time.Duration
		want     domain.Mood
	}{
		{1 * time.Hour, domain.MoodContent},
		{23 * time.Hour, domain.MoodContent},
		{24 * time.Hour, domain.MoodEager},
		{167 * time.Hour, domain.MoodEager},
		{168 * time.Hour, domain.MoodHibernating},
		{10 * 24 * time.Hour, domain.MoodHibernating},
	}
	for _, tc := range cases {
		d := &domain.Dragon{LastFed: noon.Add(-tc.sinceFed)}
		if got := MoodFor(d, noon); got != tc.want {
			t.Errorf("MoodFor(fed %v ago) = %s, want %s", tc.sinceFed, got, tc.want)
		}
	}
}

func TestMoodForNappingOverridesNeglect(t *testing.T) {
	start := noon.Add(-time.Hour)
	d := &domain.Dragon{
		LastFed:      noon.Add(-30 * 24 * time.Hour),
		IsNapping:    true,
		NapStartedAt: &start,
	}

	if got := MoodFor(d, noon); got != domain.MoodSleeping {
		t.Errorf("napping MoodFor = %s, want sleeping", got)
	}
}
