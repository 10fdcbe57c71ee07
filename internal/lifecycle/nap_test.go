package lifecycle

import (
	"testing"
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

func TestToggleNapPutsToSleep(t *testing.T) {
	lastFed := noon.Add(-2 * time.Hour)
	d := trainedDragon(1, 30, lastFed)

	ToggleNap(d, noon)

	if !d.IsNapping {
		t.Fatal("expected dragon to be napping")
	}
	if d.NapStartedAt == nil || !d.NapStartedAt.Equal(noon) {
		t.Fatalf("expected NapStartedAt = %v, got %v", noon, d.NapStartedAt)
	}
	if !d.LastFed.Equal(lastFed) {
		t.Errorf("LastFed changed on sleep: %v -> %v", lastFed, d.LastFed)
	}
}

func TestToggleNapRoundTripPreservesProgress(t *testing.T) {
	lastFed := noon.Add(-2 * time.Hour)
	d := trainedDragon(1, 30, lastFed)
	moodBefore := MoodFor(d, noon)

	ToggleNap(d, noon)
	wake := noon.Add(6 * time.Hour)
	ToggleNap(d, wake)

	if d.IsNapping || d.NapStartedAt != nil {
		t.Fatal("expected dragon awake with nap state cleared")
	}
	want := lastFed.Add(6 * time.Hour)
	if !d.LastFed.Equal(want) {
		t.Errorf("LastFed = %v, want %v (shifted by nap duration)", d.LastFed, want)
	}
	// The nap must not change how the dragon reads afterwards: the neglect
	// clock resumes exactly where it was paused.
	if got := MoodFor(d, wake); got != moodBefore {
		t.Errorf("mood after nap = %s, want %s", got, moodBefore)
	}
}

func TestToggleNapWakesAutoHibernation(t *testing.T) {
	d := trainedDragon(3, 200, noon.Add(-10*24*time.Hour))

	if MoodFor(d, noon) != domain.MoodHibernating {
		t.Fatal("precondition: dragon should be auto-hibernating")
	}

	ToggleNap(d, noon)

	if d.IsNapping || d.NapStartedAt != nil {
		t.Fatal("expected wake, not sleep")
	}
	if !d.LastFed.Equal(noon) {
		t.Errorf("LastFed = %v, want reset to now %v", d.LastFed, noon)
	}
	if got := MoodFor(d, noon); got != domain.MoodContent {
		t.Errorf("mood after hibernation wake = %s, want content", got)
	}
}

func TestToggleNapLockstepInvariant(t *testing.T) {
	d := trainedDragon(1, 10, noon.Add(-time.Hour))

	for i := 0; i < 4; i++ {
		ToggleNap(d, noon.Add(time.Duration(i)*time.Minute))
		if d.IsNapping != (d.NapStartedAt != nil) {
			t.Fatalf("toggle %d: IsNapping=%v but NapStartedAt=%v", i, d.IsNapping, d.NapStartedAt)
		}
	}
}
