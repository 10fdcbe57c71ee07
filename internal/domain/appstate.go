package domain

import (
	"time"
)

// FocusLog is the immutable record of one completed focus session.
type FocusLog struct {
	ID              string    `json:"id"`
	DragonID        int       `json:"dragonId"`
	Timestamp       time.Time `json:"timestamp"`
	DurationMinutes int       `json:"durationMinutes"`
	Intention       string    `json:"intention"`
	Reflection      string    `json:"reflection"`
	CompletedTasks  []string  `json:"completedTasks"`
}

// AppState is the aggregate unit of persistence: the reward balance, every
// dragon, and the full session ledger (newest log first).
type AppState struct {
	UserPoints int        `json:"userPoints"`
	Dragons    []Dragon   `json:"dragons"`
	Logs       []FocusLog `json:"logs"`
}

// FindDragon returns a pointer into the state's dragon slice, or nil.
func (s *AppState) FindDragon(id int) *Dragon {
	for i := range s.Dragons {
		if s.Dragons[i].ID == id {
			return &s.Dragons[i]
		}
	}
	return nil
}

// NextDragonID returns an id one past the highest assigned so far.
// Dragons are never deleted, so ids are never reused.
func (s *AppState) NextDragonID() int {
	max := 0
	for _, d := range s.Dragons {
		if d.ID > max {
			max = d.ID
		}
	}
	return max + 1
}

// DefaultTimeThresholds are the stage boundaries for time-mode dragons,
// in minutes.
func DefaultTimeThresholds() Thresholds {
	return Thresholds{Baby: 1, Teen: 2, Adult: 3, Ancient: 4}
}

// DefaultStreakThresholds are the stage boundaries for streak-mode dragons,
// in consecutive days. No ancient threshold: habits reach ancient only via
// the manual project-complete path.
func DefaultStreakThresholds() Thresholds {
	return Thresholds{Baby: 3, Teen: 7, Adult: 21}
}

// DefaultEvolution synthesizes an evolution config for a dragon missing one:
// habits track streaks, projects track time.
func DefaultEvolution(isHabit bool) EvolutionConfig {
	if isHabit {
		return EvolutionConfig{Type: TrackStreak, Thresholds: DefaultStreakThresholds()}
	}
	return EvolutionConfig{Type: TrackTime, Thresholds: DefaultTimeThresholds()}
}

// SeedState returns the starter roster used on first launch and whenever the
// persisted document is missing or unreadable.
func SeedState(now time.Time) *AppState {
	return &AppState{
		UserPoints: 0,
		Dragons: []Dragon{
			{
				ID: 1, Name: "Ignis", Subtitle: "Q4 Financial Report",
				Element: ElementFire, Stage: StageEgg, LastFed: now,
				Evolution: EvolutionConfig{Type: TrackTime, Thresholds: DefaultTimeThresholds()},
				Tasks:     []Task{}, History: []HistoryEntry{},
			},
			{
				ID: 2, Name: "Aqua", Subtitle: "Daily Meditation", IsHabit: true,
				Element: ElementWater, Stage: StageEgg, LastFed: now,
				Evolution: EvolutionConfig{Type: TrackStreak, Thresholds: DefaultStreakThresholds()},
				Tasks:     []Task{}, History: []HistoryEntry{},
			},
			{
				ID: 3, Name: "Terra", Subtitle: "Garden Renovation",
				Element: ElementEarth, Stage: StageEgg, LastFed: now.Add(-25 * time.Hour),
				Evolution: EvolutionConfig{Type: TrackTime, Thresholds: DefaultTimeThresholds()},
				Tasks:     []Task{}, History: []HistoryEntry{},
			},
		},
		Logs: []FocusLog{},
	}
}

// UnlockNames is the pool of names for newly unlocked dragons.
var UnlockNames = []string{
	"Aether", "Zephyr", "Nyx", "Chaos", "Nova",
	"Flux", "Echo", "Mist", "Obsidian", "Sol",
}
