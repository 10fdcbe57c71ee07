// Package domain contains core domain types for the Dragon Haven engine.
package domain

import (
	"time"
)

// Element is a dragon's elemental type. Cosmetic only; it never affects rules.
type Element string

const (
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
	ElementVoid  Element = "void"
)

// Elements lists all valid elemental types.
var Elements = []Element{ElementFire, ElementWater, ElementEarth, ElementAir, ElementVoid}

// Stage is a discrete growth phase, ordered egg < baby < teen < adult < ancient.
type Stage string

const (
	StageEgg     Stage = "egg"
	StageBaby    Stage = "baby"
	StageTeen    Stage = "teen"
	StageAdult   Stage = "adult"
	StageAncient Stage = "ancient"
)

var stageOrder = map[Stage]int{
	StageEgg:     0,
	StageBaby:    1,
	StageTeen:    2,
	StageAdult:   3,
	StageAncient: 4,
}

// Index returns the position of the stage in the growth order.
// Unknown stages sort before egg.
func (s Stage) Index() int {
	if i, ok := stageOrder[s]; ok {
		return i
	}
	return -1
}

// Valid reports whether the stage is one of the known growth phases.
func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Mood classifies recent activity and dormancy for display. Never persisted.
type Mood string

const (
	MoodContent     Mood = "content"
	MoodEager       Mood = "eager"
	MoodHibernating Mood = "hibernating"
	MoodSleeping    Mood = "sleeping"
)

// TrackMode selects which progress metric drives evolution.
type TrackMode string

const (
	// TrackTime evolves on cumulative focus minutes.
	TrackTime TrackMode = "time"
	// TrackStreak evolves on consecutive training days.
	TrackStreak TrackMode = "streak"
)

// Thresholds holds stage boundaries in the unit implied by the track mode
// (minutes for time mode, days for streak mode). Ancient <= 0 means the
// ancient stage is only reachable through the manual project-complete path.
type Thresholds struct {
	Baby    int `json:"baby"`
	Teen    int `json:"teen"`
	Adult   int `json:"adult"`
	Ancient int `json:"ancient,omitempty"`
}

// HasAncient reports whether a numeric ancient threshold is configured.
func (t Thresholds) HasAncient() bool {
	return t.Ancient > 0
}

// EvolutionConfig ties a dragon to a tracking mode and its thresholds.
type EvolutionConfig struct {
	Type       TrackMode  `json:"type"`
	Thresholds Thresholds `json:"thresholds"`
}

// Task is a user-managed milestone on a dragon's project. Order is
// significant and user-controlled.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"isCompleted"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryType tags a chronicle entry.
type HistoryType string

const (
	HistoryPlan              HistoryType = "plan"
	HistoryReflection        HistoryType = "reflection"
	HistoryChat              HistoryType = "chat"
	HistoryMilestoneComplete HistoryType = "milestone_complete"
	HistoryInsight           HistoryType = "insight"
)

// HistoryRole identifies the author of a chronicle entry.
type HistoryRole string

const (
	RoleUser   HistoryRole = "user"
	RoleAI     HistoryRole = "ai"
	RoleSystem HistoryRole = "system"
)

// HistoryEntry is one chronicle record. Entries may be deleted individually
// but are never mutated in place.
type HistoryEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      HistoryType `json:"type"`
	Content   string      `json:"content"`
	Role      HistoryRole `json:"role"`
}

// Dragon is the evolving creature tied to one project or habit.
type Dragon struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Subtitle string  `json:"subtitle,omitempty"`
	IsHabit  bool    `json:"isHabit"`
	Element  Element `json:"type"`
	Stage    Stage   `json:"stage"`

	// PortraitURL is an opaque reference owned by the visual subsystem.
	PortraitURL string `json:"imageUrl,omitempty"`

	// LastFed is the wall-clock time of the most recent credited activity
	// (semantically "last trained").
	LastFed time.Time `json:"lastFed"`

	// NapStartedAt is non-nil exactly when IsNapping is true.
	NapStartedAt *time.Time `json:"napStartedAt,omitempty"`
	IsNapping    bool       `json:"isNapping"`

	TotalFocusMinutes int `json:"totalFocusMinutes"`
	CurrentStreak     int `json:"currentStreak"`

	Evolution EvolutionConfig `json:"evolutionConfig"`

	Tasks   []Task         `json:"tasks"`
	History []HistoryEntry `json:"history"`
}

// Metric returns the progress value compared against thresholds: consecutive
// days in streak mode, cumulative minutes otherwise.
func (d *Dragon) Metric() int {
	if d.Evolution.Type == TrackStreak {
		return d.CurrentStreak
	}
	return d.TotalFocusMinutes
}

// HasTasks reports whether the dragon has any milestones, complete or not.
func (d *Dragon) HasTasks() bool {
	return len(d.Tasks) > 0
}

// CompletedTaskTitles returns the titles of completed milestones in order.
func (d *Dragon) CompletedTaskTitles() []string {
	var titles []string
	for _, t := range d.Tasks {
		if t.Completed {
			titles = append(titles, t.Title)
		}
	}
	return titles
}

// FindTask returns the index of the task with the given id, or -1.
func (d *Dragon) FindTask(id string) int {
	for i, t := range d.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
