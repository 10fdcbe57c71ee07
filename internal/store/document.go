package store

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

// The persisted document keeps the original schema of the app: timestamps are
// epoch milliseconds and field names match the historical JSON layout, so
// documents written by any prior version load cleanly. All schema tolerance
// lives in this file; nothing outside the store ever sees a raw record.

type stateDoc struct {
	UserPoints int             `json:"userPoints"`
	Dragons    json.RawMessage `json:"dragons"`
	Logs       []logDoc        `json:"logs"`
}

type dragonDoc struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Subtitle     string          `json:"subtitle,omitempty"`
	IsHabit      any             `json:"isHabit,omitempty"`
	Type         string          `json:"type"`
	Stage        string          `json:"stage"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	LastFed      int64           `json:"lastFed"`
	NapStartedAt *int64          `json:"napStartedAt"`
	IsNapping    bool            `json:"isNapping"`
	TotalMinutes int             `json:"totalFocusMinutes"`
	Streak       any             `json:"currentStreak"`
	Evolution    *evolutionDoc   `json:"evolutionConfig"`
	Tasks        json.RawMessage `json:"tasks"`
	History      json.RawMessage `json:"history"`
}

type evolutionDoc struct {
	Type       string            `json:"type"`
	Thresholds domain.Thresholds `json:"thresholds"`
}

type taskDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"isCompleted"`
	CreatedAt int64  `json:"createdAt"`
}

type historyDoc struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Role      string `json:"role"`
}

type logDoc struct {
	ID              string   `json:"id"`
	DragonID        int      `json:"dragonId"`
	Timestamp       int64    `json:"timestamp"`
	DurationMinutes int      `json:"durationMinutes"`
	Intention       string   `json:"intention"`
	Reflection      string   `json:"reflection"`
	CompletedTasks  []string `json:"completedTasks"`
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

// decodeState turns raw document bytes into a repaired AppState. A document
// whose dragon list is missing or not a list is unusable and yields nil.
func decodeState(raw []byte, now time.Time) *domain.AppState {
	var doc stateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("state document unreadable, using seed", "error", err)
		return nil
	}

	var rawDragons []json.RawMessage
	if err := json.Unmarshal(doc.Dragons, &rawDragons); err != nil {
		slog.Warn("dragon list missing or malformed, using seed", "error", err)
		return nil
	}

	state := &domain.AppState{
		UserPoints: doc.UserPoints,
		Dragons:    make([]domain.Dragon, 0, len(rawDragons)),
		Logs:       make([]domain.FocusLog, 0, len(doc.Logs)),
	}

	for _, rd := range rawDragons {
		var dd dragonDoc
		if err := json.Unmarshal(rd, &dd); err != nil {
			slog.Warn("skipping unreadable dragon record", "error", err)
			continue
		}
		state.Dragons = append(state.Dragons, repairDragon(dd, now))
	}

	for _, ld := range doc.Logs {
		state.Logs = append(state.Logs, domain.FocusLog{
			ID:              ld.ID,
			DragonID:        ld.DragonID,
			Timestamp:       fromMillis(ld.Timestamp),
			DurationMinutes: ld.DurationMinutes,
			Intention:       ld.Intention,
			Reflection:      ld.Reflection,
			CompletedTasks:  ld.CompletedTasks,
		})
	}

	return state
}

// repairDragon defaults every drifted or missing field so no single
// malformed record can fail a load.
func repairDragon(dd dragonDoc, now time.Time) domain.Dragon {
	d := domain.Dragon{
		ID:                dd.ID,
		Name:              dd.Name,
		Subtitle:          dd.Subtitle,
		IsHabit:           coerceBool(dd.IsHabit),
		Element:           domain.Element(dd.Type),
		Stage:             domain.Stage(dd.Stage),
		PortraitURL:       dd.ImageURL,
		IsNapping:         dd.IsNapping,
		TotalFocusMinutes: dd.TotalMinutes,
		CurrentStreak:     coerceInt(dd.Streak),
		Tasks:             []domain.Task{},
		History:           []domain.HistoryEntry{},
	}

	if !d.Stage.Valid() {
		d.Stage = domain.StageEgg
	}
	if d.Subtitle == "" {
		d.Subtitle = "New Quest"
	}
	if dd.LastFed > 0 {
		d.LastFed = fromMillis(dd.LastFed)
	} else {
		d.LastFed = now
	}
	if dd.NapStartedAt != nil {
		ts := fromMillis(*dd.NapStartedAt)
		d.NapStartedAt = &ts
	}
	// Napping flag and nap-start timestamp move in lockstep; repair either
	// half if a partial write left them split.
	if d.IsNapping && d.NapStartedAt == nil {
		start := d.LastFed
		d.NapStartedAt = &start
	}
	if !d.IsNapping {
		d.NapStartedAt = nil
	}

	if dd.Evolution != nil {
		d.Evolution = domain.EvolutionConfig{
			Type:       domain.TrackMode(dd.Evolution.Type),
			Thresholds: dd.Evolution.Thresholds,
		}
		if d.Evolution.Type != domain.TrackTime && d.Evolution.Type != domain.TrackStreak {
			d.Evolution.Type = domain.TrackTime
		}
	} else {
		d.Evolution = domain.DefaultEvolution(d.IsHabit)
	}

	var tasks []taskDoc
	if err := json.Unmarshal(dd.Tasks, &tasks); err == nil {
		for _, td := range tasks {
			d.Tasks = append(d.Tasks, domain.Task{
				ID:        td.ID,
				Title:     td.Title,
				Completed: td.Completed,
				CreatedAt: fromMillis(td.CreatedAt),
			})
		}
	}

	var history []historyDoc
	if err := json.Unmarshal(dd.History, &history); err == nil {
		for _, hd := range history {
			d.History = append(d.History, domain.HistoryEntry{
				ID:        hd.ID,
				Timestamp: fromMillis(hd.Timestamp),
				Type:      domain.HistoryType(hd.Type),
				Content:   hd.Content,
				Role:      domain.HistoryRole(hd.Role),
			})
		}
	}

	return d
}

// encodeState serializes a fully-populated document for writing back.
func encodeState(state *domain.AppState) ([]byte, error) {
	dragons := make([]dragonDoc, 0, len(state.Dragons))
	for i := range state.Dragons {
		dragons = append(dragons, encodeDragon(&state.Dragons[i]))
	}
	rawDragons, err := json.Marshal(dragons)
	if err != nil {
		return nil, err
	}

	logs := make([]logDoc, 0, len(state.Logs))
	for _, l := range state.Logs {
		logs = append(logs, logDoc{
			ID:              l.ID,
			DragonID:        l.DragonID,
			Timestamp:       millis(l.Timestamp),
			DurationMinutes: l.DurationMinutes,
			Intention:       l.Intention,
			Reflection:      l.Reflection,
			CompletedTasks:  l.CompletedTasks,
		})
	}

	return json.Marshal(stateDoc{
		UserPoints: state.UserPoints,
		Dragons:    rawDragons,
		Logs:       logs,
	})
}

func encodeDragon(d *domain.Dragon) dragonDoc {
	dd := dragonDoc{
		ID:           d.ID,
		Name:         d.Name,
		Subtitle:     d.Subtitle,
		IsHabit:      d.IsHabit,
		Type:         string(d.Element),
		Stage:        string(d.Stage),
		ImageURL:     d.PortraitURL,
		LastFed:      millis(d.LastFed),
		IsNapping:    d.IsNapping,
		TotalMinutes: d.TotalFocusMinutes,
		Streak:       d.CurrentStreak,
		Evolution: &evolutionDoc{
			Type:       string(d.Evolution.Type),
			Thresholds: d.Evolution.Thresholds,
		},
	}
	if d.NapStartedAt != nil {
		ts := millis(*d.NapStartedAt)
		dd.NapStartedAt = &ts
	}

	tasks := make([]taskDoc, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		tasks = append(tasks, taskDoc{
			ID:        t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			CreatedAt: millis(t.CreatedAt),
		})
	}
	dd.Tasks, _ = json.Marshal(tasks)

	history := make([]historyDoc, 0, len(d.History))
	for _, h := range d.History {
		history = append(history, historyDoc{
			ID:        h.ID,
			Timestamp: millis(h.Timestamp),
			Type:      string(h.Type),
			Content:   h.Content,
			Role:      string(h.Role),
		})
	}
	dd.History, _ = json.Marshal(history)

	return dd
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return false
	}
}

func coerceInt(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
