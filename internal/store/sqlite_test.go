package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dragonhaven/server/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "haven.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestLoadMissingFallsBackToSeed(t *testing.T) {
	s := newTestStore(t)

	state := s.Load(context.Background())

	if len(state.Dragons) != 3 {
		t.Fatalf("expected 3 seed dragons, got %d", len(state.Dragons))
	}
	if state.UserPoints != 0 {
		t.Errorf("expected 0 seed points, got %d", state.UserPoints)
	}
	if state.Dragons[0].Name != "Ignis" || state.Dragons[1].Name != "Aqua" {
		t.Errorf("unexpected seed roster: %s, %s", state.Dragons[0].Name, state.Dragons[1].Name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)
	napStart := now.Add(-time.Hour)

	in := &domain.AppState{
		UserPoints: 40,
		Dragons: []domain.Dragon{{
			ID: 7, Name: "Nyx", Subtitle: "Write a novel", IsHabit: false,
			Element: domain.ElementVoid, Stage: domain.StageTeen,
			LastFed: now.Add(-3 * time.Hour), IsNapping: true, NapStartedAt: &napStart,
			TotalFocusMinutes: 120, CurrentStreak: 4,
			Evolution: domain.DefaultEvolution(false),
			Tasks: []domain.Task{
				{ID: "t1", Title: "Outline", Completed: true, CreatedAt: now},
				{ID: "t2", Title: "Chapter one", CreatedAt: now},
			},
			History: []domain.HistoryEntry{
				{ID: "h1", Timestamp: now, Type: domain.HistoryPlan, Content: "outline tonight", Role: domain.RoleUser},
			},
		}},
		Logs: []domain.FocusLog{{
			ID: "l1", DragonID: 7, Timestamp: now, DurationMinutes: 25,
			Intention: "outline tonight", Reflection: "went well",
			CompletedTasks: []string{"Outline"},
		}},
	}

	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out := s.Load(ctx)

	if len(out.Dragons) != 1 {
		t.Fatalf("expected 1 dragon, got %d", len(out.Dragons))
	}
	d := out.Dragons[0]
	if d.Name != "Nyx" || d.Stage != domain.StageTeen || d.TotalFocusMinutes != 120 || d.CurrentStreak != 4 {
		t.Errorf("dragon fields lost in round trip: %+v", d)
	}
	if !d.IsNapping || d.NapStartedAt == nil || !d.NapStartedAt.Equal(napStart) {
		t.Errorf("nap state lost in round trip: napping=%v start=%v", d.IsNapping, d.NapStartedAt)
	}
	if len(d.Tasks) != 2 || !d.Tasks[0].Completed || d.Tasks[1].Title != "Chapter one" {
		t.Errorf("tasks lost in round trip: %+v", d.Tasks)
	}
	if len(d.History) != 1 || d.History[0].Type != domain.HistoryPlan {
		t.Errorf("history lost in round trip: %+v", d.History)
	}
	if out.UserPoints != 40 || len(out.Logs) != 1 || out.Logs[0].DurationMinutes != 25 {
		t.Errorf("points/logs lost in round trip: points=%d logs=%+v", out.UserPoints, out.Logs)
	}
}

func TestLoadCorruptDocumentFallsBackToSeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (id, doc, updated_at) VALUES (1, ?, 0)`,
		`{"userPoints": 5, "dragons": "not a list"`); err != nil {
		t.Fatalf("inject corrupt doc: %v", err)
	}

	state := s.Load(ctx)
	if len(state.Dragons) != 3 {
		t.Fatalf("expected seed roster after corrupt doc, got %d dragons", len(state.Dragons))
	}
}

func TestLoadRepairsDriftedDragon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A record from an old schema version: no tasks, no history, no
	// evolution config, bogus stage, string streak.
	doc := `{
		"userPoints": 12,
		"dragons": [{
			"id": 2,
			"name": "Aqua",
			"isHabit": true,
			"type": "water",
			"stage": "chrysalis",
			"lastFed": 1700000000000,
			"isNapping": false,
			"totalFocusMinutes": 90,
			"currentStreak": "six"
		}],
		"logs": []
	}`
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (id, doc, updated_at) VALUES (1, ?, 0)`, doc); err != nil {
		t.Fatalf("inject doc: %v", err)
	}

	state := s.Load(ctx)
	if len(state.Dragons) != 1 {
		t.Fatalf("expected 1 dragon, got %d", len(state.Dragons))
	}
	d := state.Dragons[0]

	if d.Stage != domain.StageEgg {
		t.Errorf("invalid stage coerced to %s, want egg", d.Stage)
	}
	if d.Tasks == nil || len(d.Tasks) != 0 {
		t.Errorf("missing tasks coerced to %v, want empty list", d.Tasks)
	}
	if d.History == nil || len(d.History) != 0 {
		t.Errorf("missing history coerced to %v, want empty list", d.History)
	}
	if d.Subtitle != "New Quest" {
		t.Errorf("missing subtitle defaulted to %q", d.Subtitle)
	}
	if d.CurrentStreak != 0 {
		t.Errorf("non-numeric streak coerced to %d, want 0", d.CurrentStreak)
	}
	if !d.IsHabit {
		t.Error("isHabit lost in repair")
	}
	// Habit dragons get streak-mode defaults when the config is missing.
	if d.Evolution.Type != domain.TrackStreak {
		t.Errorf("synthesized evolution type = %s, want streak", d.Evolution.Type)
	}
	if d.Evolution.Thresholds != domain.DefaultStreakThresholds() {
		t.Errorf("synthesized thresholds = %+v", d.Evolution.Thresholds)
	}
	if state.UserPoints != 12 {
		t.Errorf("points = %d, want 12", state.UserPoints)
	}
}

func TestLoadSkipsUnreadableRecordKeepsRest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := `{
		"userPoints": 0,
		"dragons": [
			{"id": "oops"},
			{"id": 4, "name": "Sol", "type": "fire", "stage": "baby", "lastFed": 1700000000000,
			 "totalFocusMinutes": 10, "currentStreak": 1, "tasks": [], "history": []}
		],
		"logs": []
	}`
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (id, doc, updated_at) VALUES (1, ?, 0)`, doc); err != nil {
		t.Fatalf("inject doc: %v", err)
	}

	state := s.Load(ctx)
	if len(state.Dragons) != 1 || state.Dragons[0].Name != "Sol" {
		t.Fatalf("expected only the readable dragon to survive, got %+v", state.Dragons)
	}
}
