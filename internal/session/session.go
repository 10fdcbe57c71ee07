package session

import (
	"context"
	"time"

	"github.com/dragonhaven/server/internal/domain"
	"github.com/dragonhaven/server/internal/lifecycle"
	"github.com/google/uuid"
)

// Start begins a focus session for a dragon and launches the countdown
// worker. A session needs either a non-empty intention or at least one
// milestone on the dragon. minutes of 0 selects the configured default.
func (e *Engine) Start(ctx context.Context, dragonID int, intention string, minutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return ErrSessionInProgress
	}
	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	if minutes == 0 {
		minutes = e.cfg.DefaultSessionMinutes
	}
	if minutes < e.cfg.MinSessionMinutes {
		return ErrSessionTooShort
	}
	if intention == "" && !d.HasTasks() {
		return ErrIntentionRequired
	}

	if intention != "" {
		d.History = append(d.History, domain.HistoryEntry{
			ID:        uuid.NewString(),
			Timestamp: e.now(),
			Type:      domain.HistoryPlan,
			Content:   intention,
			Role:      domain.RoleUser,
		})
	}

	stop := make(chan struct{})
	e.session = &activeSession{
		dragonID:         dragonID,
		intention:        intention,
		minutes:          minutes,
		remainingSeconds: minutes * 60,
		phase:            PhaseTimer,
		stop:             stop,
	}
	go e.runTimer(stop)

	e.persist(ctx)
	e.logger.Info("focus session started", "dragon_id", dragonID, "minutes", minutes)
	return nil
}

func (e *Engine) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if e.tickSession() {
				return
			}
		}
	}
}

// tickSession advances the countdown by one second. Returns true when the
// worker should exit.
func (e *Engine) tickSession() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || e.session.phase != PhaseTimer {
		return true
	}

	e.session.remainingSeconds--
	if e.session.remainingSeconds > 0 {
		e.publish(Event{
			Type:             EventTimerTick,
			DragonID:         e.session.dragonID,
			RemainingSeconds: e.session.remainingSeconds,
		})
		return false
	}

	e.session.remainingSeconds = 0
	e.session.phase = PhasePost
	e.session.stop = nil
	e.publish(Event{Type: EventSessionComplete, DragonID: e.session.dragonID})
	e.logger.Info("focus session timer finished", "dragon_id", e.session.dragonID)
	return true
}

// Cancel abandons the running session. All speculative progress is
// discarded; nothing is credited and nothing is logged to the ledger.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}
	if e.session.stop != nil {
		close(e.session.stop)
	}
	dragonID := e.session.dragonID
	e.session = nil
	e.publish(Event{Type: EventSessionCancelled, DragonID: dragonID})
	e.logger.Info("focus session cancelled", "dragon_id", dragonID)
	return nil
}

// FinalizeResult reports what a completed session changed.
type FinalizeResult struct {
	PointsAwarded int          `json:"pointsAwarded"`
	NewStreak     int          `json:"newStreak"`
	HasEvolved    bool         `json:"hasEvolved"`
	NewStage      domain.Stage `json:"newStage,omitempty"`
}

// Finalize commits a finished session in one atomic step: reward points,
// focus minutes, streak, the immutable ledger entry, and the optional
// reflection. When the updated metrics cross a stage threshold the persisted
// stage is held back and an evolution is left pending for the ritual (or its
// skip path) to commit.
func (e *Engine) Finalize(ctx context.Context, reflection string) (*FinalizeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrNoActiveSession
	}
	if e.session.phase != PhasePost {
		return nil, ErrSessionNotFinished
	}
	d := e.state.FindDragon(e.session.dragonID)
	if d == nil {
		e.session = nil
		return nil, ErrDragonNotFound
	}

	now := e.now()
	sess := e.session
	e.session = nil

	e.state.UserPoints += e.cfg.RewardPoints

	// Streak derives from the pre-session LastFed; compute before touching
	// any counter.
	prevStage := d.Stage
	newStreak := lifecycle.NextStreak(d, now)
	d.TotalFocusMinutes += sess.minutes
	d.CurrentStreak = newStreak
	d.LastFed = now

	newStage := lifecycle.StageFor(d)
	hasEvolved := newStage.Index() > prevStage.Index()

	intention := sess.intention
	if intention == "" {
		intention = "Focus Session"
	}
	log := domain.FocusLog{
		ID:              uuid.NewString(),
		DragonID:        d.ID,
		Timestamp:       now,
		DurationMinutes: sess.minutes,
		Intention:       intention,
		Reflection:      reflection,
		CompletedTasks:  d.CompletedTaskTitles(),
	}
	e.state.Logs = append([]domain.FocusLog{log}, e.state.Logs...)

	if reflection != "" {
		d.History = append(d.History, domain.HistoryEntry{
			ID:        uuid.NewString(),
			Timestamp: now,
			Type:      domain.HistoryReflection,
			Content:   reflection,
			Role:      domain.RoleUser,
		})
	}

	if hasEvolved {
		// The record keeps the old stage until the evolution completes.
		e.evo = evolutionState{
			phase: EvoIdle,
			pending: &pendingEvolution{
				dragonID:  d.ID,
				fromStage: prevStage,
				toStage:   newStage,
			},
		}
	}

	e.persist(ctx)
	e.publish(Event{Type: EventSessionFinalized, DragonID: d.ID, Stage: newStage})
	e.logger.Info("focus session finalized",
		"dragon_id", d.ID, "minutes", sess.minutes, "streak", newStreak, "evolved", hasEvolved)

	return &FinalizeResult{
		PointsAwarded: e.cfg.RewardPoints,
		NewStreak:     newStreak,
		HasEvolved:    hasEvolved,
		NewStage:      newStage,
	}, nil
}
