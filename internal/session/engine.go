// Package session orchestrates focus sessions, evolution rituals, and every
// other mutation of the application state. All writes funnel through one
// Engine guarded by a single mutex; background workers re-enter through the
// same methods.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dragonhaven/server/internal/domain"
	"github.com/dragonhaven/server/internal/genai"
	"github.com/dragonhaven/server/internal/lifecycle"
	"github.com/dragonhaven/server/internal/store"
)

var (
	ErrDragonNotFound        = errors.New("dragon not found")
	ErrSessionInProgress     = errors.New("a focus session is already in progress")
	ErrNoActiveSession       = errors.New("no active focus session")
	ErrSessionNotFinished    = errors.New("focus session has not finished yet")
	ErrSessionTooShort       = errors.New("session length is below the minimum")
	ErrIntentionRequired     = errors.New("an intention or at least one milestone is required")
	ErrInsufficientPoints    = errors.New("not enough points")
	ErrConfirmationRequired  = errors.New("confirmation required")
	ErrNoPendingEvolution    = errors.New("no evolution is pending")
	ErrRitualInProgress      = errors.New("evolution ritual already running")
	ErrGenerationUnavailable = errors.New("asset generation is not configured")
	ErrTaskNotFound          = errors.New("task not found")
	ErrHistoryEntryNotFound  = errors.New("history entry not found")
	ErrInvalidOrder          = errors.New("reorder list does not match existing tasks")
)

// Phase is the focus session state.
type Phase string

const (
	PhaseIdle  Phase = "idle"
	PhaseTimer Phase = "timer"
	PhasePost  Phase = "post"
)

// EvoPhase is the evolution ritual state.
type EvoPhase string

const (
	EvoIdle       EvoPhase = "idle"
	EvoGenerating EvoPhase = "generating_assets"
	EvoReady      EvoPhase = "ready_to_play"
	EvoPlaying    EvoPhase = "playing"
)

// Config holds the game-economy knobs the engine needs.
type Config struct {
	RewardPoints          int
	UnlockCost            int
	MinSessionMinutes     int
	DefaultSessionMinutes int
}

type activeSession struct {
	dragonID         int
	intention        string
	minutes          int
	remainingSeconds int
	phase            Phase
	stop             chan struct{}
}

// pendingEvolution is a stage advance held back from the persisted record
// until the ritual (or its skip path) commits it.
type pendingEvolution struct {
	dragonID  int
	fromStage domain.Stage
	toStage   domain.Stage
}

type evolutionState struct {
	phase    EvoPhase
	pending  *pendingEvolution
	portrait string // data URL, empty until the pipeline produces one
	video    string // data URL, empty when video generation failed or was skipped
}

// Engine is the single writer over the application state.
type Engine struct {
	mu    sync.Mutex
	state *domain.AppState

	repo   store.Repository
	gen    genai.Generator // nil when generation is not configured
	pub    Publisher       // nil when nobody listens
	cfg    Config
	logger *slog.Logger

	// Injectable for tests.
	now  func() time.Time
	tick time.Duration

	session *activeSession
	evo     evolutionState

	// ritualMu is the in-progress guard for the asset pipeline. TryLock
	// only; never held across the engine mutex.
	ritualMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine over the given state. gen and pub may be nil.
func New(state *domain.AppState, repo store.Repository, gen genai.Generator, pub Publisher, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		state:  state,
		repo:   repo,
		gen:    gen,
		pub:    pub,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		tick:   time.Second,
		evo:    evolutionState{phase: EvoIdle},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close stops the countdown worker and any running ritual pipeline.
func (e *Engine) Close() {
	e.cancel()
	e.mu.Lock()
	if e.session != nil && e.session.stop != nil {
		close(e.session.stop)
		e.session.stop = nil
	}
	e.session = nil
	e.mu.Unlock()
}

func (e *Engine) publish(ev Event) {
	if e.pub != nil {
		e.pub.Publish(ev)
	}
}

// persist writes the state best-effort. A failed save is logged and
// swallowed; in-memory state stays authoritative for the process lifetime.
func (e *Engine) persist(ctx context.Context) {
	if err := e.repo.Save(ctx, e.state); err != nil {
		e.logger.Warn("failed to persist state", "error", err)
	}
}

// DragonView is a dragon with its display-only computed fields resolved.
type DragonView struct {
	domain.Dragon
	Mood domain.Mood `json:"mood"`
}

// StateView is a deep copy of the state for the dashboard. Stage and mood
// are recomputed per dragon at snapshot time.
type StateView struct {
	UserPoints int               `json:"userPoints"`
	Dragons    []DragonView      `json:"dragons"`
	Logs       []domain.FocusLog `json:"logs"`
}

// Snapshot returns a deep copy of the current state with computed stage and
// mood per dragon. Callers may retain it freely.
func (e *Engine) Snapshot() *StateView {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	view := &StateView{
		UserPoints: e.state.UserPoints,
		Dragons:    make([]DragonView, 0, len(e.state.Dragons)),
		Logs:       append([]domain.FocusLog{}, e.state.Logs...),
	}
	for i := range e.state.Dragons {
		view.Dragons = append(view.Dragons, e.viewOf(&e.state.Dragons[i], now))
	}
	return view
}

// DragonSnapshot returns a deep copy of one dragon, or an error when the id
// is unknown.
func (e *Engine) DragonSnapshot(id int) (*DragonView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(id)
	if d == nil {
		return nil, ErrDragonNotFound
	}
	v := e.viewOf(d, e.now())
	return &v, nil
}

func (e *Engine) viewOf(d *domain.Dragon, now time.Time) DragonView {
	cp := *d
	cp.Stage = lifecycle.StageFor(d)
	cp.Tasks = append([]domain.Task{}, d.Tasks...)
	cp.History = append([]domain.HistoryEntry{}, d.History...)
	if d.NapStartedAt != nil {
		start := *d.NapStartedAt
		cp.NapStartedAt = &start
	}
	return DragonView{Dragon: cp, Mood: lifecycle.MoodFor(d, now)}
}

// SessionStatus describes the focus session state machine.
type SessionStatus struct {
	Phase            Phase  `json:"phase"`
	DragonID         int    `json:"dragonId,omitempty"`
	Intention        string `json:"intention,omitempty"`
	Minutes          int    `json:"minutes,omitempty"`
	RemainingSeconds int    `json:"remainingSeconds,omitempty"`
}

// SessionStatus returns the current focus session state.
func (e *Engine) SessionStatus() SessionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return SessionStatus{Phase: PhaseIdle}
	}
	return SessionStatus{
		Phase:            e.session.phase,
		DragonID:         e.session.dragonID,
		Intention:        e.session.intention,
		Minutes:          e.session.minutes,
		RemainingSeconds: e.session.remainingSeconds,
	}
}

// EvolutionStatus describes the evolution ritual state machine.
type EvolutionStatus struct {
	Phase    EvoPhase     `json:"phase"`
	DragonID int          `json:"dragonId,omitempty"`
	NewStage domain.Stage `json:"newStage,omitempty"`
	Portrait string       `json:"portrait,omitempty"`
	Video    string       `json:"video,omitempty"`
}

// EvolutionStatus returns the current evolution ritual state.
func (e *Engine) EvolutionStatus() EvolutionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := EvolutionStatus{Phase: e.evo.phase}
	if e.evo.pending != nil {
		st.DragonID = e.evo.pending.dragonID
		st.NewStage = e.evo.pending.toStage
	}
	st.Portrait = e.evo.portrait
	st.Video = e.evo.video
	return st
}
