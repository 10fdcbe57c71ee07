package session

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/dragonhaven/server/internal/domain"
	"github.com/dragonhaven/server/internal/lifecycle"
	"github.com/google/uuid"
)

// ToggleNap flips a dragon between active and dormant.
func (e *Engine) ToggleNap(ctx context.Context, dragonID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}

	lifecycle.ToggleNap(d, e.now())
	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	e.logger.Info("nap toggled", "dragon_id", d.ID, "napping", d.IsNapping)
	return nil
}

// Unlock spends points on a fresh egg. The new dragon gets the next unused
// id, a name from the pool, a random element, and time-mode defaults.
func (e *Engine) Unlock(ctx context.Context) (*DragonView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.UserPoints < e.cfg.UnlockCost {
		return nil, ErrInsufficientPoints
	}
	e.state.UserPoints -= e.cfg.UnlockCost

	now := e.now()
	id := e.state.NextDragonID()
	d := domain.Dragon{
		ID:        id,
		Name:      domain.UnlockNames[len(e.state.Dragons)%len(domain.UnlockNames)],
		Subtitle:  "New Quest",
		Element:   domain.Elements[rand.IntN(len(domain.Elements))],
		Stage:     domain.StageEgg,
		LastFed:   now,
		Evolution: domain.DefaultEvolution(false),
		Tasks:     []domain.Task{},
		History:   []domain.HistoryEntry{},
	}
	e.state.Dragons = append(e.state.Dragons, d)

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: id})
	e.logger.Info("dragon unlocked", "dragon_id", id, "name", d.Name, "cost", e.cfg.UnlockCost)

	v := e.viewOf(e.state.FindDragon(id), now)
	return &v, nil
}

// InfoUpdate carries edits to a dragon's descriptive fields. Empty strings
// and nil pointers keep the previous values.
type InfoUpdate struct {
	Name      string
	Subtitle  string
	IsHabit   *bool
	Evolution *domain.EvolutionConfig
}

// UpdateInfo edits a dragon's name, subtitle, habit flag, or evolution
// config.
func (e *Engine) UpdateInfo(ctx context.Context, dragonID int, upd InfoUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}

	if upd.Name != "" {
		d.Name = upd.Name
	}
	if upd.Subtitle != "" {
		d.Subtitle = upd.Subtitle
	}
	if upd.IsHabit != nil {
		d.IsHabit = *upd.IsHabit
	}
	if upd.Evolution != nil {
		d.Evolution = *upd.Evolution
	}

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return nil
}

// AddTask appends a milestone to a dragon's list.
func (e *Engine) AddTask(ctx context.Context, dragonID int, title string) (*domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return nil, ErrDragonNotFound
	}

	t := domain.Task{ID: uuid.NewString(), Title: title, CreatedAt: e.now()}
	d.Tasks = append(d.Tasks, t)

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return &t, nil
}

// SetTaskTitle renames a milestone.
func (e *Engine) SetTaskTitle(ctx context.Context, dragonID int, taskID, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	i := d.FindTask(taskID)
	if i < 0 {
		return ErrTaskNotFound
	}

	d.Tasks[i].Title = title
	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return nil
}

// ToggleTask flips a milestone's completion. Completing one chronicles a
// milestone entry; un-completing leaves the chronicle alone.
func (e *Engine) ToggleTask(ctx context.Context, dragonID int, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	i := d.FindTask(taskID)
	if i < 0 {
		return ErrTaskNotFound
	}

	d.Tasks[i].Completed = !d.Tasks[i].Completed
	if d.Tasks[i].Completed {
		d.History = append(d.History, domain.HistoryEntry{
			ID:        uuid.NewString(),
			Timestamp: e.now(),
			Type:      domain.HistoryMilestoneComplete,
			Content:   fmt.Sprintf("Milestone complete: %s", d.Tasks[i].Title),
			Role:      domain.RoleSystem,
		})
	}

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return nil
}

// MoveTask swaps a milestone with its neighbor. delta must be -1 or +1;
// moves past either end are no-ops.
func (e *Engine) MoveTask(ctx context.Context, dragonID int, taskID string, delta int) error {
	if delta != -1 && delta != 1 {
		return ErrInvalidOrder
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	i := d.FindTask(taskID)
	if i < 0 {
		return ErrTaskNotFound
	}

	j := i + delta
	if j < 0 || j >= len(d.Tasks) {
		return nil
	}
	d.Tasks[i], d.Tasks[j] = d.Tasks[j], d.Tasks[i]

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return nil
}

// ReorderTasks replaces the milestone order. orderedIDs must be a
// permutation of the existing task ids.
func (e *Engine) ReorderTasks(ctx context.Context, dragonID int, orderedIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	if len(orderedIDs) != len(d.Tasks) {
		return ErrInvalidOrder
	}

	reordered := make([]domain.Task, 0, len(d.Tasks))
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		i := d.FindTask(id)
		if i < 0 || seen[id] {
			return ErrInvalidOrder
		}
		seen[id] = true
		reordered = append(reordered, d.Tasks[i])
	}
	d.Tasks = reordered

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return nil
}

// RemoveTask deletes a milestone.
func (e *Engine) RemoveTask(ctx context.Context, dragonID int, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	i := d.FindTask(taskID)
	if i < 0 {
		return ErrTaskNotFound
	}

	d.Tasks = append(d.Tasks[:i], d.Tasks[i+1:]...)
	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return nil
}

// AddChat appends a user chat message to the chronicle.
func (e *Engine) AddChat(ctx context.Context, dragonID int, content string) (*domain.HistoryEntry, error) {
	return e.AddHistory(ctx, dragonID, domain.HistoryChat, domain.RoleUser, content)
}

// AddHistory appends a chronicle entry. The engine accepts entries on behalf
// of any author role so that external collaborators can record insights.
func (e *Engine) AddHistory(ctx context.Context, dragonID int, entryType domain.HistoryType, role domain.HistoryRole, content string) (*domain.HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return nil, ErrDragonNotFound
	}

	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Type:      entryType,
		Content:   content,
		Role:      role,
	}
	d.History = append(d.History, entry)

	e.persist(ctx)
	e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
	return &entry, nil
}

// DeleteHistoryEntry removes one chronicle entry. Destructive, so it demands
// confirm.
func (e *Engine) DeleteHistoryEntry(ctx context.Context, dragonID int, entryID string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}
	for i := range d.History {
		if d.History[i].ID == entryID {
			d.History = append(d.History[:i], d.History[i+1:]...)
			e.persist(ctx)
			e.publish(Event{Type: EventStateChanged, DragonID: d.ID})
			return nil
		}
	}
	return ErrHistoryEntryNotFound
}
