// Package store persists the application state document.
package store

import (
	"context"

	"github.com/dragonhaven/server/internal/domain"
)

// Repository persists the single application-state aggregate.
type Repository interface {
	// Load returns the persisted state. Missing or unreadable data falls
	// back to the seed state; Load never fails.
	Load(ctx context.Context) *domain.AppState

	// Save writes the full state document. Best-effort: callers log and
	// swallow the returned error, the running session is unaffected.
	Save(ctx context.Context, state *domain.AppState) error

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying storage handle.
	Close() error
}
