package store

import (
	"context"
	"errors"

	"github.com/kilianp07/studyplan/core/model"
)

var (
	// ErrNotFound is returned when a record does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrStorageUnavailable wraps failures of the underlying backend.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Store persists the entities planning works on. Every method is scoped to
// a user; implementations must be safe for concurrent use.
type Store interface {
	// SaveTask inserts or replaces the task with the same ID.
	SaveTask(ctx context.Context, t model.Task) error
	Tasks(ctx context.Context, userID string) ([]model.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error

	// SaveEvents inserts or replaces events by ID.
	SaveEvents(ctx context.Context, userID string, events []model.Event) error
	// Events returns the user's events sorted by start.
	Events(ctx context.Context, userID string) ([]model.Event, error)

	SavePlan(ctx context.Context, p model.Plan) error
	// LatestPlan returns the most recently created plan.
	LatestPlan(ctx context.Context, userID string) (model.Plan, error)

	SaveSession(ctx context.Context, s model.Session) error
	// UpdateSession replaces an existing session matched by ID.
	UpdateSession(ctx context.Context, s model.Session) error
	Sessions(ctx context.Context, userID string) ([]model.Session, error)

	// Users lists every user owning at least one task.
	Users(ctx context.Context) ([]string, error)
	Close() error
}
