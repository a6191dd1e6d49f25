// Package store persists the task and note collections. The engine only ever
// reads or replaces a user's collection wholesale, so the interface is
// deliberately get-all/set-all with no partial-patch surface.
package store

import (
	"context"

	"echoday/internal/model"
)

// TaskStore is the local persistence boundary, keyed by user id.
type TaskStore interface {
	GetTasks(ctx context.Context, userID string) ([]model.Task, error)
	SetTasks(ctx context.Context, userID string, tasks []model.Task) error
	GetNotes(ctx context.Context, userID string) ([]model.Note, error)
	SetNotes(ctx context.Context, userID string, notes []model.Note) error

	// LastArchiveDate returns the YYYY-MM-DD local date of the last applied
	// rollover, or "" if none ever ran.
	LastArchiveDate(ctx context.Context, userID string) (string, error)
	SetLastArchiveDate(ctx context.Context, userID, date string) error
}
