// Package remote talks to the cloud backend mirroring the local collections.
// Every operation is idempotent by id, so a retry after an ambiguous failure
// is always safe.
package remote

import (
	"context"
	"time"

	"echoday/internal/model"
)

// TaskPatch is a partial update applied to one remote task. Nil fields are
// left untouched.
type TaskPatch struct {
	Text      *string    `json:"text,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
	IsDeleted *bool      `json:"isDeleted,omitempty"`
	Datetime  *time.Time `json:"datetime,omitempty"`
}

// Snapshot is the full remote state for one user.
type Snapshot struct {
	Tasks []model.Task `json:"tasks"`
	Notes []model.Note `json:"notes"`
}

// Backend is the remote mirror. All calls may fail; callers own rollback.
type Backend interface {
	UpsertTasks(ctx context.Context, userID string, tasks []model.Task) error
	UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) error
	DeleteTasks(ctx context.Context, userID string, taskIDs []string) error
	FetchAll(ctx context.Context, userID string) (Snapshot, error)
}
