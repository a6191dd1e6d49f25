// Package sync mirrors optimistic local mutations to the remote backend and
// rolls them back when the mirror is rejected.
package sync

import (
	"context"
	"log/slog"
	"time"

	"echoday/internal/model"
	"echoday/internal/recurrence"
	"echoday/internal/remote"
	"echoday/internal/store"
	"echoday/internal/taskerr"
)

// defaultRecencyWindow bounds the "new item" push path: only tasks created
// this recently go through UpsertTasks, so stale edits are never re-pushed
// through the creation call.
const defaultRecencyWindow = 5 * time.Second

// Notifier raises the one dismissible notice a rolled-back sync produces.
type Notifier interface {
	NotifyText(message string)
}

// Config holds the collaborators of a Reconciler.
type Config struct {
	Store         store.TaskStore
	Backend       remote.Backend
	Notifier      Notifier
	UserID        string
	Logger        *slog.Logger
	RecencyWindow time.Duration
	Now           func() time.Time
}

// Reconciler applies local-first mutations with remote mirroring. Callers
// must serialize calls with the other writers over the task collection; the
// reconciler itself takes no locks.
type Reconciler struct {
	store    store.TaskStore
	backend  remote.Backend
	notifier Notifier
	userID   string
	logger   *slog.Logger
	window   time.Duration
	now      func() time.Time
}

func New(cfg Config) *Reconciler {
	r := &Reconciler{
		store:    cfg.Store,
		backend:  cfg.Backend,
		notifier: cfg.Notifier,
		userID:   cfg.UserID,
		logger:   cfg.Logger,
		window:   cfg.RecencyWindow,
		now:      cfg.Now,
	}
	if r.window <= 0 {
		r.window = defaultRecencyWindow
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Toggle flips a task's completed flag locally, spawning the recurrence
// successor on a false→true transition, then mirrors both to the remote. On
// rejection the collection is restored to its pre-mutation snapshot.
func (r *Reconciler) Toggle(ctx context.Context, taskID string) (model.Task, error) {
	pre, err := r.store.GetTasks(ctx, r.userID)
	if err != nil {
		return model.Task{}, err
	}

	idx := indexOf(pre, taskID)
	if idx < 0 {
		return model.Task{}, taskerr.TaskNotFoundError{ID: taskID}
	}

	next := model.CloneTasks(pre)
	next[idx].Completed = !next[idx].Completed
	toggled := next[idx].Clone()

	var successor *model.Task
	if toggled.Completed && toggled.Recurrence != nil {
		if succ, ok := recurrence.NextOccurrence(toggled, r.now()); ok {
			successor = &succ
			next = append(next, succ)
		}
	}

	if err := r.store.SetTasks(ctx, r.userID, next); err != nil {
		return model.Task{}, err
	}

	completed := toggled.Completed
	mirrorErr := r.backend.UpdateTask(ctx, r.userID, taskID, remote.TaskPatch{Completed: &completed})
	if mirrorErr == nil && successor != nil {
		mirrorErr = r.backend.UpsertTasks(ctx, r.userID, []model.Task{*successor})
	}
	if mirrorErr != nil {
		if rbErr := r.store.SetTasks(ctx, r.userID, pre); rbErr != nil {
			r.logger.Error("rollback failed", "task", taskID, "error", rbErr)
		}
		r.notifier.NotifyText("Could not sync the task update; the change was undone.")
		return model.Task{}, taskerr.RemoteSyncError{Op: "toggle", Err: mirrorErr}
	}

	return toggled, nil
}

// Delete soft-deletes a task locally and mirrors the delete. Only a remote
// acknowledgement erases the task physically; on failure the soft-delete
// flag reverts so nothing is lost.
func (r *Reconciler) Delete(ctx context.Context, taskID string) error {
	pre, err := r.store.GetTasks(ctx, r.userID)
	if err != nil {
		return err
	}

	idx := indexOf(pre, taskID)
	if idx < 0 {
		return taskerr.TaskNotFoundError{ID: taskID}
	}

	next := model.CloneTasks(pre)
	next[idx].IsDeleted = true
	if err := r.store.SetTasks(ctx, r.userID, next); err != nil {
		return err
	}

	if err := r.backend.DeleteTasks(ctx, r.userID, []string{taskID}); err != nil {
		if rbErr := r.store.SetTasks(ctx, r.userID, pre); rbErr != nil {
			r.logger.Error("rollback failed", "task", taskID, "error", rbErr)
		}
		r.notifier.NotifyText("Could not delete the task remotely; it was restored.")
		return taskerr.RemoteSyncError{Op: "delete", Err: err}
	}

	remaining := append(next[:idx:idx], next[idx+1:]...)
	return r.store.SetTasks(ctx, r.userID, remaining)
}

// PushNew mirrors tasks created within the recency window through the
// "new item" path. The local collection is already authoritative, so there
// is nothing to roll back on failure; the push retries on the next natural
// trigger.
func (r *Reconciler) PushNew(ctx context.Context) error {
	tasks, err := r.store.GetTasks(ctx, r.userID)
	if err != nil {
		return err
	}

	cutoff := r.now().Add(-r.window)
	var fresh []model.Task
	for _, t := range tasks {
		if !t.IsDeleted && !t.CreatedAt.Before(cutoff) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := r.backend.UpsertTasks(ctx, r.userID, fresh); err != nil {
		return taskerr.RemoteSyncError{Op: "push", Err: err}
	}
	return nil
}

// PullMerge fetches the remote snapshot and appends items whose id is absent
// locally. Ids present in both collections are never overwritten: local is
// authoritative for conflicts, so concurrent local edits survive at the cost
// of another device's edits to an existing id staying invisible.
func (r *Reconciler) PullMerge(ctx context.Context) error {
	snap, err := r.backend.FetchAll(ctx, r.userID)
	if err != nil {
		return taskerr.RemoteSyncError{Op: "pull", Err: err}
	}

	tasks, err := r.store.GetTasks(ctx, r.userID)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	merged := model.CloneTasks(tasks)
	added := 0
	for _, t := range snap.Tasks {
		if !known[t.ID] {
			merged = append(merged, t)
			added++
		}
	}
	if added > 0 {
		if err := r.store.SetTasks(ctx, r.userID, merged); err != nil {
			return err
		}
	}

	notes, err := r.store.GetNotes(ctx, r.userID)
	if err != nil {
		return err
	}
	knownNotes := make(map[string]bool, len(notes))
	for _, n := range notes {
		knownNotes[n.ID] = true
	}
	mergedNotes := notes
	addedNotes := 0
	for _, n := range snap.Notes {
		if !knownNotes[n.ID] {
			mergedNotes = append(mergedNotes, n)
			addedNotes++
		}
	}
	if addedNotes > 0 {
		if err := r.store.SetNotes(ctx, r.userID, mergedNotes); err != nil {
			return err
		}
	}

	r.logger.Debug("pull merged", "tasksAdded", added, "notesAdded", addedNotes)
	return nil
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
