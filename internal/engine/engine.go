// Package engine is the single writer over the task collection. It runs the
// periodic reminder tick, keeps the per-firing-cycle de-dup set, and routes
// user mutations through validation and the sync reconciler.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"echoday/internal/model"
	"echoday/internal/notify"
	"echoday/internal/reminder"
	"echoday/internal/store"
	tasksync "echoday/internal/sync"
)

// Config holds the collaborators of an Engine.
type Config struct {
	Store      store.TaskStore
	Reconciler *tasksync.Reconciler
	Dispatcher notify.Dispatcher
	UserID     string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Engine serializes every snapshot-read/replace-write cycle over the shared
// collection behind one mutex, so interleaved timers cannot lose each
// other's updates.
type Engine struct {
	mu         sync.Mutex
	store      store.TaskStore
	reconciler *tasksync.Reconciler
	dispatcher notify.Dispatcher
	userID     string
	logger     *slog.Logger
	now        func() time.Time

	// seen de-duplicates notifications per (taskID, reminderID) while a
	// reminder awaits acknowledgement. Snoozing clears the entry so the
	// reminder can fire again.
	seen map[string]bool
}

func New(cfg Config) *Engine {
	e := &Engine{
		store:      cfg.Store,
		reconciler: cfg.Reconciler,
		dispatcher: cfg.Dispatcher,
		userID:     cfg.UserID,
		logger:     cfg.Logger,
		now:        cfg.Now,
		seen:       make(map[string]bool),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Locker exposes the engine's writer lock so the rollover scheduler can
// serialize its collection swap against reminder ticks.
func (e *Engine) Locker() sync.Locker { return &e.mu }

func dedupKey(taskID, reminderID string) string { return taskID + "/" + reminderID }

// Tick runs one reminder scan and dispatches anything newly due.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.GetTasks(ctx, e.userID)
	if err != nil {
		e.logger.Error("reminder tick", "error", err)
		return
	}

	for _, due := range reminder.CheckReminders(tasks, e.now()) {
		key := dedupKey(due.TaskID, due.ReminderID)
		if e.seen[key] {
			continue
		}
		e.seen[key] = true
		e.dispatcher.Notify(due)
	}
}

// Acknowledge marks a reminder triggered for good.
func (e *Engine) Acknowledge(ctx context.Context, taskID, reminderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.GetTasks(ctx, e.userID)
	if err != nil {
		return err
	}
	updated, err := reminder.MarkTriggered(tasks, taskID, reminderID)
	if err != nil {
		return err
	}
	return e.store.SetTasks(ctx, e.userID, updated)
}

// Snooze defers a reminder by the given minutes and clears its de-dup
// record so it fires again once the snooze elapses.
func (e *Engine) Snooze(ctx context.Context, taskID, reminderID string, minutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.GetTasks(ctx, e.userID)
	if err != nil {
		return err
	}
	updated, err := reminder.Snooze(tasks, taskID, reminderID, minutes, e.now())
	if err != nil {
		return err
	}
	if err := e.store.SetTasks(ctx, e.userID, updated); err != nil {
		return err
	}
	delete(e.seen, dedupKey(taskID, reminderID))
	return nil
}

// OnLocationReminderFired is the geofence collaborator's callback. It stamps
// the task's location reminder and dispatches the notification; the
// configured Reminders list is not touched.
func (e *Engine) OnLocationReminderFired(ctx context.Context, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks, err := e.store.GetTasks(ctx, e.userID)
	if err != nil {
		return err
	}
	updated, err := reminder.RecordLocationFired(tasks, taskID, e.now())
	if err != nil {
		return err
	}
	if err := e.store.SetTasks(ctx, e.userID, updated); err != nil {
		return err
	}

	for _, t := range updated {
		if t.ID == taskID {
			e.dispatcher.Notify(model.ActiveReminder{
				TaskID:     taskID,
				ReminderID: taskID + "_location",
				Message:    fmt.Sprintf("You are near: %s", t.Text),
				Priority:   t.Priority,
				CreatedAt:  e.now(),
			})
			break
		}
	}
	return nil
}

// AddTask validates and appends a task, then pushes it through the new-item
// sync path. A failed push leaves the local task in place; it is mirrored
// again on the next natural trigger.
func (e *Engine) AddTask(ctx context.Context, task model.Task) (model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = e.now()
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}

	tasks, err := e.store.GetTasks(ctx, e.userID)
	if err != nil {
		return model.Task{}, err
	}
	if err := e.store.SetTasks(ctx, e.userID, append(tasks, task)); err != nil {
		return model.Task{}, err
	}

	if err := e.reconciler.PushNew(ctx); err != nil {
		e.logger.Warn("new task push failed", "task", task.ID, "error", err)
	}
	return task, nil
}

// Toggle flips completion with remote mirroring and rollback.
func (e *Engine) Toggle(ctx context.Context, taskID string) (model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconciler.Toggle(ctx, taskID)
}

// Delete soft-deletes with remote mirroring and rollback.
func (e *Engine) Delete(ctx context.Context, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconciler.Delete(ctx, taskID)
}

// Pull merges the remote snapshot into the local collections.
func (e *Engine) Pull(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconciler.PullMerge(ctx)
}
