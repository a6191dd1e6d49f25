// Package rollover runs the once-daily batch that archives completed work
// and carries unfinished scheduled items forward to today.
package rollover

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"echoday/internal/model"
	"echoday/internal/store"
	"echoday/internal/taskerr"
)

const dateLayout = "2006-01-02"

// Archiver commits one day's archive batch. It is all-or-nothing from the
// scheduler's perspective.
type Archiver interface {
	ArchiveItems(ctx context.Context, tasks []model.Task, notes []model.Note, userID string) error
}

// Notifier is the slice of the dispatcher the scheduler needs for failure
// notices.
type Notifier interface {
	NotifyText(message string)
}

// Config holds the collaborators of a Scheduler.
type Config struct {
	Store    store.TaskStore
	Archiver Archiver
	Notifier Notifier
	UserID   string
	Logger   *slog.Logger

	// Gate serializes the collection swap against the other writers over the
	// shared task collection. Usually the engine's mutex.
	Gate sync.Locker

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Scheduler applies the daily rollover, at most once per local calendar day,
// gated by the persisted last-archive date.
type Scheduler struct {
	store    store.TaskStore
	archiver Archiver
	notifier Notifier
	userID   string
	logger   *slog.Logger
	gate     sync.Locker
	now      func() time.Time

	mu    sync.Mutex
	timer *time.Timer
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

func New(cfg Config) *Scheduler {
	s := &Scheduler{
		store:    cfg.Store,
		archiver: cfg.Archiver,
		notifier: cfg.Notifier,
		userID:   cfg.UserID,
		logger:   cfg.Logger,
		gate:     cfg.Gate,
		now:      cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.gate == nil {
		s.gate = noopLocker{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start runs the rollover once immediately (the app-reopen trigger), then
// arms a one-shot timer for the next local midnight. After each fire the
// timer re-arms itself for the following midnight.
func (s *Scheduler) Start(ctx context.Context) {
	s.runQuietly(ctx)
	s.armNext(ctx)
}

// Stop halts the midnight timer. An in-flight run finishes on its own; its
// successors are never scheduled once the context is done.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) armNext(ctx context.Context) {
	now := s.now()
	next := nextMidnight(now)
	d := next.Sub(now)
	// Floor at one second so a fire just past the boundary cannot spin.
	if d < time.Second {
		d = time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	s.timer = time.AfterFunc(d, func() {
		if ctx.Err() != nil {
			return
		}
		s.runQuietly(ctx)
		s.armNext(ctx)
	})
}

func (s *Scheduler) runQuietly(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		// Guard state is untouched; the whole run retries next trigger.
		s.logger.Error("rollover failed", "error", err)
	}
}

// RunOnce applies one rollover attempt. If the archive commit fails, the
// local collections and the last-archive date are left unchanged and an
// ArchiveCommitError is returned; no partial archiving is ever applied.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	now := s.now()
	today := now.Format(dateLayout)

	last, err := s.store.LastArchiveDate(ctx, s.userID)
	if err != nil {
		return err
	}
	if last == today {
		return nil
	}

	tasks, err := s.store.GetTasks(ctx, s.userID)
	if err != nil {
		return err
	}
	notes, err := s.store.GetNotes(ctx, s.userID)
	if err != nil {
		return err
	}

	todayStart := startOfDay(now)
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	var completedToArchive []model.Task
	var kept []model.Task
	for _, t := range tasks {
		if t.Completed && !t.IsDeleted {
			completedToArchive = append(completedToArchive, t)
			continue
		}
		// Soft-deleted tasks stay until the remote delete is acknowledged.
		if !t.Completed && !t.IsDeleted && dueYesterday(t, yesterdayStart, todayStart) {
			carried := t.Clone()
			shifted := carried.Datetime.AddDate(0, 0, 1)
			carried.Datetime = &shifted
			kept = append(kept, carried)
			continue
		}
		kept = append(kept, t)
	}

	var notesToArchive []model.Note
	var keptNotes []model.Note
	for _, n := range notes {
		if !n.Pinned && !n.Favorite && !n.IsDeleted {
			notesToArchive = append(notesToArchive, n)
			continue
		}
		keptNotes = append(keptNotes, n)
	}

	if len(completedToArchive) > 0 || len(notesToArchive) > 0 {
		if err := s.archiver.ArchiveItems(ctx, completedToArchive, notesToArchive, s.userID); err != nil {
			s.notifier.NotifyText("Daily archive failed; it will retry at the next rollover.")
			return taskerr.ArchiveCommitError{Err: err}
		}
	}

	if err := s.store.SetTasks(ctx, s.userID, kept); err != nil {
		return err
	}
	if err := s.store.SetNotes(ctx, s.userID, keptNotes); err != nil {
		return err
	}
	if err := s.store.SetLastArchiveDate(ctx, s.userID, today); err != nil {
		return err
	}

	s.logger.Info("rollover applied",
		"archivedTasks", len(completedToArchive),
		"archivedNotes", len(notesToArchive),
		"carried", countCarried(tasks, yesterdayStart, todayStart),
	)
	return nil
}

func dueYesterday(t model.Task, yesterdayStart, todayStart time.Time) bool {
	if t.Datetime == nil {
		return false
	}
	return !t.Datetime.Before(yesterdayStart) && t.Datetime.Before(todayStart)
}

func countCarried(tasks []model.Task, yesterdayStart, todayStart time.Time) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed && !t.IsDeleted && dueYesterday(t, yesterdayStart, todayStart) {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func nextMidnight(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}
