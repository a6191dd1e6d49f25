package rollover

import (
	"context"
	"errors"
	"testing"
	"time"

	"echoday/internal/model"
	"echoday/internal/store"
	"echoday/internal/taskerr"
)

const testUser = "user-1"

type fakeArchiver struct {
	calls int
	tasks []model.Task
	notes []model.Note
	err   error
}

func (a *fakeArchiver) ArchiveItems(_ context.Context, tasks []model.Task, notes []model.Note, _ string) error {
	a.calls++
	if a.err != nil {
		return a.err
	}
	a.tasks = append(a.tasks, tasks...)
	a.notes = append(a.notes, notes...)
	return nil
}

type fakeNotifier struct {
	notices []string
}

func (n *fakeNotifier) NotifyText(msg string) { n.notices = append(n.notices, msg) }

func dt(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func newScheduler(st store.TaskStore, arch *fakeArchiver, now time.Time) (*Scheduler, *fakeNotifier) {
	notifier := &fakeNotifier{}
	s := New(Config{
		Store:    st,
		Archiver: arch,
		Notifier: notifier,
		UserID:   testUser,
		Now:      func() time.Time { return now },
	})
	return s, notifier
}

func seed(t *testing.T, st store.TaskStore, tasks []model.Task, notes []model.Note) {
	t.Helper()
	if err := st.SetTasks(context.Background(), testUser, tasks); err != nil {
		t.Fatalf("seed tasks: %v", err)
	}
	if err := st.SetNotes(context.Background(), testUser, notes); err != nil {
		t.Fatalf("seed notes: %v", err)
	}
}

func task(id string, completed bool, datetime *time.Time) model.Task {
	return model.Task{
		ID:        id,
		Text:      id,
		Priority:  model.PriorityMedium,
		Completed: completed,
		Datetime:  datetime,
		CreatedAt: dt(2025, time.March, 1, 8, 0),
	}
}

func TestRolloverArchivesAndCarriesForward(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.March, 10, 0, 0)

	yesterday := dt(2025, time.March, 9, 14, 0)
	lastWeek := dt(2025, time.March, 3, 14, 0)
	today := dt(2025, time.March, 10, 9, 0)

	deleted := task("deleted", true, nil)
	deleted.IsDeleted = true

	seed(t, st, []model.Task{
		task("done", true, &yesterday),
		task("due-yesterday", false, &yesterday),
		task("due-last-week", false, &lastWeek),
		task("due-today", false, &today),
		task("unscheduled", false, nil),
		deleted,
	}, []model.Note{
		{ID: "n1", Text: "plain note", CreatedAt: now},
		{ID: "n2", Text: "pinned", Pinned: true, CreatedAt: now},
		{ID: "n3", Text: "favorite", Favorite: true, CreatedAt: now},
	})

	arch := &fakeArchiver{}
	s, _ := newScheduler(st, arch, now)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(arch.tasks) != 1 || arch.tasks[0].ID != "done" {
		t.Errorf("archived tasks = %+v, want [done]", arch.tasks)
	}
	if len(arch.notes) != 1 || arch.notes[0].ID != "n1" {
		t.Errorf("archived notes = %+v, want [n1]", arch.notes)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	byID := make(map[string]model.Task)
	for _, tk := range tasks {
		byID[tk.ID] = tk
	}

	if _, ok := byID["done"]; ok {
		t.Error("archived task still in the live collection")
	}
	if _, ok := byID["deleted"]; !ok {
		t.Error("soft-deleted task erased before remote acknowledgement")
	}

	carried := byID["due-yesterday"]
	wantShift := dt(2025, time.March, 10, 14, 0)
	if carried.Datetime == nil || !carried.Datetime.Equal(wantShift) {
		t.Errorf("carried datetime = %v, want %v", carried.Datetime, wantShift)
	}
	if got := byID["due-last-week"].Datetime; !got.Equal(lastWeek) {
		t.Errorf("older task shifted: %v", got)
	}
	if got := byID["due-today"].Datetime; !got.Equal(today) {
		t.Errorf("today's task shifted: %v", got)
	}

	notes, _ := st.GetNotes(context.Background(), testUser)
	if len(notes) != 2 {
		t.Errorf("kept notes = %d, want 2 (pinned + favorite)", len(notes))
	}

	date, _ := st.LastArchiveDate(context.Background(), testUser)
	if date != "2025-03-10" {
		t.Errorf("lastArchiveDate = %q, want 2025-03-10", date)
	}
}

func TestRolloverIsOncePerDay(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.March, 10, 0, 5)
	done := dt(2025, time.March, 9, 10, 0)
	seed(t, st, []model.Task{task("done", true, &done)}, nil)

	arch := &fakeArchiver{}
	s, _ := newScheduler(st, arch, now)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if arch.calls != 1 {
		t.Errorf("archive calls = %d, want 1 (guarded by lastArchiveDate)", arch.calls)
	}
}

func TestRolloverFailureLeavesStateUntouched(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.March, 10, 0, 0)
	done := dt(2025, time.March, 9, 10, 0)
	yesterday := dt(2025, time.March, 9, 14, 0)
	seed(t, st, []model.Task{
		task("done", true, &done),
		task("pending", false, &yesterday),
	}, []model.Note{{ID: "n1", Text: "note", CreatedAt: now}})

	arch := &fakeArchiver{err: errors.New("backend down")}
	s, notifier := newScheduler(st, arch, now)

	err := s.RunOnce(context.Background())
	var commitErr taskerr.ArchiveCommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("err = %v, want ArchiveCommitError", err)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if len(tasks) != 2 {
		t.Errorf("task collection changed on failed commit: %d tasks", len(tasks))
	}
	for _, tk := range tasks {
		if tk.ID == "pending" && !tk.Datetime.Equal(yesterday) {
			t.Error("carry-forward applied despite failed commit")
		}
	}
	notes, _ := st.GetNotes(context.Background(), testUser)
	if len(notes) != 1 {
		t.Errorf("notes changed on failed commit: %d", len(notes))
	}
	date, _ := st.LastArchiveDate(context.Background(), testUser)
	if date != "" {
		t.Errorf("lastArchiveDate advanced on failed commit: %q", date)
	}
	if len(notifier.notices) != 1 {
		t.Errorf("notices = %d, want 1 dismissible failure notice", len(notifier.notices))
	}

	// The next natural trigger retries the whole rollover.
	arch.err = nil
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(arch.tasks) != 1 {
		t.Errorf("retried archive tasks = %d, want 1", len(arch.tasks))
	}
}

func TestRolloverWithNothingToArchiveStillAdvancesGuard(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.March, 10, 0, 0)
	today := dt(2025, time.March, 10, 9, 0)
	seed(t, st, []model.Task{task("open", false, &today)}, nil)

	arch := &fakeArchiver{}
	s, _ := newScheduler(st, arch, now)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if arch.calls != 0 {
		t.Errorf("archive called with nothing to commit: %d", arch.calls)
	}
	date, _ := st.LastArchiveDate(context.Background(), testUser)
	if date != "2025-03-10" {
		t.Errorf("lastArchiveDate = %q, want 2025-03-10", date)
	}
}

func TestNextMidnightFloor(t *testing.T) {
	now := dt(2025, time.March, 10, 23, 59)
	next := nextMidnight(now)
	want := dt(2025, time.March, 11, 0, 0)
	if !next.Equal(want) {
		t.Errorf("nextMidnight = %v, want %v", next, want)
	}
}
