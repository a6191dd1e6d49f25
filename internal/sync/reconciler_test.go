package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"echoday/internal/model"
	"echoday/internal/remote"
	"echoday/internal/store"
	"echoday/internal/taskerr"
)

const testUser = "user-1"

type fakeBackend struct {
	upserted  [][]model.Task
	patched   map[string]remote.TaskPatch
	deleted   [][]string
	snapshot  remote.Snapshot
	updateErr error
	upsertErr error
	deleteErr error
	fetchErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{patched: make(map[string]remote.TaskPatch)}
}

func (b *fakeBackend) UpsertTasks(_ context.Context, _ string, tasks []model.Task) error {
	if b.upsertErr != nil {
		return b.upsertErr
	}
	b.upserted = append(b.upserted, tasks)
	return nil
}

func (b *fakeBackend) UpdateTask(_ context.Context, _ string, taskID string, patch remote.TaskPatch) error {
	if b.updateErr != nil {
		return b.updateErr
	}
	b.patched[taskID] = patch
	return nil
}

func (b *fakeBackend) DeleteTasks(_ context.Context, _ string, ids []string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, ids)
	return nil
}

func (b *fakeBackend) FetchAll(_ context.Context, _ string) (remote.Snapshot, error) {
	if b.fetchErr != nil {
		return remote.Snapshot{}, b.fetchErr
	}
	return b.snapshot, nil
}

type fakeNotifier struct {
	notices []string
}

func (n *fakeNotifier) NotifyText(msg string) { n.notices = append(n.notices, msg) }

func dt(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func newReconciler(st store.TaskStore, backend remote.Backend, now time.Time) (*Reconciler, *fakeNotifier) {
	notifier := &fakeNotifier{}
	r := New(Config{
		Store:    st,
		Backend:  backend,
		Notifier: notifier,
		UserID:   testUser,
		Now:      func() time.Time { return now },
	})
	return r, notifier
}

func seedTask(t *testing.T, st store.TaskStore, tasks ...model.Task) {
	t.Helper()
	if err := st.SetTasks(context.Background(), testUser, tasks); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func plainTask(id string, created time.Time) model.Task {
	return model.Task{
		ID:        id,
		Text:      id,
		Priority:  model.PriorityMedium,
		CreatedAt: created,
	}
}

func TestToggleMirrorsToRemote(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	seedTask(t, st, plainTask("a", now.Add(-time.Hour)))

	backend := newFakeBackend()
	r, _ := newReconciler(st, backend, now)

	toggled, err := r.Toggle(context.Background(), "a")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !toggled.Completed {
		t.Error("toggle did not flip completed")
	}

	patch, ok := backend.patched["a"]
	if !ok || patch.Completed == nil || !*patch.Completed {
		t.Errorf("remote patch = %+v, want completed=true", patch)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if !tasks[0].Completed {
		t.Error("local task not completed")
	}
}

func TestToggleRollbackOnRemoteRejection(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	seedTask(t, st, plainTask("a", now.Add(-time.Hour)))

	backend := newFakeBackend()
	backend.updateErr = errors.New("rejected")
	r, notifier := newReconciler(st, backend, now)

	_, err := r.Toggle(context.Background(), "a")
	var syncErr taskerr.RemoteSyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("err = %v, want RemoteSyncError", err)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if tasks[0].Completed {
		t.Error("local completed flag not rolled back to its pre-mutation value")
	}
	if len(notifier.notices) != 1 {
		t.Errorf("notices = %d, want 1", len(notifier.notices))
	}
}

func TestToggleSpawnsRecurrenceSuccessor(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	due := dt(2025, time.April, 1, 9, 0)

	recurring := plainTask("a", now.Add(-time.Hour))
	recurring.Datetime = &due
	recurring.Recurrence = &model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}
	seedTask(t, st, recurring)

	backend := newFakeBackend()
	r, _ := newReconciler(st, backend, now)

	if _, err := r.Toggle(context.Background(), "a"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want original + successor", len(tasks))
	}
	succ := tasks[1]
	if succ.ParentID != "a" {
		t.Errorf("successor parentId = %q, want a", succ.ParentID)
	}
	if succ.Recurrence.OccurrencesDone != 1 {
		t.Errorf("occurrencesDone = %d, want 1", succ.Recurrence.OccurrencesDone)
	}
	wantNext := dt(2025, time.April, 2, 9, 0)
	if !succ.Datetime.Equal(wantNext) {
		t.Errorf("successor datetime = %v, want %v", succ.Datetime, wantNext)
	}

	if len(backend.upserted) != 1 || len(backend.upserted[0]) != 1 {
		t.Fatalf("successor not pushed: %+v", backend.upserted)
	}

	// Completing it again must not increment the original's counter.
	if tasks[0].Recurrence.OccurrencesDone != 0 {
		t.Errorf("original occurrencesDone = %d, want 0", tasks[0].Recurrence.OccurrencesDone)
	}
}

func TestToggleRollbackRemovesSuccessor(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	due := dt(2025, time.April, 1, 9, 0)

	recurring := plainTask("a", now.Add(-time.Hour))
	recurring.Datetime = &due
	recurring.Recurrence = &model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}
	seedTask(t, st, recurring)

	backend := newFakeBackend()
	backend.upsertErr = errors.New("rejected")
	r, _ := newReconciler(st, backend, now)

	if _, err := r.Toggle(context.Background(), "a"); err == nil {
		t.Fatal("expected an error")
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if len(tasks) != 1 {
		t.Errorf("tasks = %d, want rollback to remove the successor", len(tasks))
	}
	if tasks[0].Completed {
		t.Error("completed flag not rolled back")
	}
}

func TestDeleteHardDeletesOnAck(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	seedTask(t, st, plainTask("a", now.Add(-time.Hour)), plainTask("b", now.Add(-time.Hour)))

	backend := newFakeBackend()
	r, _ := newReconciler(st, backend, now)

	if err := r.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Errorf("tasks after acked delete = %+v, want [b]", tasks)
	}
	if len(backend.deleted) != 1 {
		t.Errorf("remote deletes = %d, want 1", len(backend.deleted))
	}
}

func TestDeleteRevertsOnRemoteFailure(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	seedTask(t, st, plainTask("a", now.Add(-time.Hour)))

	backend := newFakeBackend()
	backend.deleteErr = errors.New("rejected")
	r, notifier := newReconciler(st, backend, now)

	err := r.Delete(context.Background(), "a")
	var syncErr taskerr.RemoteSyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("err = %v, want RemoteSyncError", err)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if len(tasks) != 1 || tasks[0].IsDeleted {
		t.Errorf("task not restored after failed remote delete: %+v", tasks)
	}
	if len(notifier.notices) != 1 {
		t.Errorf("notices = %d, want 1", len(notifier.notices))
	}
}

func TestPushNewHonorsRecencyWindow(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	seedTask(t, st,
		plainTask("fresh", now.Add(-2*time.Second)),
		plainTask("stale", now.Add(-time.Minute)),
	)

	backend := newFakeBackend()
	r, _ := newReconciler(st, backend, now)

	if err := r.PushNew(context.Background()); err != nil {
		t.Fatalf("PushNew: %v", err)
	}

	if len(backend.upserted) != 1 {
		t.Fatalf("upsert batches = %d, want 1", len(backend.upserted))
	}
	batch := backend.upserted[0]
	if len(batch) != 1 || batch[0].ID != "fresh" {
		t.Errorf("pushed = %+v, want only the fresh task", batch)
	}
}

func TestPullMergeLocalWins(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)

	local := plainTask("shared", now.Add(-time.Hour))
	local.Text = "local edit"
	seedTask(t, st, local)

	remoteShared := plainTask("shared", now.Add(-2*time.Hour))
	remoteShared.Text = "remote edit"
	backend := newFakeBackend()
	backend.snapshot = remote.Snapshot{
		Tasks: []model.Task{remoteShared, plainTask("new", now.Add(-time.Hour))},
		Notes: []model.Note{{ID: "note-1", Text: "from remote", CreatedAt: now}},
	}

	r, _ := newReconciler(st, backend, now)
	if err := r.PullMerge(context.Background()); err != nil {
		t.Fatalf("PullMerge: %v", err)
	}

	tasks, _ := st.GetTasks(context.Background(), testUser)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want shared + new", len(tasks))
	}
	for _, tk := range tasks {
		if tk.ID == "shared" && tk.Text != "local edit" {
			t.Errorf("conflicting id overwritten: %q", tk.Text)
		}
	}

	notes, _ := st.GetNotes(context.Background(), testUser)
	if len(notes) != 1 || notes[0].ID != "note-1" {
		t.Errorf("notes = %+v, want the remote note appended", notes)
	}
}

func TestToggleUnknownTask(t *testing.T) {
	st := store.NewMemoryStore()
	now := dt(2025, time.April, 1, 12, 0)
	r, _ := newReconciler(st, newFakeBackend(), now)

	_, err := r.Toggle(context.Background(), "ghost")
	var notFound taskerr.TaskNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("err = %v, want TaskNotFoundError", err)
	}
}
