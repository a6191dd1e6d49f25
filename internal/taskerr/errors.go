// Package taskerr defines the error types the scheduling engine surfaces.
package taskerr

import "fmt"

// ValidationError indicates a malformed recurrence rule or reminder. Tasks
// failing validation are rejected at the store boundary and never persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteSyncError indicates a remote mirror call was rejected. The local
// mutation has already been rolled back by the time callers see it.
type RemoteSyncError struct {
	Op  string
	Err error
}

func (e RemoteSyncError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e RemoteSyncError) Unwrap() error { return e.Err }

// ArchiveCommitError indicates the daily archive commit failed. The rollover
// guard state is untouched, so the whole run retries on the next trigger.
type ArchiveCommitError struct {
	Err error
}

func (e ArchiveCommitError) Error() string {
	return fmt.Sprintf("archive commit failed: %v", e.Err)
}

func (e ArchiveCommitError) Unwrap() error { return e.Err }

// TaskNotFoundError indicates the task id matched nothing in the collection.
type TaskNotFoundError struct {
	ID string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// ReminderNotFoundError indicates the reminder id matched nothing on the task.
type ReminderNotFoundError struct {
	TaskID     string
	ReminderID string
}

func (e ReminderNotFoundError) Error() string {
	return fmt.Sprintf("reminder %s not found on task %s", e.ReminderID, e.TaskID)
}
