// Package reminder evaluates which reminders are due and owns the
// snooze/acknowledge transitions. All functions are pure over the task
// collection: they return fresh slices and never mutate their input, so a
// tick given unchanged input always produces the identical due-set.
package reminder

import (
	"fmt"
	"time"

	"echoday/internal/model"
	"echoday/internal/taskerr"
)

// stalenessBound is how far past its datetime a task may be before its
// pending reminders are skipped rather than queued. Firing a reminder for a
// task a day overdue is noise, not help; the task list itself shows overdue
// work. Snoozed reminders are exempt since the user explicitly deferred them.
const stalenessBound = 24 * time.Hour

// builtinSuffix names the implicit 15-minutes-before reminder synthesized for
// tasks that have a datetime but no configured relative reminder.
const builtinSuffix = "_builtin"

const builtinMinutesBefore = 15

// BuiltinID returns the reminder id of a task's implicit reminder.
func BuiltinID(taskID string) string { return taskID + builtinSuffix }

// CheckReminders scans the collection and returns every reminder whose due
// condition holds at now. De-duplication across ticks is the caller's
// responsibility, keyed by (TaskID, ReminderID).
func CheckReminders(tasks []model.Task, now time.Time) []model.ActiveReminder {
	var due []model.ActiveReminder
	for _, task := range tasks {
		if task.IsDeleted || task.Completed || task.Datetime == nil {
			continue
		}

		hasRelative := false
		for _, r := range task.Reminders {
			if r.Kind != model.ReminderRelative {
				continue
			}
			hasRelative = true
			if r.Triggered || !relativeDue(r, *task.Datetime, now) {
				continue
			}
			due = append(due, model.ActiveReminder{
				TaskID:     task.ID,
				ReminderID: r.ID,
				Message:    fmt.Sprintf("Reminder: %s", task.Text),
				Priority:   task.Priority,
				CreatedAt:  now,
			})
		}

		if !hasRelative && builtinDue(*task.Datetime, now) {
			due = append(due, model.ActiveReminder{
				TaskID:     task.ID,
				ReminderID: BuiltinID(task.ID),
				Message:    fmt.Sprintf("Upcoming task: %s", task.Text),
				Priority:   task.Priority,
				CreatedAt:  now,
			})
		}
	}
	return due
}

func relativeDue(r model.ReminderConfig, taskTime, now time.Time) bool {
	if r.SnoozedUntil != nil {
		return !now.Before(*r.SnoozedUntil)
	}
	trigger := taskTime.Add(-time.Duration(r.MinutesBefore) * time.Minute)
	if now.Before(trigger) {
		return false
	}
	return now.Before(taskTime.Add(stalenessBound))
}

func builtinDue(taskTime, now time.Time) bool {
	trigger := taskTime.Add(-builtinMinutesBefore * time.Minute)
	if now.Before(trigger) {
		return false
	}
	return now.Before(taskTime.Add(stalenessBound))
}

// MarkTriggered permanently acknowledges a reminder. The flag is durable
// state on the task, so restarts cannot resurrect a dismissed reminder.
func MarkTriggered(tasks []model.Task, taskID, reminderID string) ([]model.Task, error) {
	return updateReminder(tasks, taskID, reminderID, func(r *model.ReminderConfig) {
		r.Triggered = true
		r.SnoozedUntil = nil
	})
}

// Snooze shifts a reminder's effective trigger point to now+minutes and
// resets Triggered so it can fire again. Callers must also clear their
// de-dup record for the reminder.
func Snooze(tasks []model.Task, taskID, reminderID string, minutes int, now time.Time) ([]model.Task, error) {
	until := now.Add(time.Duration(minutes) * time.Minute)
	return updateReminder(tasks, taskID, reminderID, func(r *model.ReminderConfig) {
		r.Triggered = false
		r.SnoozedUntil = &until
		r.SnoozedCount++
	})
}

// RecordLocationFired notes that the geofence collaborator fired for a task.
// It only stamps LocationReminder.LastTriggeredAt; Reminders are untouched.
func RecordLocationFired(tasks []model.Task, taskID string, now time.Time) ([]model.Task, error) {
	out := model.CloneTasks(tasks)
	for i := range out {
		if out[i].ID != taskID {
			continue
		}
		if out[i].LocationReminder == nil {
			return nil, taskerr.ReminderNotFoundError{TaskID: taskID, ReminderID: "location"}
		}
		at := now
		out[i].LocationReminder.LastTriggeredAt = &at
		return out, nil
	}
	return nil, taskerr.TaskNotFoundError{ID: taskID}
}

func updateReminder(tasks []model.Task, taskID, reminderID string, apply func(*model.ReminderConfig)) ([]model.Task, error) {
	out := model.CloneTasks(tasks)
	for i := range out {
		if out[i].ID != taskID {
			continue
		}
		for j := range out[i].Reminders {
			if out[i].Reminders[j].ID == reminderID {
				apply(&out[i].Reminders[j])
				return out, nil
			}
		}
		// The implicit reminder has no stored config until the user acts on
		// it; materialize one so the transition is durable.
		if reminderID == BuiltinID(taskID) {
			out[i].Reminders = append(out[i].Reminders, model.ReminderConfig{
				ID:            reminderID,
				Kind:          model.ReminderRelative,
				MinutesBefore: builtinMinutesBefore,
			})
			apply(&out[i].Reminders[len(out[i].Reminders)-1])
			return out, nil
		}
		return nil, taskerr.ReminderNotFoundError{TaskID: taskID, ReminderID: reminderID}
	}
	return nil, taskerr.TaskNotFoundError{ID: taskID}
}
