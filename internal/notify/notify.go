// Package notify delivers fired reminders to the user. Dispatchers are
// fire-and-forget: delivery failures are logged internally and never
// propagate into the evaluator's tick.
package notify

import (
	"log/slog"

	"echoday/internal/model"
)

// Dispatcher delivers an active reminder. Implementations must never panic
// or return past their own boundary.
type Dispatcher interface {
	Notify(reminder model.ActiveReminder)
	// NotifyText delivers a short, dismissible notice (sync rollback,
	// rollover failure) outside the reminder flow.
	NotifyText(message string)
}

// LogDispatcher writes reminders to the log. It is the fallback when no
// delivery channel is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Notify(r model.ActiveReminder) {
	d.logger.Info("reminder due",
		"task", r.TaskID,
		"reminder", r.ReminderID,
		"priority", string(r.Priority),
		"message", r.Message,
	)
}

func (d *LogDispatcher) NotifyText(message string) {
	d.logger.Info("notice", "message", message)
}
