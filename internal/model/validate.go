package model

import (
	"time"

	"echoday/internal/taskerr"
)

// Validate checks the task's recurrence rule and reminders. It is applied at
// the store boundary so malformed tasks never enter the collection.
func (t Task) Validate() error {
	if t.ID == "" {
		return taskerr.ValidationError{Field: "task", Reason: "id is required"}
	}
	if t.Priority != PriorityHigh && t.Priority != PriorityMedium {
		return taskerr.ValidationError{Field: "priority", Reason: "must be high or medium"}
	}
	for _, r := range t.Reminders {
		if err := r.validate(); err != nil {
			return err
		}
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r ReminderConfig) validate() error {
	if r.ID == "" {
		return taskerr.ValidationError{Field: "reminder", Reason: "id is required"}
	}
	switch r.Kind {
	case ReminderRelative:
		if r.MinutesBefore < 0 {
			return taskerr.ValidationError{Field: "reminder", Reason: "minutesBefore must not be negative"}
		}
	case ReminderLocation:
		// Geofence config lives on the task's LocationReminder.
	default:
		return taskerr.ValidationError{Field: "reminder", Reason: "unknown kind " + string(r.Kind)}
	}
	return nil
}

func (r RecurrenceRule) validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return taskerr.ValidationError{Field: "recurrence", Reason: "unknown frequency " + string(r.Frequency)}
	}
	if r.Interval < 0 {
		return taskerr.ValidationError{Field: "recurrence", Reason: "interval must be positive"}
	}
	if len(r.ByWeekday) > 0 && r.Frequency != FrequencyWeekly {
		return taskerr.ValidationError{Field: "recurrence", Reason: "byWeekday is only valid for weekly rules"}
	}
	for _, wd := range r.ByWeekday {
		if wd < time.Sunday || wd > time.Saturday {
			return taskerr.ValidationError{Field: "recurrence", Reason: "weekday out of range"}
		}
	}
	if r.Ends != nil {
		switch r.Ends.Type {
		case EndCount:
			if r.Ends.Count <= 0 {
				return taskerr.ValidationError{Field: "recurrence", Reason: "end count must be positive"}
			}
		case EndOn:
			if r.Ends.OnDate == nil {
				return taskerr.ValidationError{Field: "recurrence", Reason: "end date is required"}
			}
		default:
			return taskerr.ValidationError{Field: "recurrence", Reason: "unknown end type " + string(r.Ends.Type)}
		}
	}
	return nil
}
