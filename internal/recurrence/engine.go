// Package recurrence computes the next occurrence of a repeating task. It is
// pure: callers append the returned task alongside the completed original.
package recurrence

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"echoday/internal/model"
)

// NextOccurrence returns the successor of a recurring task whose completion
// just transitioned to true, or false when the rule has no recurrence or has
// terminated. A datetime-less recurring task recurs relative to now, the
// completion time, rather than a fixed schedule.
func NextOccurrence(task model.Task, now time.Time) (model.Task, bool) {
	rule := task.Recurrence
	if rule == nil {
		return model.Task{}, false
	}

	base := now
	if task.Datetime != nil {
		base = *task.Datetime
	}

	next := advance(base, *rule)

	// Termination is checked against the prospective occurrence count.
	if ends := rule.Ends; ends != nil {
		switch ends.Type {
		case model.EndCount:
			if rule.OccurrencesDone+1 >= ends.Count {
				return model.Task{}, false
			}
		case model.EndOn:
			if ends.OnDate != nil && next.After(*ends.OnDate) {
				return model.Task{}, false
			}
		}
	}

	succ := task.Clone()
	succ.ID = uuid.NewString()
	succ.Completed = false
	succ.IsDeleted = false
	succ.CreatedAt = now
	succ.Recurrence.OccurrencesDone = rule.OccurrencesDone + 1
	if task.Datetime != nil {
		succ.Datetime = &next
	} else {
		succ.Datetime = nil
	}
	for i := range succ.Reminders {
		succ.Reminders[i].Triggered = false
		succ.Reminders[i].SnoozedUntil = nil
		succ.Reminders[i].SnoozedCount = 0
	}
	if succ.LocationReminder != nil {
		succ.LocationReminder.LastTriggeredAt = nil
	}
	succ.ParentID = task.ParentID
	if succ.ParentID == "" {
		succ.ParentID = task.ID
	}
	return succ, true
}

func advance(base time.Time, rule model.RecurrenceRule) time.Time {
	interval := rule.IntervalOrDefault()
	switch rule.Frequency {
	case model.FrequencyDaily:
		return base.AddDate(0, 0, interval)
	case model.FrequencyWeekly:
		if len(rule.ByWeekday) > 0 {
			return nextWeekday(base, rule.ByWeekday)
		}
		return base.AddDate(0, 0, 7*interval)
	case model.FrequencyMonthly:
		return addMonthsClamped(base, interval)
	default:
		return base.AddDate(0, 0, interval)
	}
}

// nextWeekday picks the first rule weekday strictly after base's weekday,
// wrapping to the first weekday of the following week when none remain.
func nextWeekday(base time.Time, weekdays []time.Weekday) time.Time {
	sorted := make([]time.Weekday, len(weekdays))
	copy(sorted, weekdays)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	baseWd := base.Weekday()
	for _, wd := range sorted {
		if wd > baseWd {
			return base.AddDate(0, 0, int(wd-baseWd))
		}
	}
	return base.AddDate(0, 0, int(sorted[0]+7-baseWd))
}

// addMonthsClamped shifts by whole calendar months, clamping the day of month
// to the target month's last day (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(base time.Time, months int) time.Time {
	year, month, day := base.Date()
	target := time.Date(year, month, 1, 0, 0, 0, 0, base.Location()).AddDate(0, months, 0)
	if last := daysInMonth(target.Month(), target.Year()); day > last {
		day = last
	}
	hour, min, sec := base.Clock()
	return time.Date(target.Year(), target.Month(), day, hour, min, sec, base.Nanosecond(), base.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}
