package model

import "time"

// Priority marks how urgent a task is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Task represents a single item in the planner.
type Task struct {
	ID               string           `json:"id"`
	Text             string           `json:"text"`
	Priority         Priority         `json:"priority"`
	Datetime         *time.Time       `json:"datetime"`
	Completed        bool             `json:"completed"`
	CreatedAt        time.Time        `json:"createdAt"`
	IsDeleted        bool             `json:"isDeleted"`
	Reminders        []ReminderConfig `json:"reminders,omitempty"`
	Recurrence       *RecurrenceRule  `json:"recurrence,omitempty"`
	LocationReminder *GeoReminder     `json:"locationReminder,omitempty"`
	ParentID         string           `json:"parentId,omitempty"`
	AIMetadata       *AIMetadata      `json:"aiMetadata,omitempty"`
}

// AIMetadata carries fields filled in by the task-analysis service. The
// scheduling engine stores it verbatim and never interprets it.
type AIMetadata struct {
	Category          string `json:"category,omitempty"`
	EstimatedDuration int    `json:"estimatedDuration,omitempty"`
	SuggestedTime     string `json:"suggestedTime,omitempty"`
	RequiresRouting   bool   `json:"requiresRouting,omitempty"`
	Destination       string `json:"destination,omitempty"`
}

// Clone returns a deep copy of the task so callers can mutate snapshots
// without sharing reminder or recurrence state.
func (t Task) Clone() Task {
	out := t
	if t.Datetime != nil {
		d := *t.Datetime
		out.Datetime = &d
	}
	if t.Reminders != nil {
		out.Reminders = make([]ReminderConfig, len(t.Reminders))
		copy(out.Reminders, t.Reminders)
		for i := range out.Reminders {
			if s := out.Reminders[i].SnoozedUntil; s != nil {
				u := *s
				out.Reminders[i].SnoozedUntil = &u
			}
		}
	}
	if t.Recurrence != nil {
		r := *t.Recurrence
		if t.Recurrence.ByWeekday != nil {
			r.ByWeekday = make([]time.Weekday, len(t.Recurrence.ByWeekday))
			copy(r.ByWeekday, t.Recurrence.ByWeekday)
		}
		if t.Recurrence.Ends != nil {
			e := *t.Recurrence.Ends
			if e.OnDate != nil {
				d := *e.OnDate
				e.OnDate = &d
			}
			r.Ends = &e
		}
		out.Recurrence = &r
	}
	if t.LocationReminder != nil {
		g := *t.LocationReminder
		if g.LastTriggeredAt != nil {
			lt := *g.LastTriggeredAt
			g.LastTriggeredAt = &lt
		}
		out.LocationReminder = &g
	}
	if t.AIMetadata != nil {
		m := *t.AIMetadata
		out.AIMetadata = &m
	}
	return out
}

// CloneTasks deep-copies a whole collection snapshot.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
