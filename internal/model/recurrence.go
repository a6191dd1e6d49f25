package model

import "time"

// RecurrenceFrequency is the base unit of a recurrence rule.
type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "daily"
	FrequencyWeekly  RecurrenceFrequency = "weekly"
	FrequencyMonthly RecurrenceFrequency = "monthly"
)

// RecurrenceEndType says how a recurrence terminates.
type RecurrenceEndType string

const (
	EndCount RecurrenceEndType = "count"
	EndOn    RecurrenceEndType = "on"
)

// RecurrenceEnd bounds a recurrence either by a total occurrence count or by
// a final date. A nil RecurrenceEnd on the rule means it never ends.
type RecurrenceEnd struct {
	Type   RecurrenceEndType `json:"type"`
	Count  int               `json:"count,omitempty"`
	OnDate *time.Time        `json:"onDate,omitempty"`
}

// RecurrenceRule describes how to generate a repeating task's
// next occurrence.
type RecurrenceRule struct {
	Frequency       RecurrenceFrequency `json:"frequency"`
	Interval        int                 `json:"interval"`
	ByWeekday       []time.Weekday      `json:"byWeekday,omitempty"` // weekly only
	Ends            *RecurrenceEnd      `json:"ends,omitempty"`
	OccurrencesDone int                 `json:"occurrencesDone,omitempty"`
}

// IntervalOrDefault returns the interval, treating the zero value as 1.
func (r RecurrenceRule) IntervalOrDefault() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}
