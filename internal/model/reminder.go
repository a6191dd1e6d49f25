package model

import "time"

// ReminderKind distinguishes time-based reminders from geofence ones.
type ReminderKind string

const (
	ReminderRelative ReminderKind = "relative"
	ReminderLocation ReminderKind = "location"
)

// ReminderConfig is a reminder attached to a task. All of its state is part
// of the task, so pending reminders survive restarts.
type ReminderConfig struct {
	ID            string       `json:"id"`
	Kind          ReminderKind `json:"kind"`
	MinutesBefore int          `json:"minutesBefore,omitempty"`
	Triggered     bool         `json:"triggered"`
	SnoozedUntil  *time.Time   `json:"snoozedUntil,omitempty"`
	SnoozedCount  int          `json:"snoozedCount,omitempty"`
}

// GeoTrigger says which side of the geofence boundary fires the reminder.
type GeoTrigger string

const (
	GeoEnter GeoTrigger = "enter"
	GeoExit  GeoTrigger = "exit"
	GeoNear  GeoTrigger = "near"
)

// GeoReminder is the geofence metadata of a task. The geofence poller owns
// evaluation; the engine only records LastTriggeredAt.
type GeoReminder struct {
	Lat             float64    `json:"lat"`
	Lng             float64    `json:"lng"`
	Radius          float64    `json:"radius"` // metres
	Trigger         GeoTrigger `json:"trigger"`
	Address         string     `json:"address,omitempty"`
	Enabled         bool       `json:"enabled"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt,omitempty"`
}

// ActiveReminder is a reminder whose due condition currently holds and awaits
// acknowledgement. It is transient: uniquely identified by (TaskID,
// ReminderID), never persisted as such.
type ActiveReminder struct {
	TaskID     string
	ReminderID string
	Message    string
	Priority   Priority
	CreatedAt  time.Time
}
