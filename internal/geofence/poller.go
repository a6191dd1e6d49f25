// Package geofence evaluates location reminders. It polls position on its
// own cadence, independent of the reminder tick, and reports fired tasks
// back to the engine.
package geofence

import (
	"context"
	"log/slog"
	"math"
	"time"

	"echoday/internal/model"
	"echoday/internal/store"
)

// rearmInterval is how long a fired geofence stays quiet before it may fire
// again, tracked through LocationReminder.LastTriggeredAt.
const rearmInterval = time.Hour

// Position is a point on the globe.
type Position struct {
	Lat float64
	Lng float64
}

// LocationProvider reports the device's current position.
type LocationProvider interface {
	Current(ctx context.Context) (Position, error)
}

// Sink receives geofence firings. The engine implements it: it records
// LastTriggeredAt on the task and dispatches the notification.
type Sink interface {
	OnLocationReminderFired(ctx context.Context, taskID string) error
}

// Poller checks every enabled location reminder against the current
// position once per poll.
type Poller struct {
	store    store.TaskStore
	provider LocationProvider
	sink     Sink
	userID   string
	logger   *slog.Logger
	now      func() time.Time
}

func NewPoller(st store.TaskStore, provider LocationProvider, sink Sink, userID string, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		store:    st,
		provider: provider,
		sink:     sink,
		userID:   userID,
		logger:   logger,
		now:      time.Now,
	}
}

// Poll runs one geofence pass. Provider failures are logged and skipped;
// the next poll simply tries again.
func (p *Poller) Poll(ctx context.Context) {
	pos, err := p.provider.Current(ctx)
	if err != nil {
		p.logger.Warn("location unavailable", "error", err)
		return
	}

	tasks, err := p.store.GetTasks(ctx, p.userID)
	if err != nil {
		p.logger.Error("load tasks", "error", err)
		return
	}

	now := p.now()
	for _, task := range tasks {
		geo := task.LocationReminder
		if geo == nil || !geo.Enabled || task.Completed || task.IsDeleted {
			continue
		}
		if geo.LastTriggeredAt != nil && now.Sub(*geo.LastTriggeredAt) < rearmInterval {
			continue
		}
		if !matches(*geo, pos) {
			continue
		}
		if err := p.sink.OnLocationReminderFired(ctx, task.ID); err != nil {
			p.logger.Error("location reminder", "task", task.ID, "error", err)
		}
	}
}

func matches(geo model.GeoReminder, pos Position) bool {
	d := haversineMetres(geo.Lat, geo.Lng, pos.Lat, pos.Lng)
	switch geo.Trigger {
	case model.GeoEnter:
		return d <= geo.Radius
	case model.GeoExit:
		return d > geo.Radius
	case model.GeoNear:
		return d <= 2*geo.Radius
	default:
		return false
	}
}

const earthRadiusMetres = 6371000

func haversineMetres(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMetres * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
