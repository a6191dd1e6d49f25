package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the scheduling engine.
type Config struct {
	DatabaseURL    string
	UserID         string
	RemoteURL      string
	RemoteToken    string
	TelegramToken  string
	TelegramChatID int64
	ReminderTick   time.Duration
	GeofencePoll   time.Duration

	// Position is the fixed device position used by the geofence poller,
	// parsed from ECHODAY_POSITION as "lat,lng". Nil disables the poller.
	Position *LatLng
}

// LatLng is a configured coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:   strings.TrimSpace(os.Getenv("ECHODAY_DB")),
		UserID:        strings.TrimSpace(os.Getenv("ECHODAY_USER_ID")),
		RemoteURL:     strings.TrimSpace(os.Getenv("ECHODAY_REMOTE_URL")),
		RemoteToken:   strings.TrimSpace(os.Getenv("ECHODAY_REMOTE_TOKEN")),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		ReminderTick:  parseSeconds(os.Getenv("REMINDER_TICK_SECONDS")),
		GeofencePoll:  parseSeconds(os.Getenv("GEOFENCE_POLL_SECONDS")),
	}

	if raw := strings.TrimSpace(os.Getenv("ECHODAY_POSITION")); raw != "" {
		pos, err := parseLatLng(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Position = pos
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "echoday.db"
	}
	if cfg.ReminderTick == 0 {
		cfg.ReminderTick = 60 * time.Second
	}
	if cfg.GeofencePoll == 0 {
		cfg.GeofencePoll = 180 * time.Second
	}

	if cfg.UserID == "" {
		return cfg, fmt.Errorf("ECHODAY_USER_ID is required")
	}
	if cfg.RemoteURL == "" {
		return cfg, fmt.Errorf("ECHODAY_REMOTE_URL is required")
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

func parseLatLng(raw string) (*LatLng, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("ECHODAY_POSITION must be \"lat,lng\"")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("ECHODAY_POSITION latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("ECHODAY_POSITION longitude: %w", err)
	}
	return &LatLng{Lat: lat, Lng: lng}, nil
}

func parseSeconds(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
