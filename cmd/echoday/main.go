package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echoday/internal/config"
	"echoday/internal/engine"
	"echoday/internal/geofence"
	"echoday/internal/notify"
	"echoday/internal/remote"
	"echoday/internal/rollover"
	"echoday/internal/schedule"
	"echoday/internal/store"
	tasksync "echoday/internal/sync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	st := store.NewGormStore(db)

	var dispatcher notify.Dispatcher
	if cfg.TelegramToken != "" {
		dispatcher, err = notify.NewTelegramDispatcher(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
	} else {
		dispatcher = notify.NewLogDispatcher(logger)
	}

	backend := remote.NewClient(cfg.RemoteURL, cfg.RemoteToken)

	reconciler := tasksync.New(tasksync.Config{
		Store:    st,
		Backend:  backend,
		Notifier: dispatcher,
		UserID:   cfg.UserID,
		Logger:   logger,
	})

	eng := engine.New(engine.Config{
		Store:      st,
		Reconciler: reconciler,
		Dispatcher: dispatcher,
		UserID:     cfg.UserID,
		Logger:     logger,
	})

	if err := eng.Pull(ctx); err != nil {
		logger.Warn("initial pull failed", "error", err)
	}

	daily := rollover.New(rollover.Config{
		Store:    st,
		Archiver: backend,
		Notifier: dispatcher,
		UserID:   cfg.UserID,
		Logger:   logger,
		Gate:     eng.Locker(),
	})
	daily.Start(ctx)
	defer daily.Stop()

	sched := schedule.New(time.Local)
	if _, err := sched.Every(cfg.ReminderTick, func() {
		eng.Tick(ctx)
	}); err != nil {
		log.Fatalf("schedule reminder tick: %v", err)
	}

	if cfg.Position != nil {
		poller := geofence.NewPoller(st, geofence.Static{
			Pos: geofence.Position{Lat: cfg.Position.Lat, Lng: cfg.Position.Lng},
		}, eng, cfg.UserID, logger)
		if _, err := sched.Every(cfg.GeofencePoll, func() {
			poller.Poll(ctx)
		}); err != nil {
			log.Fatalf("schedule geofence poll: %v", err)
		}
	}

	sched.Start()
	defer sched.Stop()

	log.Println("EchoDay scheduling engine started.")
	<-ctx.Done()
	log.Println("Shutdown complete.")
}
