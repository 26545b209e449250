package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maintenance-reminder/internal/config"
	"maintenance-reminder/internal/notify"
	"maintenance-reminder/internal/repository"
	"maintenance-reminder/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadOrCreate(config.DefaultConfigFileName)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		if parsed, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = parsed
		} else {
			log.Printf("timezone %q unknown, using local: %v", cfg.Timezone, err)
		}
	}

	db, err := repository.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	deviceRepo := repository.NewDeviceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	registry := notify.NewTimerRegistry(cfg.TriggerBuffer)
	registry.Start()
	defer registry.Stop()

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		telegram, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("telegram unavailable, reminders go to the log: %v", err)
		} else {
			notifier = telegram
		}
	}

	reminderSvc := service.NewReminderService(taskRepo, settingsRepo, registry, loc)
	taskSvc := service.NewTaskService(db, taskRepo, historyRepo, deviceRepo, reminderSvc, loc)
	defer taskSvc.Close()

	// Fired triggers carry ids only; presentation state is re-read here so a
	// reminder for a deleted or deactivated task dies quietly.
	go func() {
		for trigger := range registry.C() {
			task, err := taskRepo.FindByID(ctx, trigger.Payload.TaskID)
			if err != nil || task == nil || !task.IsActive {
				continue
			}
			deviceName := ""
			if device, err := deviceRepo.FindByID(ctx, task.DeviceID); err == nil && device != nil {
				deviceName = device.Name
			}
			if err := notifier.Notify(ctx, deviceName, task.Title, task.NextDueDate); err != nil {
				log.Printf("notify: %v", err)
			}
		}
	}()

	// Triggers do not survive restarts; restore them from the store.
	if err := reminderSvc.RearmAll(ctx); err != nil {
		log.Printf("rearm at startup: %v", err)
	}

	scheduler := service.NewSchedulerService(loc)
	if _, err := scheduler.ScheduleDaily("00:05", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := reminderSvc.RearmAll(jobCtx); err != nil {
			log.Printf("daily rearm: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule daily rearm: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Maintenance reminder service started.")
	<-ctx.Done()
	log.Println("Shutdown complete.")
}
