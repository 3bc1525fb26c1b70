package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hostpay-bot/config"
	"hostpay-bot/internal/admin"
	"hostpay-bot/internal/bot"
	"hostpay-bot/internal/db"
	"hostpay-bot/internal/logger"
	"hostpay-bot/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу расписания")
	flag.Parse()

	config.LoadConfig()
	sched, err := config.LoadSchedule(*configPath)
	if err != nil {
		log.Fatalf("Failed to load schedule config: %v", err)
	}
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		log.Fatalf("Unknown timezone %q: %v", sched.Timezone, err)
	}

	store, err := db.New(config.AppCfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer store.Close()

	botapi, err := tgbotapi.NewBotAPI(config.AppCfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	var alertAdmin int64
	if len(config.AppCfg.AdminIDs) > 0 {
		alertAdmin = config.AppCfg.AdminIDs[0]
	}
	logger.InitNotifier(botapi, alertAdmin)
	defer logger.Sync()

	// Ежедневная проверка: сначала генерация оплат месяца, затем рассылка.
	// Отдельный интервал — повторные напоминания о проблемных списаниях.
	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(fmt.Sprintf("%d %d * * *", sched.DailyMinute, sched.DailyHour), func() {
		defer logger.NotifyOnPanic("daily check")
		runID := uuid.NewString()
		today := services.Today(loc)
		logger.Info("daily check started", zap.String("run_id", runID))
		if err := services.GeneratePayments(store, today); err != nil {
			logger.Error("generate payments", zap.String("run_id", runID), zap.Error(err))
			logger.NotifyAdmin("Ошибка генерации оплат: " + err.Error())
			return
		}
		if err := services.DispatchDueNotifications(store, botapi, today, sched.LookaheadDays); err != nil {
			logger.Error("dispatch notifications", zap.String("run_id", runID), zap.Error(err))
			logger.NotifyAdmin("Ошибка рассылки уведомлений: " + err.Error())
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily check: %v", err)
	}
	_, err = c.AddFunc(fmt.Sprintf("@every %dh", sched.ProblemHours), func() {
		defer logger.NotifyOnPanic("problem reminder")
		if err := services.RemindProblems(store, botapi); err != nil {
			logger.Error("remind problems", zap.Error(err))
			logger.NotifyAdmin("Ошибка напоминаний о проблемах: " + err.Error())
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule problem reminder: %v", err)
	}
	// Автоматический бэкап БД раз в сутки
	_, err = c.AddFunc("0 3 * * *", func() {
		defer logger.NotifyOnPanic("auto backup")
		keep := time.Duration(sched.BackupKeepDays) * 24 * time.Hour
		admin.AutoBackupDatabase(botapi, alertAdmin, config.AppCfg.DatabaseURL, sched.BackupDir, keep)
	})
	if err != nil {
		log.Fatalf("Failed to schedule auto backup: %v", err)
	}
	c.Start()
	defer c.Stop()

	services.StartHealthServer(sched.HealthAddr, store)

	b := bot.New(botapi, store, sched, loc)
	go b.Run()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	b.Stop()
}
