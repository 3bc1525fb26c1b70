package admin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hostpay-bot/config"
	"hostpay-bot/internal/db"
	"hostpay-bot/internal/logger"
)

func IsAdmin(userID int64) bool {
	for _, id := range config.AppCfg.AdminIDs {
		if userID == id {
			return true
		}
	}
	return false
}

// HandleAdminCommand обрабатывает служебные команды. Не-админам молча не отвечает.
func HandleAdminCommand(bot *tgbotapi.BotAPI, store *db.Store, backupDir string, msg *tgbotapi.Message) {
	if msg.From == nil || !IsAdmin(msg.From.ID) {
		return
	}
	cmd := msg.Command()
	switch cmd {
	case "admin_stats":
		handleStats(bot, store, msg)
	case "admin_backup":
		handleBackup(bot, backupDir, msg)
	case "admin_restore":
		handleRestore(bot, backupDir, msg)
	}
	logger.Info("admin_action",
		zap.Int64("admin_id", msg.From.ID),
		zap.String("action", cmd))
}

func handleStats(bot *tgbotapi.BotAPI, store *db.Store, msg *tgbotapi.Message) {
	stats, err := store.Stats()
	if err != nil {
		logger.Error("collect stats", zap.Error(err))
		_, _ = bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Ошибка сбора статистики."))
		return
	}
	text := fmt.Sprintf(
		"📊 Статистика\n\n"+
			"Активных серверов: %d\n"+
			"Ожидают оплаты: %d\n"+
			"Проблемных списаний: %d\n"+
			"Оплачено в этом месяце: %d",
		stats.ActiveServers,
		stats.PendingPayments,
		stats.ProblemPayments,
		stats.HandledThisMonth,
	)
	_, _ = bot.Send(tgbotapi.NewMessage(msg.Chat.ID, text))
}

func handleBackup(bot *tgbotapi.BotAPI, dir string, msg *tgbotapi.Message) {
	_ = os.MkdirAll(dir, 0o755)
	filename := backupPath(dir, "backup_", time.Now())
	if err := BackupDatabase(filename, config.AppCfg.DatabaseURL); err != nil {
		logger.Error("manual backup failed", zap.Error(err))
		_, _ = bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Ошибка бэкапа: "+err.Error()))
		return
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FilePath(filename))
	doc.Caption = "Бэкап БД"
	if _, err := bot.Send(doc); err != nil {
		logger.Error("send backup", zap.Error(err))
	}
}

// handleRestore восстанавливает БД из дампа: либо из файла, указанного
// аргументом команды, либо из самого свежего дампа в каталоге бэкапов.
func handleRestore(bot *tgbotapi.BotAPI, dir string, msg *tgbotapi.Message) {
	var filename string
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		filename = filepath.Join(dir, filepath.Base(arg))
	} else {
		var err error
		filename, err = newestBackup(dir)
		if err != nil {
			_, _ = bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Нет дампов для восстановления."))
			return
		}
	}
	if err := RestoreDatabase(filename, config.AppCfg.DatabaseURL); err != nil {
		logger.Error("restore failed", zap.String("file", filename), zap.Error(err))
		_, _ = bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Ошибка восстановления: "+err.Error()))
		return
	}
	_, _ = bot.Send(tgbotapi.NewMessage(msg.Chat.ID,
		"БД восстановлена из "+filepath.Base(filename)))
}
