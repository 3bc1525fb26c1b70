package admin

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hostpay-bot/internal/logger"
)

// BackupDatabase создает дамп БД Postgres в указанный файл
func BackupDatabase(filename string, dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, "pg_dump", dsn, "-Fc", "-f", filename)
	return cmd.Run()
}

// RestoreDatabase восстанавливает БД из дампа
func RestoreDatabase(filename string, dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, "pg_restore", "-d", dsn, filename)
	return cmd.Run()
}

// backupPath — путь дампа с отметкой времени в каталоге dir.
func backupPath(dir, prefix string, now time.Time) string {
	return filepath.Join(dir, prefix+now.Format("20060102_150405")+".dump")
}

// newestBackup возвращает самый свежий дамп в каталоге dir.
func newestBackup(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*backup_*.dump"))
	if err != nil {
		return "", err
	}
	var newest string
	var newestTime time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = f
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", os.ErrNotExist
	}
	return newest, nil
}

// CleanOldBackups удаляет дампы старше maxAge в каталоге dir
func CleanOldBackups(dir string, maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(dir, "*backup_*.dump"))
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(f)
		}
	}
	return nil
}

// AutoBackupDatabase запускает ночной бэкап и чистку старых дампов,
// при ошибке уведомляет админа
func AutoBackupDatabase(bot *tgbotapi.BotAPI, adminID int64, dsn, dir string, keep time.Duration) {
	_ = os.MkdirAll(dir, 0o755)
	filename := backupPath(dir, "autobackup_", time.Now())
	if err := BackupDatabase(filename, dsn); err != nil {
		logger.Error("auto backup failed", zap.Error(err))
		logger.NotifyAdmin("Ошибка резервного копирования: " + err.Error())
		return
	}
	if err := CleanOldBackups(dir, keep); err != nil {
		logger.Error("backup cleanup failed", zap.Error(err))
	}
	logger.Info("auto backup completed", zap.String("file", filename))

	if bot != nil && adminID != 0 {
		doc := tgbotapi.NewDocument(adminID, tgbotapi.FilePath(filename))
		doc.Caption = "Автобэкап БД"
		if _, err := bot.Send(doc); err != nil {
			logger.Error("send backup to admin", zap.Error(err))
		}
	}
}
