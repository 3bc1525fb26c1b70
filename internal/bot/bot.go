package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hostpay-bot/config"
	"hostpay-bot/internal/db"
	"hostpay-bot/internal/logger"
)

// Bot — обработчик команд и кнопок. Хранилище передаётся явно при
// конструировании, никаких глобальных подключений.
type Bot struct {
	api     *tgbotapi.BotAPI
	store   *db.Store
	sched   config.Schedule
	loc     *time.Location
	limiter *RateLimiter
	dialogs *dialogManager
}

func New(api *tgbotapi.BotAPI, store *db.Store, sched config.Schedule, loc *time.Location) *Bot {
	return &Bot{
		api:     api,
		store:   store,
		sched:   sched,
		loc:     loc,
		limiter: NewRateLimiter(),
		dialogs: newDialogManager(),
	}
}

// Run запускает long polling и блокируется до StopReceivingUpdates.
func (b *Bot) Run() {
	logger.Info("bot authorized", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		b.HandleUpdate(update)
	}
}

// Stop останавливает получение обновлений; Run после этого возвращается.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}
