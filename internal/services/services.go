// Package services содержит ядро планировщика: генерацию оплат,
// рассылку уведомлений о сроках и повторные напоминания о проблемных
// списаниях. Все задачи идемпотентны и безопасны при повторном запуске.
package services

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hostpay-bot/internal/db"
	"hostpay-bot/internal/logger"
)

// SettingNotifyChat — ключ настройки с chat_id для уведомлений.
// Если настройка не задана, уведомления молча не отправляются.
const SettingNotifyChat = "notify_chat_id"

// Store — операции хранилища, нужные задачам планировщика.
// *db.Store реализует интерфейс; тесты подставляют свою реализацию.
type Store interface {
	ListActiveServers() ([]db.Server, error)
	EnsurePayment(serverID uint, dueDate time.Time) (db.Payment, error)
	PendingNotifications(from, to time.Time) ([]db.DuePayment, error)
	ProblemPayments() ([]db.DuePayment, error)
	SetNotified(id uint, days int) error
	GetSetting(key string) (string, error)
}

// Sender — канал доставки сообщений. *tgbotapi.BotAPI реализует интерфейс.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Today возвращает сегодняшнюю дату в заданной таймзоне,
// нормализованную к полуночи UTC — в этом виде даты живут в БД.
func Today(loc *time.Location) time.Time {
	y, m, d := time.Now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDateFor считает дату оплаты текущего месяца: номинальный день
// прижимается к последнему дню месяца (31 -> 28/29/30 в коротких месяцах).
func DueDateFor(today time.Time, paymentDay int) time.Time {
	lastDay := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := paymentDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(today.Year(), today.Month(), day, 0, 0, 0, 0, time.UTC)
}

// daysBetween — целое число календарных дней от from до to
// (отрицательное, если to в прошлом). Сравнение идёт по датам,
// время и таймзона аргументов не влияют.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// notifyChat читает chat_id уведомлений; 0 = уведомления выключены.
func notifyChat(store Store) (int64, error) {
	raw, err := store.GetSetting(SettingNotifyChat)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	var id int64
	if _, err := fmt.Sscan(raw, &id); err != nil {
		logger.Warn("invalid notify_chat_id setting", zap.String("value", raw))
		return 0, nil
	}
	return id, nil
}

// send отправляет одно уведомление; ошибка доставки логируется и не
// прерывает проход по остальным оплатам.
func send(sender Sender, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) bool {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := sender.Send(msg); err != nil {
		logger.Error("send notification", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	return true
}
