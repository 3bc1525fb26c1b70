package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"hostpay-bot/internal/logger"
)

// DispatchDueNotifications рассылает напоминания об ожидающих оплатах со
// сроком в ближайшие lookaheadDays дней. Для каждой оплаты срабатывает не
// больше одной ветки за проход:
//
//	за 3 дня  — если ещё не было 3-дневного уведомления;
//	за 1 день и позже (просрочка) — если ещё не было 1-дневного.
//
// Флаги липкие: порог срабатывает один раз за жизнь оплаты, сколько бы раз
// задача ни перезапускалась. Флаг поднимается только после успешной
// отправки, поэтому неудачная доставка повторится на следующем запуске.
func DispatchDueNotifications(store Store, sender Sender, today time.Time, lookaheadDays int) error {
	chatID, err := notifyChat(store)
	if err != nil {
		return fmt.Errorf("read notify chat: %w", err)
	}
	if chatID == 0 {
		logger.Info("notify chat is not configured, skipping dispatch")
		return nil
	}

	payments, err := store.PendingNotifications(today, today.AddDate(0, 0, lookaheadDays))
	if err != nil {
		return fmt.Errorf("list pending notifications: %w", err)
	}

	sent := 0
	for _, p := range payments {
		daysLeft := daysBetween(today, p.DueDate)
		switch {
		case daysLeft == 3 && !p.Notified3d:
			text, kb := RenderDueNotice(p, 3)
			if !send(sender, chatID, text, kb) {
				continue
			}
			if err := store.SetNotified(p.ID, 3); err != nil {
				return fmt.Errorf("set notified_3d payment=%d: %w", p.ID, err)
			}
			sent++
		case daysLeft <= 1 && !p.Notified1d:
			text, kb := RenderDueNotice(p, 1)
			if !send(sender, chatID, text, kb) {
				continue
			}
			if err := store.SetNotified(p.ID, 1); err != nil {
				return fmt.Errorf("set notified_1d payment=%d: %w", p.ID, err)
			}
			sent++
		}
	}
	logger.Info("daily payment check completed",
		zap.Int("pending", len(payments)), zap.Int("sent", sent))
	return nil
}
