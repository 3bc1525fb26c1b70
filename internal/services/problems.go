package services

import (
	"fmt"

	"go.uber.org/zap"

	"hostpay-bot/internal/logger"
)

// RemindProblems шлёт повторное напоминание по каждой проблемной оплате
// активных серверов. В отличие от липких порогов здесь дедупликации нет
// намеренно: проблемное списание напоминает о себе на каждом запуске,
// пока оператор не сменит статус. Сама задача статус никогда не меняет.
func RemindProblems(store Store, sender Sender) error {
	chatID, err := notifyChat(store)
	if err != nil {
		return fmt.Errorf("read notify chat: %w", err)
	}
	if chatID == 0 {
		return nil
	}

	problems, err := store.ProblemPayments()
	if err != nil {
		return fmt.Errorf("list problem payments: %w", err)
	}
	for _, p := range problems {
		text, kb := RenderProblemReminder(p)
		send(sender, chatID, text, kb)
	}
	if len(problems) > 0 {
		logger.Info("problem reminders sent", zap.Int("count", len(problems)))
	}
	return nil
}
