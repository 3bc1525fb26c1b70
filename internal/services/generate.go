package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"hostpay-bot/internal/logger"
)

// GeneratePayments идемпотентно создаёт оплату текущего месяца для каждого
// активного сервера. Запускается ежедневно перед рассылкой уведомлений:
// сколько бы раз генерация ни выполнилась за день, на пару (сервер, месяц)
// остаётся ровно одна оплата, и её статус с флагами не сбрасываются.
// Ошибка хранилища прерывает проход: уже созданные оплаты останутся,
// следующий запуск доделает остальное.
func GeneratePayments(store Store, today time.Time) error {
	servers, err := store.ListActiveServers()
	if err != nil {
		return fmt.Errorf("list active servers: %w", err)
	}
	for _, srv := range servers {
		due := DueDateFor(today, srv.PaymentDay)
		if _, err := store.EnsurePayment(srv.ID, due); err != nil {
			return err
		}
	}
	logger.Info("payments generated", zap.Int("servers", len(servers)))
	return nil
}
