package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hostpay-bot/internal/admin"
	"hostpay-bot/internal/db"
	"hostpay-bot/internal/logger"
	"hostpay-bot/internal/services"
)

func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	defer logger.NotifyOnPanic("HandleUpdate")

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	if update.Message.IsCommand() {
		b.handleCommand(update.Message)
		return
	}
	b.handleDialogText(update.Message)
}

// --- Команды ----------------------------------------------------------------

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	cmd := msg.Command()
	if msg.From != nil && b.limiter.IsLimited(msg.From.ID, "/"+cmd) {
		b.reply(msg.Chat.ID, "Слишком часто, подождите пару секунд.")
		return
	}

	if strings.HasPrefix(cmd, "admin_") {
		admin.HandleAdminCommand(b.api, b.store, b.sched.BackupDir, msg)
		return
	}

	switch cmd {
	case "start":
		b.reply(msg.Chat.ID,
			"Привет! Я бот для отслеживания оплаты серверов.\n\n"+
				"Команды:\n"+
				"/add — добавить сервер\n"+
				"/list — список серверов\n"+
				"/upcoming — ближайшие оплаты\n"+
				"/setchat — привязать чат для уведомлений\n"+
				"/cancel — отменить текущее действие")
	case "add":
		b.cmdAdd(msg)
	case "cancel":
		if b.dialogs.clear(msg.Chat.ID) {
			b.reply(msg.Chat.ID, "Действие отменено.")
		} else {
			b.reply(msg.Chat.ID, "Нечего отменять.")
		}
	case "list":
		b.dialogs.clear(msg.Chat.ID)
		b.cmdList(msg)
	case "upcoming":
		b.dialogs.clear(msg.Chat.ID)
		b.cmdUpcoming(msg)
	case "setchat":
		b.cmdSetChat(msg)
	}
}

func (b *Bot) cmdAdd(msg *tgbotapi.Message) {
	b.dialogs.clear(msg.Chat.ID)
	hosters, err := b.store.ListHosters()
	if err != nil {
		logger.Error("list hosters", zap.Error(err))
		b.reply(msg.Chat.ID, "Ошибка БД, попробуйте позже.")
		return
	}
	if len(hosters) > 0 {
		b.dialogs.start(msg.Chat.ID, stepHosterSelect)
		b.replyWithKB(msg.Chat.ID,
			"Выберите хостер или создайте новый:\n\n/cancel — отменить",
			hosterSelectKB(hosters))
		return
	}
	b.dialogs.start(msg.Chat.ID, stepHosterNew)
	b.reply(msg.Chat.ID, "Введите название хостера (например, Hetzner):\n\n/cancel — отменить")
}

func (b *Bot) cmdList(msg *tgbotapi.Message) {
	hosters, err := b.store.ListHosters()
	if err != nil {
		logger.Error("list hosters", zap.Error(err))
		b.reply(msg.Chat.ID, "Ошибка БД, попробуйте позже.")
		return
	}
	if len(hosters) == 0 {
		b.reply(msg.Chat.ID, "Список серверов пуст. Добавьте сервер командой /add")
		return
	}
	b.replyWithKB(msg.Chat.ID, "Ваши хостеры:", hosterListKB(hosters))
}

func (b *Bot) cmdUpcoming(msg *tgbotapi.Message) {
	today := services.Today(b.loc)
	payments, err := b.store.PendingNotifications(today, today.AddDate(0, 0, b.sched.UpcomingDays))
	if err != nil {
		logger.Error("list upcoming payments", zap.Error(err))
		b.reply(msg.Chat.ID, "Ошибка БД, попробуйте позже.")
		return
	}
	if len(payments) == 0 {
		b.reply(msg.Chat.ID, fmt.Sprintf("Нет предстоящих оплат в ближайшие %d дней.", b.sched.UpcomingDays))
		return
	}
	var lines []string
	for _, p := range payments {
		lines = append(lines, fmt.Sprintf(
			"• %s — %s / %s\n  %s | %s | %s",
			p.DueDate.Format("02.01.2006"),
			p.Hoster,
			p.ServerName,
			services.FormatCost(p.MonthlyCost, p.Currency, p.Count),
			p.PaymentType.Label(),
			p.Status,
		))
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Ближайшие оплаты (%d дней):\n\n%s",
		b.sched.UpcomingDays, strings.Join(lines, "\n\n")))
}

func (b *Bot) cmdSetChat(msg *tgbotapi.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := b.store.SetSetting(services.SettingNotifyChat, chatID); err != nil {
		logger.Error("set notify chat", zap.Error(err))
		b.reply(msg.Chat.ID, "Ошибка БД, попробуйте позже.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Уведомления будут отправляться в этот чат (ID: %s).", chatID))
}

// --- Диалог /add: текстовые шаги -------------------------------------------

func (b *Bot) handleDialogText(msg *tgbotapi.Message) {
	draft := b.dialogs.get(msg.Chat.ID)
	if draft == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch draft.Step {
	case stepHosterNew:
		draft.Hoster = text
		draft.Step = stepServerName
		b.reply(msg.Chat.ID, "Введите имя/описание сервера:")
	case stepServerName:
		draft.ServerName = text
		draft.Step = stepPaymentDay
		b.reply(msg.Chat.ID, "Введите день оплаты (1–31):")
	case stepPaymentDay:
		day, err := parsePaymentDay(text)
		if err != nil {
			b.reply(msg.Chat.ID, "Введите число от 1 до 31:")
			return
		}
		draft.PaymentDay = day
		draft.Step = stepPaymentType
		b.replyWithKB(msg.Chat.ID, "Тип оплаты:", paymentTypeKB())
	case stepMonthlyCost:
		cost, err := parseMonthlyCost(text)
		if err != nil {
			b.reply(msg.Chat.ID, "Введите корректное число (например, 49.00):")
			return
		}
		draft.MonthlyCost = cost
		draft.Step = stepCount
		b.reply(msg.Chat.ID, "Количество серверов (введите 1 если один):")
	case stepCount:
		count, err := parseCount(text)
		if err != nil {
			b.reply(msg.Chat.ID, "Введите целое число больше 0:")
			return
		}
		draft.Count = count
		draft.Step = stepCurrency
		b.replyWithKB(msg.Chat.ID, "Валюта:", currencyKB())
	}
}

// --- Callback-кнопки --------------------------------------------------------

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	switch {
	case strings.HasPrefix(data, cbAddHoster):
		b.cbAddHosterChoice(cq, data[len(cbAddHoster):])
	case strings.HasPrefix(data, cbPaymentType):
		b.cbPaymentTypeChoice(cq, data[len(cbPaymentType):])
	case strings.HasPrefix(data, cbCurrency):
		b.cbCurrencyChoice(cq, data[len(cbCurrency):])
	case strings.HasPrefix(data, cbHoster):
		b.showHosterServers(chatID, messageID, data[len(cbHoster):])
		b.answer(cq, "")
	case strings.HasPrefix(data, cbServerInfo):
		b.cbServerInfo(cq, data[len(cbServerInfo):])
	case strings.HasPrefix(data, cbServerDelYes):
		b.cbServerDelete(cq, data[len(cbServerDelYes):])
	case strings.HasPrefix(data, cbServerDel):
		id, _ := strconv.Atoi(data[len(cbServerDel):])
		b.editWithKB(chatID, messageID,
			"Вы уверены, что хотите удалить этот сервер?", confirmDeleteKB(uint(id)))
		b.answer(cq, "")
	case data == cbBackList:
		b.showHosterList(chatID, messageID)
		b.answer(cq, "")
	case strings.HasPrefix(data, cbBackHoster):
		b.cbBackToHoster(cq, data[len(cbBackHoster):])
	case strings.HasPrefix(data, services.CallbackPayDone):
		b.cbMarkPayment(cq, data[len(services.CallbackPayDone):],
			db.StatusPaid, "✅ Отмечено как оплаченное.", "Оплата отмечена!")
	case strings.HasPrefix(data, services.CallbackPayOK):
		b.cbMarkPayment(cq, data[len(services.CallbackPayOK):],
			db.StatusConfirmed, "✅ Списание подтверждено.", "Списание подтверждено!")
	case strings.HasPrefix(data, services.CallbackPayProblem):
		b.cbMarkPayment(cq, data[len(services.CallbackPayProblem):],
			db.StatusProblem,
			fmt.Sprintf("❌ Отмечена проблема. Напомню через %d часов.", b.sched.ProblemHours),
			"Проблема зафиксирована")
	}
}

func (b *Bot) cbAddHosterChoice(cq *tgbotapi.CallbackQuery, choice string) {
	draft := b.dialogs.get(cq.Message.Chat.ID)
	if draft == nil || draft.Step != stepHosterSelect {
		b.answer(cq, "Диалог не активен, начните с /add")
		return
	}
	if choice == cbAddHosterNew {
		draft.Step = stepHosterNew
		b.editText(cq.Message.Chat.ID, cq.Message.MessageID, "Введите название хостера:\n\n/cancel — отменить")
	} else {
		draft.Hoster = choice
		draft.Step = stepServerName
		b.editText(cq.Message.Chat.ID, cq.Message.MessageID, "Введите имя/описание сервера:")
	}
	b.answer(cq, "")
}

func (b *Bot) cbPaymentTypeChoice(cq *tgbotapi.CallbackQuery, value string) {
	draft := b.dialogs.get(cq.Message.Chat.ID)
	if draft == nil || draft.Step != stepPaymentType {
		b.answer(cq, "Диалог не активен, начните с /add")
		return
	}
	switch db.PaymentType(value) {
	case db.PaymentTypeInvoice, db.PaymentTypeAuto:
		draft.PaymentType = db.PaymentType(value)
	default:
		b.answer(cq, "Неизвестный тип оплаты")
		return
	}
	draft.Step = stepMonthlyCost
	b.editText(cq.Message.Chat.ID, cq.Message.MessageID,
		"Введите стоимость за единицу в месяц (число, или 0 если неизвестна):")
	b.answer(cq, "")
}

func (b *Bot) cbCurrencyChoice(cq *tgbotapi.CallbackQuery, value string) {
	draft := b.dialogs.get(cq.Message.Chat.ID)
	if draft == nil || draft.Step != stepCurrency {
		b.answer(cq, "Диалог не активен, начните с /add")
		return
	}
	srv := db.Server{
		Hoster:      draft.Hoster,
		ServerName:  draft.ServerName,
		PaymentDay:  draft.PaymentDay,
		PaymentType: draft.PaymentType,
		MonthlyCost: draft.MonthlyCost,
		Currency:    db.Currency(value),
		Count:       draft.Count,
		IsActive:    true,
	}
	if err := b.store.AddServer(&srv); err != nil {
		logger.Error("add server", zap.Error(err))
		b.answer(cq, "Ошибка сохранения сервера")
		return
	}
	b.dialogs.clear(cq.Message.Chat.ID)
	b.editText(cq.Message.Chat.ID, cq.Message.MessageID, "Сервер добавлен!\n\n"+serverCard(&srv))
	b.answer(cq, "")
}

func (b *Bot) cbServerInfo(cq *tgbotapi.CallbackQuery, rawID string) {
	id, _ := strconv.Atoi(rawID)
	srv, err := b.store.GetServer(uint(id))
	if err != nil {
		b.answer(cq, "Сервер не найден")
		return
	}
	b.editWithKB(cq.Message.Chat.ID, cq.Message.MessageID, serverCard(srv), serverActionsKB(srv.ID))
	b.answer(cq, "")
}

func (b *Bot) cbServerDelete(cq *tgbotapi.CallbackQuery, rawID string) {
	id, _ := strconv.Atoi(rawID)
	var hoster string
	if srv, err := b.store.GetServer(uint(id)); err == nil {
		hoster = srv.Hoster
	}

	deleted, err := b.store.DeleteServer(uint(id))
	if err != nil {
		logger.Error("delete server", zap.Error(err))
		b.answer(cq, "Ошибка удаления")
		return
	}
	if deleted {
		b.answer(cq, "Сервер удалён")
	} else {
		b.answer(cq, "Сервер не найден")
	}

	// Возвращаемся в список серверов хостера, иначе в общий список
	if hoster != "" {
		servers, err := b.store.ListServersByHoster(hoster)
		if err == nil && len(servers) > 0 {
			b.editWithKB(cq.Message.Chat.ID, cq.Message.MessageID,
				fmt.Sprintf("Серверы хостера %s:", hoster), hosterServersKB(servers))
			return
		}
	}
	b.showHosterList(cq.Message.Chat.ID, cq.Message.MessageID)
}

func (b *Bot) cbBackToHoster(cq *tgbotapi.CallbackQuery, rawID string) {
	id, _ := strconv.Atoi(rawID)
	if srv, err := b.store.GetServer(uint(id)); err == nil {
		servers, err := b.store.ListServersByHoster(srv.Hoster)
		if err == nil && len(servers) > 0 {
			b.editWithKB(cq.Message.Chat.ID, cq.Message.MessageID,
				fmt.Sprintf("Серверы хостера %s:", srv.Hoster), hosterServersKB(servers))
			b.answer(cq, "")
			return
		}
	}
	b.showHosterList(cq.Message.Chat.ID, cq.Message.MessageID)
	b.answer(cq, "")
}

func (b *Bot) cbMarkPayment(cq *tgbotapi.CallbackQuery, rawID string, status db.PaymentStatus, suffix, toast string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		b.answer(cq, "Некорректная кнопка")
		return
	}
	if _, err := b.store.MarkPayment(uint(id), status); err != nil {
		logger.Error("mark payment", zap.Int("payment_id", id), zap.Error(err))
		b.answer(cq, "Оплата не найдена")
		return
	}
	b.editText(cq.Message.Chat.ID, cq.Message.MessageID, cq.Message.Text+"\n\n"+suffix)
	b.answer(cq, toast)
}

// --- Вспомогательное --------------------------------------------------------

func (b *Bot) showHosterList(chatID int64, messageID int) {
	hosters, err := b.store.ListHosters()
	if err != nil || len(hosters) == 0 {
		b.editText(chatID, messageID, "Список серверов пуст.")
		return
	}
	b.editWithKB(chatID, messageID, "Ваши хостеры:", hosterListKB(hosters))
}

func (b *Bot) showHosterServers(chatID int64, messageID int, hoster string) {
	servers, err := b.store.ListServersByHoster(hoster)
	if err != nil || len(servers) == 0 {
		b.editText(chatID, messageID, "Нет серверов у этого хостера")
		return
	}
	b.editWithKB(chatID, messageID, fmt.Sprintf("Серверы хостера %s:", hoster), hosterServersKB(servers))
}

func serverCard(s *db.Server) string {
	text := fmt.Sprintf("Хостер: %s\nСервер: %s\nДень оплаты: %d\nТип: %s",
		s.Hoster, s.ServerName, s.PaymentDay, s.PaymentType.Label())
	if s.Count > 1 {
		text += fmt.Sprintf("\nКол-во: %d", s.Count)
	}
	if s.MonthlyCost.Valid {
		text += "\nСтоимость: " + services.FormatCost(s.MonthlyCost, s.Currency, s.Count)
	}
	return text
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyWithKB(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		logger.Error("edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) editWithKB(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ReplyMarkup = &kb
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		logger.Error("answer callback", zap.Error(err))
	}
}
