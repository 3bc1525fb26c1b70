package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"hostpay-bot/internal/db"
)

// Callback-префиксы кнопок уведомлений; разбираются в internal/bot.
const (
	CallbackPayDone    = "pay_done:"    // инвойс оплачен
	CallbackPayOK      = "pay_ok:"      // автосписание прошло
	CallbackPayProblem = "pay_problem:" // автосписание не прошло
)

const dueDateLayout = "02.01.2006"

// FormatCost форматирует стоимость: "$49" / "€49" для валют с символом
// перед суммой, "49 ₽" для остальных. При count > 1 показывается
// "цена ×count = итого". Неизвестная стоимость — прочерк.
func FormatCost(cost decimal.NullDecimal, currency db.Currency, count int) string {
	if !cost.Valid {
		return "—"
	}
	unit := formatAmount(cost.Decimal, currency)
	if count > 1 {
		total := cost.Decimal.Mul(decimal.NewFromInt(int64(count)))
		return fmt.Sprintf("%s ×%d = %s", unit, count, formatAmount(total, currency))
	}
	return unit
}

func formatAmount(amount decimal.Decimal, currency db.Currency) string {
	if currency.SymbolFirst() {
		return currency.Symbol() + amount.String()
	}
	return amount.String() + " " + currency.Symbol()
}

// RenderDueNotice — чистая функция: текст и клавиатура уведомления о сроке
// оплаты. daysLeft == 3 — раннее предупреждение, daysLeft <= 1 — завтра или
// просрочено. Для инвойса всегда кнопка «Оплачено»; автосписание за 3 дня —
// просто информация, за день — кнопки «прошло / проблема».
func RenderDueNotice(p db.DuePayment, daysLeft int) (string, *tgbotapi.InlineKeyboardMarkup) {
	var header string
	var kb *tgbotapi.InlineKeyboardMarkup

	switch p.PaymentType {
	case db.PaymentTypeInvoice:
		if daysLeft == 3 {
			header = "⚠️ Оплата через 3 дня"
		} else {
			header = "🔴 Оплата завтра!"
		}
		k := invoiceKeyboard(p.ID)
		kb = &k
	case db.PaymentTypeAuto:
		if daysLeft == 3 {
			header = "ℹ️ Автосписание через 3 дня"
		} else {
			header = "ℹ️ Автосписание завтра"
			k := autoKeyboard(p.ID)
			kb = &k
		}
	default:
		header = "⚠️ Оплата через " + fmt.Sprint(daysLeft) + " дн."
	}

	text := fmt.Sprintf(
		"%s\n\nХостер: %s\nСервер: %s\nСумма: %s\nТип: %s\nДата: %s",
		header,
		p.Hoster,
		p.ServerName,
		FormatCost(p.MonthlyCost, p.Currency, p.Count),
		p.PaymentType.Label(),
		p.DueDate.Format(dueDateLayout),
	)
	return text, kb
}

// RenderProblemReminder — текст повторного напоминания о проблемном
// списании. Кнопки «прошло / проблема» здесь есть всегда, независимо от
// порога: оператор закрывает проблему из любого напоминания.
func RenderProblemReminder(p db.DuePayment) (string, *tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf(
		"🔁 Напоминание: проблема с оплатой\n\nХостер: %s\nСервер: %s\nСумма: %s\nДата: %s",
		p.Hoster,
		p.ServerName,
		FormatCost(p.MonthlyCost, p.Currency, p.Count),
		p.DueDate.Format(dueDateLayout),
	)
	kb := autoKeyboard(p.ID)
	return text, &kb
}

func invoiceKeyboard(paymentID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оплачено ✓", fmt.Sprintf("%s%d", CallbackPayDone, paymentID)),
		),
	)
}

func autoKeyboard(paymentID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Списание прошло ✓", fmt.Sprintf("%s%d", CallbackPayOK, paymentID)),
			tgbotapi.NewInlineKeyboardButtonData("Проблема ✗", fmt.Sprintf("%s%d", CallbackPayProblem, paymentID)),
		),
	)
}
