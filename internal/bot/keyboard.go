package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hostpay-bot/internal/db"
)

// Callback-префиксы навигации по серверам и диалога /add.
const (
	cbHoster       = "hstr:"
	cbServerInfo   = "srv_info:"
	cbServerDel    = "srv_del:"
	cbServerDelYes = "srv_del_yes:"
	cbBackList     = "srv_back_list"
	cbBackHoster   = "srv_back_hstr:"
	cbAddHoster    = "addh:"
	cbAddHosterNew = "__new__"
	cbPaymentType  = "ptype:"
	cbCurrency     = "cur:"
)

// hosterListKB — верхний уровень /list: кнопка на каждый хостер с числом серверов.
func hosterListKB(hosters []db.HosterCount) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range hosters {
		label := fmt.Sprintf("%s  (%d серв.)", h.Hoster, h.Count)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbHoster+h.Hoster),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// hosterServersKB — серверы одного хостера + кнопка назад.
func hosterServersKB(servers []db.Server) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range servers {
		label := s.ServerName
		if s.Count > 1 {
			label += fmt.Sprintf(" ×%d", s.Count)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbServerInfo, s.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Назад", cbBackList),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// hosterSelectKB — выбор хостера в /add: существующий или новый.
func hosterSelectKB(hosters []db.HosterCount) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range hosters {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.Hoster, cbAddHoster+h.Hoster),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("+ Новый хостер", cbAddHoster+cbAddHosterNew),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func serverActionsKB(serverID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Удалить", fmt.Sprintf("%s%d", cbServerDel, serverID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Назад", fmt.Sprintf("%s%d", cbBackHoster, serverID)),
		),
	)
}

func confirmDeleteKB(serverID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да, удалить", fmt.Sprintf("%s%d", cbServerDelYes, serverID)),
			tgbotapi.NewInlineKeyboardButtonData("Отмена", fmt.Sprintf("%s%d", cbBackHoster, serverID)),
		),
	)
}

func paymentTypeKB() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Инвойс (invoice)", cbPaymentType+string(db.PaymentTypeInvoice)),
			tgbotapi.NewInlineKeyboardButtonData("Автосписание (auto)", cbPaymentType+string(db.PaymentTypeAuto)),
		),
	)
}

func currencyKB() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("RUB ₽", cbCurrency+string(db.CurrencyRUB)),
			tgbotapi.NewInlineKeyboardButtonData("USD $", cbCurrency+string(db.CurrencyUSD)),
			tgbotapi.NewInlineKeyboardButtonData("EUR €", cbCurrency+string(db.CurrencyEUR)),
		),
	)
}
