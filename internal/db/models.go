package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType — способ оплаты сервера: инвойс руками или автосписание.
type PaymentType string

const (
	PaymentTypeInvoice PaymentType = "invoice"
	PaymentTypeAuto    PaymentType = "auto"
)

// Label возвращает подпись для сообщений в чате.
func (t PaymentType) Label() string {
	switch t {
	case PaymentTypeInvoice:
		return "Инвойс"
	case PaymentTypeAuto:
		return "Автосписание"
	}
	return string(t)
}

// PaymentStatus — жизненный цикл оплаты:
// pending -> paid (инвойс оплачен) | confirmed (списание прошло) | problem (списание не прошло).
// Из problem автоматических переходов нет, статус меняет только оператор.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusConfirmed PaymentStatus = "confirmed"
	StatusProblem   PaymentStatus = "problem"
)

// Handled сообщает, считается ли оплата обработанной (проставляется paid_at).
func (s PaymentStatus) Handled() bool {
	switch s {
	case StatusPaid, StatusConfirmed:
		return true
	case StatusPending, StatusProblem:
		return false
	}
	return false
}

type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Symbol возвращает символ валюты; неизвестный код отображается как есть.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyRUB:
		return "₽"
	case CurrencyUSD:
		return "$"
	case CurrencyEUR:
		return "€"
	}
	return string(c)
}

// SymbolFirst: у USD/EUR символ пишется перед суммой ($49), у остальных после (49 ₽).
func (c Currency) SymbolFirst() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR:
		return true
	case CurrencyRUB:
		return false
	}
	return false
}

// Server — оплачиваемый сервер у хостера.
type Server struct {
	ID          uint   `gorm:"primaryKey"`
	Hoster      string `gorm:"index"`
	ServerName  string
	PaymentDay  int                 // номинальный день оплаты, 1–31
	PaymentType PaymentType         `gorm:"type:varchar(16)"`
	MonthlyCost decimal.NullDecimal `gorm:"type:numeric"` // NULL = стоимость не отслеживается
	Currency    Currency            `gorm:"type:varchar(8)"`
	Count       int                 `gorm:"default:1"` // несколько одинаковых серверов одним счётом
	IsActive    bool                `gorm:"default:true"`

	Payments []Payment `gorm:"constraint:OnDelete:CASCADE"`
}

// Payment — одна оплата сервера в конкретном месяце.
// Уникальность пары (server_id, due_date) — центральный инвариант генератора:
// повторная генерация за тот же день не создаёт дублей и не сбрасывает флаги.
type Payment struct {
	ID         uint          `gorm:"primaryKey"`
	ServerID   uint          `gorm:"uniqueIndex:idx_payments_server_due;not null"`
	DueDate    time.Time     `gorm:"type:date;uniqueIndex:idx_payments_server_due"`
	Status     PaymentStatus `gorm:"type:varchar(16);default:pending"`
	Notified3d bool          `gorm:"column:notified_3d;default:false"` // липкий флаг: уведомление за 3 дня уже отправлено
	Notified1d bool          `gorm:"column:notified_1d;default:false"` // липкий флаг: уведомление за 1 день отправлено
	PaidAt     *time.Time
}

// DuePayment — оплата вместе с данными сервера (JOIN для уведомлений и /upcoming).
// Плоская структура: колонки JOIN-а сканируются по snake_case имени поля.
type DuePayment struct {
	ID          uint
	ServerID    uint
	DueDate     time.Time
	Status      PaymentStatus
	Notified3d  bool `gorm:"column:notified_3d"`
	Notified1d  bool `gorm:"column:notified_1d"`
	PaidAt      *time.Time
	Hoster      string
	ServerName  string
	PaymentType PaymentType
	MonthlyCost decimal.NullDecimal
	Currency    Currency
	Count       int
}

// Setting — единичная настройка key/value (сейчас только notify_chat_id).
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// HosterCount — строка списка хостеров с числом активных серверов.
type HosterCount struct {
	Hoster string
	Count  int
}
