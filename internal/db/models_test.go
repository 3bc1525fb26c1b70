package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrencySymbols(t *testing.T) {
	assert.Equal(t, "₽", CurrencyRUB.Symbol())
	assert.Equal(t, "$", CurrencyUSD.Symbol())
	assert.Equal(t, "€", CurrencyEUR.Symbol())
	// неизвестный код валюты — символ совпадает с кодом
	assert.Equal(t, "GBP", Currency("GBP").Symbol())

	assert.True(t, CurrencyUSD.SymbolFirst())
	assert.True(t, CurrencyEUR.SymbolFirst())
	assert.False(t, CurrencyRUB.SymbolFirst())
	assert.False(t, Currency("GBP").SymbolFirst())
}

func TestPaymentStatusHandled(t *testing.T) {
	assert.True(t, StatusPaid.Handled())
	assert.True(t, StatusConfirmed.Handled())
	assert.False(t, StatusPending.Handled())
	assert.False(t, StatusProblem.Handled(), "problem не терминальный, paid_at не ставится")
}

func TestMarkUpdates(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// paid/confirmed закрывают оплату и фиксируют момент
	for _, status := range []PaymentStatus{StatusPaid, StatusConfirmed} {
		u := markUpdates(status, now)
		assert.Equal(t, status, u["status"])
		assert.Equal(t, now, u["paid_at"])
	}

	// возврат в pending/problem сбрасывает paid_at
	for _, status := range []PaymentStatus{StatusPending, StatusProblem} {
		u := markUpdates(status, now)
		assert.Equal(t, status, u["status"])
		assert.Nil(t, u["paid_at"])
	}
}

func TestPaymentTypeLabel(t *testing.T) {
	assert.Equal(t, "Инвойс", PaymentTypeInvoice.Label())
	assert.Equal(t, "Автосписание", PaymentTypeAuto.Label())
}
