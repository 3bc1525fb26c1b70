package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpay-bot/internal/db"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDateFor_RegularDay(t *testing.T) {
	due := DueDateFor(date(2025, time.March, 5), 20)
	assert.Equal(t, date(2025, time.March, 20), due)
}

func TestDueDateFor_ClampsShortMonths(t *testing.T) {
	// 31-е число прижимается к концу месяца
	assert.Equal(t, date(2025, time.February, 28), DueDateFor(date(2025, time.February, 10), 31))
	assert.Equal(t, date(2024, time.February, 29), DueDateFor(date(2024, time.February, 10), 31)) // високосный год
	assert.Equal(t, date(2025, time.April, 30), DueDateFor(date(2025, time.April, 1), 31))
}

func TestGeneratePayments_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.addServer(db.Server{Hoster: "Hetzner", ServerName: "web-1", PaymentDay: 15, IsActive: true})
	store.addServer(db.Server{Hoster: "OVH", ServerName: "db-1", PaymentDay: 31, IsActive: true})
	today := date(2025, time.June, 10)

	require.NoError(t, GeneratePayments(store, today))
	require.NoError(t, GeneratePayments(store, today))

	assert.Len(t, store.payments, 2, "повторная генерация не создаёт дублей")
}

func TestGeneratePayments_PreservesHandledPayments(t *testing.T) {
	store := newFakeStore()
	srv := store.addServer(db.Server{ServerName: "web-1", PaymentDay: 15, IsActive: true})
	today := date(2025, time.June, 1)

	require.NoError(t, GeneratePayments(store, today))

	// оператор обработал оплату и получил уведомление
	store.payments[0].Status = db.StatusPaid
	store.payments[0].Notified3d = true

	require.NoError(t, GeneratePayments(store, today))

	require.Len(t, store.payments, 1)
	assert.Equal(t, db.StatusPaid, store.payments[0].Status, "статус не сбрасывается")
	assert.True(t, store.payments[0].Notified3d, "липкий флаг переживает генерацию")
	assert.Equal(t, srv.ID, store.payments[0].ServerID)
}

func TestGeneratePayments_SkipsInactiveServers(t *testing.T) {
	store := newFakeStore()
	store.addServer(db.Server{ServerName: "old", PaymentDay: 10, IsActive: false})
	store.addServer(db.Server{ServerName: "new", PaymentDay: 10, IsActive: true})

	require.NoError(t, GeneratePayments(store, date(2025, time.June, 1)))

	require.Len(t, store.payments, 1)
	assert.Equal(t, uint(2), store.payments[0].ServerID)
}

func TestGeneratePayments_PropagatesStorageError(t *testing.T) {
	store := newFakeStore()
	store.addServer(db.Server{ServerName: "web-1", PaymentDay: 10, IsActive: true})
	store.ensureErr = assert.AnError

	err := GeneratePayments(store, date(2025, time.June, 1))
	assert.Error(t, err)
}
