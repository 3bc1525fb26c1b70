package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpay-bot/internal/db"
)

func problemFixture(store *fakeStore) *db.Payment {
	srv := store.addServer(db.Server{
		Hoster:      "OVH",
		ServerName:  "db-1",
		PaymentType: db.PaymentTypeAuto,
		Currency:    db.CurrencyRUB,
		IsActive:    true,
	})
	return store.addPayment(db.Payment{
		ServerID:   srv.ID,
		DueDate:    date(2025, time.June, 1),
		Status:     db.StatusProblem,
		Notified3d: true,
		Notified1d: true,
	})
}

func TestRemindProblems_ResendsOnEveryRun(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	p := problemFixture(store)
	sender := &fakeSender{}

	// в отличие от липких порогов — напоминание шлётся на каждом запуске
	require.NoError(t, RemindProblems(store, sender))
	require.NoError(t, RemindProblems(store, sender))

	assert.Len(t, sender.sent, 2)
	assert.Equal(t, db.StatusProblem, p.Status, "статус никогда не меняется автоматически")
}

func TestRemindProblems_IgnoresNotifiedFlags(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	p := problemFixture(store)
	sender := &fakeSender{}

	require.NoError(t, RemindProblems(store, sender))

	assert.Len(t, sender.sent, 1, "выставленные пороговые флаги не подавляют напоминание")
	assert.True(t, p.Notified3d)
	assert.True(t, p.Notified1d)
}

func TestRemindProblems_SkipsInactiveServers(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	p := problemFixture(store)
	store.server(p.ServerID).IsActive = false
	sender := &fakeSender{}

	require.NoError(t, RemindProblems(store, sender))
	assert.Empty(t, sender.sent)
}

func TestRemindProblems_NoChatConfigured(t *testing.T) {
	store := newFakeStore()
	problemFixture(store)
	sender := &fakeSender{}

	require.NoError(t, RemindProblems(store, sender))
	assert.Empty(t, sender.sent)
}

func TestRemindProblems_DeliveryFailureContinues(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	problemFixture(store)
	problemFixture(store)
	sender := &fakeSender{failCount: 1}

	require.NoError(t, RemindProblems(store, sender))
	assert.Len(t, sender.sent, 1, "ошибка по одному напоминанию не прерывает остальные")
}
