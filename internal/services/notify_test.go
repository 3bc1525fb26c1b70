package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpay-bot/internal/db"
)

const testChat = "-100200300"

func pendingFixture(store *fakeStore, due time.Time) *db.Payment {
	srv := store.addServer(db.Server{
		Hoster:      "Hetzner",
		ServerName:  "web-1",
		PaymentDay:  due.Day(),
		PaymentType: db.PaymentTypeInvoice,
		Currency:    db.CurrencyEUR,
		IsActive:    true,
	})
	return store.addPayment(db.Payment{ServerID: srv.ID, DueDate: due})
}

func TestDispatch_ThreeDayNoticeFiresExactlyOnce(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today.AddDate(0, 0, 3))
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))

	require.Len(t, sender.sent, 1)
	assert.True(t, p.Notified3d)
	assert.False(t, p.Notified1d)

	// повторный запуск в тот же день — флаг липкий, новых отправок нет
	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))
	assert.Len(t, sender.sent, 1)
}

func TestDispatch_OneDayNoticeOnly(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today.AddDate(0, 0, 1))
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))

	require.Len(t, sender.sent, 1)
	assert.True(t, p.Notified1d, "срабатывает только однодневный порог")
	assert.False(t, p.Notified3d, "трёхдневная ветка не срабатывает задним числом")
}

func TestDispatch_DueTodayFiresOneDayBranch(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today)
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))

	assert.Len(t, sender.sent, 1)
	assert.True(t, p.Notified1d)
}

func TestDispatch_AlreadyNotifiedStaysSilent(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today.AddDate(0, 0, 1))
	p.Notified1d = true
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))
	assert.Empty(t, sender.sent)
}

func TestDispatch_NoChatConfigured(t *testing.T) {
	store := newFakeStore() // notify_chat_id не задан
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today.AddDate(0, 0, 3))
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))

	assert.Empty(t, sender.sent, "без настройки чата рассылка — тихий no-op")
	assert.False(t, p.Notified3d, "флаги не поднимаются, уведомление не теряется")
}

func TestDispatch_SendFailureRetriedNextRun(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today.AddDate(0, 0, 3))
	sender := &fakeSender{failCount: 1}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))
	assert.False(t, p.Notified3d, "флаг не поднимается при ошибке доставки")
	assert.Empty(t, sender.sent)

	// следующий запуск — доставка восстановилась
	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))
	assert.Len(t, sender.sent, 1)
	assert.True(t, p.Notified3d)
}

func TestDispatch_FailureDoesNotAbortPass(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	first := pendingFixture(store, today.AddDate(0, 0, 3))
	second := pendingFixture(store, today.AddDate(0, 0, 3))
	sender := &fakeSender{failCount: 1}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))

	assert.Len(t, sender.sent, 1, "ошибка по одной оплате не прерывает проход")
	assert.False(t, first.Notified3d)
	assert.True(t, second.Notified3d)
}

func TestDispatch_IgnoresInactiveServers(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	p := pendingFixture(store, today.AddDate(0, 0, 3))
	store.server(p.ServerID).IsActive = false
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))

	assert.Empty(t, sender.sent)
	assert.False(t, p.Notified3d, "история неактивного сервера не трогается")
}

func TestDispatch_TwoDaysLeftIsQuiet(t *testing.T) {
	store := newFakeStore().withChat(testChat)
	today := date(2025, time.June, 10)
	pendingFixture(store, today.AddDate(0, 0, 2))
	sender := &fakeSender{}

	require.NoError(t, DispatchDueNotifications(store, sender, today, 3))
	assert.Empty(t, sender.sent, "между порогами уведомлений нет")
}
