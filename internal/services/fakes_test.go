package services

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hostpay-bot/internal/db"
)

// fakeStore — хранилище в памяти для тестов задач планировщика.
type fakeStore struct {
	servers  []db.Server
	payments []*db.Payment
	settings map[string]string
	nextID   uint

	ensureErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[string]string)}
}

func (f *fakeStore) withChat(chatID string) *fakeStore {
	f.settings[SettingNotifyChat] = chatID
	return f
}

func (f *fakeStore) addServer(srv db.Server) db.Server {
	f.nextID++
	srv.ID = f.nextID
	if srv.Count == 0 {
		srv.Count = 1
	}
	f.servers = append(f.servers, srv)
	return srv
}

func (f *fakeStore) addPayment(p db.Payment) *db.Payment {
	f.nextID++
	p.ID = f.nextID
	if p.Status == "" {
		p.Status = db.StatusPending
	}
	cp := p
	f.payments = append(f.payments, &cp)
	return &cp
}

func (f *fakeStore) server(id uint) *db.Server {
	for i := range f.servers {
		if f.servers[i].ID == id {
			return &f.servers[i]
		}
	}
	return nil
}

func (f *fakeStore) ListActiveServers() ([]db.Server, error) {
	var out []db.Server
	for _, s := range f.servers {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) EnsurePayment(serverID uint, dueDate time.Time) (db.Payment, error) {
	if f.ensureErr != nil {
		return db.Payment{}, f.ensureErr
	}
	for _, p := range f.payments {
		if p.ServerID == serverID && p.DueDate.Equal(dueDate) {
			return *p, nil
		}
	}
	p := f.addPayment(db.Payment{ServerID: serverID, DueDate: dueDate})
	return *p, nil
}

func (f *fakeStore) joined(p *db.Payment) (db.DuePayment, bool) {
	srv := f.server(p.ServerID)
	if srv == nil || !srv.IsActive {
		return db.DuePayment{}, false
	}
	return db.DuePayment{
		ID:          p.ID,
		ServerID:    p.ServerID,
		DueDate:     p.DueDate,
		Status:      p.Status,
		Notified3d:  p.Notified3d,
		Notified1d:  p.Notified1d,
		PaidAt:      p.PaidAt,
		Hoster:      srv.Hoster,
		ServerName:  srv.ServerName,
		PaymentType: srv.PaymentType,
		MonthlyCost: srv.MonthlyCost,
		Currency:    srv.Currency,
		Count:       srv.Count,
	}, true
}

func (f *fakeStore) PendingNotifications(from, to time.Time) ([]db.DuePayment, error) {
	var out []db.DuePayment
	for _, p := range f.payments {
		if p.Status != db.StatusPending {
			continue
		}
		if p.DueDate.Before(from) || p.DueDate.After(to) {
			continue
		}
		if dp, ok := f.joined(p); ok {
			out = append(out, dp)
		}
	}
	return out, nil
}

func (f *fakeStore) ProblemPayments() ([]db.DuePayment, error) {
	var out []db.DuePayment
	for _, p := range f.payments {
		if p.Status != db.StatusProblem {
			continue
		}
		if dp, ok := f.joined(p); ok {
			out = append(out, dp)
		}
	}
	return out, nil
}

func (f *fakeStore) SetNotified(id uint, days int) error {
	for _, p := range f.payments {
		if p.ID == id {
			if days == 3 {
				p.Notified3d = true
			} else {
				p.Notified1d = true
			}
			return nil
		}
	}
	return errors.New("payment not found")
}

func (f *fakeStore) GetSetting(key string) (string, error) {
	return f.settings[key], nil
}

// fakeSender записывает отправленные сообщения; первые failCount отправок
// завершаются ошибкой.
type fakeSender struct {
	sent      []tgbotapi.MessageConfig
	failCount int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.failCount > 0 {
		f.failCount--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}
