package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store — явный клиент БД. Создаётся один раз в main и передаётся
// компонентам при конструировании; глобального состояния нет.
type Store struct {
	g *gorm.DB
}

// New открывает соединение с Postgres и накатывает схему.
func New(dsn string) (*Store, error) {
	g, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := g.AutoMigrate(&Server{}, &Payment{}, &Setting{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{g: g}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping проверяет соединение (для /ready).
func (s *Store) Ping() error {
	sqlDB, err := s.g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// --- Серверы ---------------------------------------------------------------

func (s *Store) AddServer(srv *Server) error {
	return s.g.Create(srv).Error
}

func (s *Store) GetServer(id uint) (*Server, error) {
	var srv Server
	if err := s.g.First(&srv, id).Error; err != nil {
		return nil, err
	}
	return &srv, nil
}

func (s *Store) ListActiveServers() ([]Server, error) {
	var servers []Server
	err := s.g.Where("is_active = TRUE").
		Order("hoster, server_name").
		Find(&servers).Error
	return servers, err
}

func (s *Store) ListHosters() ([]HosterCount, error) {
	var hosters []HosterCount
	err := s.g.Model(&Server{}).
		Select("hoster, COUNT(*) AS count").
		Where("is_active = TRUE").
		Group("hoster").
		Order("hoster").
		Scan(&hosters).Error
	return hosters, err
}

func (s *Store) ListServersByHoster(hoster string) ([]Server, error) {
	var servers []Server
	err := s.g.Where("hoster = ? AND is_active = TRUE", hoster).
		Order("server_name").
		Find(&servers).Error
	return servers, err
}

// DeleteServer удаляет сервер вместе со всеми его оплатами.
func (s *Store) DeleteServer(id uint) (bool, error) {
	var deleted bool
	err := s.g.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("server_id = ?", id).Delete(&Payment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Server{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// SetServerActive включает/выключает сервер. Неактивный сервер не участвует
// ни в генерации, ни в уведомлениях, его история оплат остаётся нетронутой.
func (s *Store) SetServerActive(id uint, active bool) error {
	return s.g.Model(&Server{}).Where("id = ?", id).
		Update("is_active", active).Error
}

// --- Оплаты ----------------------------------------------------------------

// EnsurePayment создаёт оплату за (server_id, due_date), если её ещё нет.
// При конфликте существующая строка не трогается: статус и липкие флаги
// переживают повторные запуски генератора.
func (s *Store) EnsurePayment(serverID uint, dueDate time.Time) (Payment, error) {
	p := Payment{ServerID: serverID, DueDate: dueDate, Status: StatusPending}
	err := s.g.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "server_id"}, {Name: "due_date"}},
		DoNothing: true,
	}).Create(&p).Error
	if err != nil {
		return Payment{}, fmt.Errorf("ensure payment server=%d: %w", serverID, err)
	}
	// при DO NOTHING Create не возвращает строку — перечитываем по ключу
	err = s.g.Where("server_id = ? AND due_date = ?", serverID, dueDate).
		First(&p).Error
	if err != nil {
		return Payment{}, fmt.Errorf("fetch payment server=%d: %w", serverID, err)
	}
	return p, nil
}

func (s *Store) GetPayment(id uint) (*Payment, error) {
	var p Payment
	if err := s.g.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// markUpdates — поля смены статуса: paid_at проставляется только для
// закрытых статусов, любой другой переход его сбрасывает.
func markUpdates(status PaymentStatus, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"status": status, "paid_at": nil}
	if status.Handled() {
		updates["paid_at"] = now
	}
	return updates
}

// MarkPayment выставляет статус оплаты. Переход в paid/confirmed проставляет
// paid_at, любой другой статус его сбрасывает. Повторное применение того же
// статуса не ошибка (последняя запись выигрывает).
func (s *Store) MarkPayment(id uint, status PaymentStatus) (*Payment, error) {
	res := s.g.Model(&Payment{}).Where("id = ?", id).Updates(markUpdates(status, time.Now()))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetPayment(id)
}

// SetNotified поднимает липкий флаг порога (3 или 1 день). Флаг назад не
// опускается.
func (s *Store) SetNotified(id uint, days int) error {
	col := "notified_1d"
	if days == 3 {
		col = "notified_3d"
	}
	return s.g.Model(&Payment{}).Where("id = ?", id).
		Update(col, true).Error
}

const duePaymentColumns = "payments.id, payments.server_id, payments.due_date, " +
	"payments.status, payments.notified_3d, payments.notified_1d, payments.paid_at, " +
	"servers.hoster, servers.server_name, servers.payment_type, " +
	"servers.monthly_cost, servers.currency, servers.count"

// PendingNotifications возвращает ожидающие оплаты активных серверов со
// сроком в окне [from, to] включительно.
func (s *Store) PendingNotifications(from, to time.Time) ([]DuePayment, error) {
	var out []DuePayment
	err := s.g.Table("payments").
		Select(duePaymentColumns).
		Joins("JOIN servers ON servers.id = payments.server_id").
		Where("payments.status = ? AND servers.is_active = TRUE", StatusPending).
		Where("payments.due_date BETWEEN ? AND ?", from, to).
		Order("payments.due_date").
		Scan(&out).Error
	return out, err
}

// ProblemPayments возвращает все проблемные оплаты активных серверов,
// без фильтра по дате и флагам — повторное напоминание шлётся всегда.
func (s *Store) ProblemPayments() ([]DuePayment, error) {
	var out []DuePayment
	err := s.g.Table("payments").
		Select(duePaymentColumns).
		Joins("JOIN servers ON servers.id = payments.server_id").
		Where("payments.status = ? AND servers.is_active = TRUE", StatusProblem).
		Order("payments.due_date").
		Scan(&out).Error
	return out, err
}

// Stats — сводка для /admin_stats.
type Stats struct {
	ActiveServers    int64
	PendingPayments  int64
	ProblemPayments  int64
	HandledThisMonth int64
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.g.Model(&Server{}).Where("is_active = TRUE").
		Count(&st.ActiveServers).Error; err != nil {
		return st, err
	}
	if err := s.g.Model(&Payment{}).Where("status = ?", StatusPending).
		Count(&st.PendingPayments).Error; err != nil {
		return st, err
	}
	if err := s.g.Model(&Payment{}).Where("status = ?", StatusProblem).
		Count(&st.ProblemPayments).Error; err != nil {
		return st, err
	}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if err := s.g.Model(&Payment{}).
		Where("status IN ? AND paid_at >= ?", []PaymentStatus{StatusPaid, StatusConfirmed}, monthStart).
		Count(&st.HandledThisMonth).Error; err != nil {
		return st, err
	}
	return st, nil
}

// --- Настройки -------------------------------------------------------------

// GetSetting возвращает значение настройки или "" если ключ не задан.
func (s *Store) GetSetting(key string) (string, error) {
	var setting Setting
	err := s.g.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *Store) SetSetting(key, value string) error {
	return s.g.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}
