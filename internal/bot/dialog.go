package bot

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"hostpay-bot/internal/db"
)

// Шаги диалога /add. Диалог ведётся по одному на чат, состояние живёт в
// памяти процесса: при рестарте оператор просто начинает /add заново.
type addStep int

const (
	stepHosterSelect addStep = iota // выбор хостера кнопкой или «новый»
	stepHosterNew                   // ввод названия нового хостера
	stepServerName
	stepPaymentDay
	stepPaymentType
	stepMonthlyCost
	stepCount
	stepCurrency
)

type addDraft struct {
	Step        addStep
	Hoster      string
	ServerName  string
	PaymentDay  int
	PaymentType db.PaymentType
	MonthlyCost decimal.NullDecimal
	Count       int
}

type dialogManager struct {
	mu     sync.Mutex
	drafts map[int64]*addDraft
}

func newDialogManager() *dialogManager {
	return &dialogManager{drafts: make(map[int64]*addDraft)}
}

func (d *dialogManager) start(chatID int64, step addStep) *addDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft := &addDraft{Step: step, Count: 1}
	d.drafts[chatID] = draft
	return draft
}

func (d *dialogManager) get(chatID int64) *addDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drafts[chatID]
}

func (d *dialogManager) clear(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.drafts[chatID]
	delete(d.drafts, chatID)
	return ok
}

// --- Валидация шагов --------------------------------------------------------

var (
	errBadDay   = errors.New("payment day must be 1..31")
	errBadCost  = errors.New("cost must be a non-negative number")
	errBadCount = errors.New("count must be a positive integer")
)

func parsePaymentDay(s string) (int, error) {
	day, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || day < 1 || day > 31 {
		return 0, errBadDay
	}
	return day, nil
}

// parseMonthlyCost принимает запятую как десятичный разделитель;
// ноль означает «стоимость неизвестна» и сохраняется как NULL.
func parseMonthlyCost(s string) (decimal.NullDecimal, error) {
	text := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	cost, err := decimal.NewFromString(text)
	if err != nil || cost.IsNegative() {
		return decimal.NullDecimal{}, errBadCost
	}
	if cost.IsZero() {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{Decimal: cost, Valid: true}, nil
}

func parseCount(s string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || count < 1 {
		return 0, errBadCount
	}
	return count, nil
}
