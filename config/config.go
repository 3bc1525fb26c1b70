package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	BotToken    string
	DatabaseURL string
	AdminIDs    []int64
}

var AppCfg AppConfig

// LoadConfig читает секреты из .env / окружения. Без токена и БД бот не работает.
func LoadConfig() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	AppCfg.BotToken = os.Getenv("BOT_TOKEN")
	AppCfg.DatabaseURL = os.Getenv("DATABASE_URL")
	AppCfg.AdminIDs = parseAdminIDs(os.Getenv("ADMIN_IDS"))

	if AppCfg.BotToken == "" || AppCfg.DatabaseURL == "" {
		log.Fatal("Critical environment variables are missing. Bot will exit.")
	}
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("ADMIN_IDS: skipping invalid id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Schedule — несекретные настройки расписания и сервиса (config.yaml).
type Schedule struct {
	Timezone       string `yaml:"timezone"`         // таймзона всех дат и cron-задач
	DailyHour      int    `yaml:"daily_hour"`       // час ежедневной проверки оплат
	DailyMinute    int    `yaml:"daily_minute"`     // минута ежедневной проверки
	ProblemHours   int    `yaml:"problem_hours"`    // интервал напоминаний о проблемных оплатах
	LookaheadDays  int    `yaml:"lookahead_days"`   // окно уведомлений, дней вперёд
	UpcomingDays   int    `yaml:"upcoming_days"`    // горизонт команды /upcoming
	HealthAddr     string `yaml:"health_addr"`      // адрес HTTP-сервера health-проверок
	BackupDir      string `yaml:"backup_dir"`       // каталог дампов БД
	BackupKeepDays int    `yaml:"backup_keep_days"` // сколько дней хранить дампы
}

// DefaultSchedule — значения по умолчанию: проверка в 9:00 МСК,
// напоминания о проблемах каждые 12 часов, окно уведомлений 3 дня.
func DefaultSchedule() Schedule {
	return Schedule{
		Timezone:       "Europe/Moscow",
		DailyHour:      9,
		DailyMinute:    0,
		ProblemHours:   12,
		LookaheadDays:  3,
		UpcomingDays:   14,
		HealthAddr:     ":8080",
		BackupDir:      "backups",
		BackupKeepDays: 60,
	}
}

// LoadSchedule читает config.yaml; отсутствие файла не ошибка — берём дефолты.
func LoadSchedule(path string) (Schedule, error) {
	sched := DefaultSchedule()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("%s not found, using default schedule", path)
		return sched, nil
	}
	if err != nil {
		return sched, err
	}
	if err := yaml.Unmarshal(data, &sched); err != nil {
		return sched, err
	}
	return sched, nil
}
