package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hostpay-bot/internal/logger"
)

// Pinger проверяет доступность хранилища. *db.Store реализует интерфейс.
type Pinger interface {
	Ping() error
}

// HealthRouter — HTTP-эндпоинты живости для хостинга/мониторинга:
// /health отвечает всегда, /ready — только при доступной БД.
func HealthRouter(store Pinger) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := store.Ping(); err != nil {
			logger.Error("readiness probe failed", zap.Error(err))
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// StartHealthServer поднимает health-сервер в фоне.
func StartHealthServer(addr string, store Pinger) {
	go func() {
		logger.Info("health server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, HealthRouter(store)); err != nil {
			logger.Error("health server stopped", zap.Error(err))
		}
	}()
}
