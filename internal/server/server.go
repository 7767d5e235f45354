// Пакет server — HTTP-сервер FitCheck Backend с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/smabadi/fitcheck/backend/internal/api/handlers"
	"github.com/smabadi/fitcheck/backend/internal/api/middleware"
	"github.com/smabadi/fitcheck/backend/internal/config"
)

// Server — HTTP-сервер FitCheck Backend.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(cfg.AllowedOrigins))
	}

	// Ops: без аутентификации, проверяются оркестратором напрямую
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	// Аутентификация админ-панели
	router.Route("/api/auth", func(r chi.Router) {
		// Брутфорс-защита: не более 10 попыток входа в минуту с одного IP
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", h.Login)
		r.With(jwtAuth.Middleware()).Get("/validate", h.Validate)
	})

	// Админ-панель: JWT + роль admin
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(jwtAuth.Middleware())
		r.Use(middleware.RequireAdmin())

		r.Get("/dashboard", h.Dashboard)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)

		r.Post("/sync-users", h.SyncUsers)

		r.Get("/settings", h.GetSettings)
		r.Post("/settings", h.UpdateSettings)
		r.Get("/settings/stream", h.StreamSettings)

		r.Get("/questions", h.ListQuestions)
		r.Post("/questions", h.CreateQuestion)
		r.Put("/questions/{id}", h.UpdateQuestion)
		r.Delete("/questions/{id}", h.DeleteQuestion)

		r.Get("/test-history", h.TestHistory)
		r.Get("/test-history/{id}/answers", h.ResultAnswers)
	})

	// Android-клиент: статический API-ключ
	router.Route("/api/android", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AndroidAPIKey, logger))

		r.Post("/login", h.AndroidLogin)
		r.Get("/questions", h.ListQuestions)

		r.Get("/settings", h.GetAndroidSettings)
		r.Post("/settings", h.UpdateAndroidSettings)
		r.Get("/settings/stream", h.StreamAndroidSettings)
		r.Get("/settings/ws", h.StreamAndroidSettingsWS)

		r.Post("/test-results", h.SubmitResult)
		r.Post("/user-answers", h.SubmitUserAnswers)
	})

	// Загрузка изображений: JWT + роль admin
	router.Route("/api/upload", func(r chi.Router) {
		r.Use(jwtAuth.Middleware())
		r.Use(middleware.RequireAdmin())

		r.Post("/image", h.UploadImage)
		r.Get("/images", h.ListImages)
		r.Delete("/images/{filename}", h.DeleteImage)
	})

	// Статика загруженных изображений
	router.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout не задаём: SSE и WebSocket держат соединение открытым
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// corsMiddleware выставляет CORS-заголовки для разрешённых Origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
