// Точка входа FitCheck Backend — сервер платформы ассессмента.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт репозитории, сервисный слой, hub рассылки настроек и API handlers,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/smabadi/fitcheck/backend/internal/api/handlers"
	"github.com/smabadi/fitcheck/backend/internal/api/middleware"
	"github.com/smabadi/fitcheck/backend/internal/broadcast"
	"github.com/smabadi/fitcheck/backend/internal/config"
	"github.com/smabadi/fitcheck/backend/internal/database"
	"github.com/smabadi/fitcheck/backend/internal/hrclient"
	"github.com/smabadi/fitcheck/backend/internal/repository"
	"github.com/smabadi/fitcheck/backend/internal/server"
	"github.com/smabadi/fitcheck/backend/internal/service"
)

func main() {
	// 0. .env для локальной разработки; в проде переменные задаёт окружение
	_ = godotenv.Load()

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("FitCheck Backend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Repositories
	txRunner := repository.NewTxRunner(pool)
	userRepo := repository.NewUserRepository(pool, txRunner)
	settingsRepo := repository.NewSettingsRepository(pool, txRunner)
	activityRepo := repository.NewActivityLogRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool, txRunner)
	resultRepo := repository.NewResultRepository(pool, txRunner)

	// 6. Hub рассылки настроек (владелец — composition root)
	hub := broadcast.NewHub(logger)

	// 7. HR API клиент
	hrClient := hrclient.New(cfg.HRAPIURL, cfg.HRTimeout, logger)

	// 8. Services
	settingsSvc := service.NewSettingsService(settingsRepo, activityRepo, hub, logger)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpire, logger)
	usersSvc := service.NewUsersService(userRepo, activityRepo, logger)
	questionsSvc := service.NewQuestionsService(questionRepo, activityRepo, logger)
	resultsSvc := service.NewResultsService(resultRepo, userRepo, settingsSvc, logger)
	dashboardSvc := service.NewDashboardService(userRepo, resultRepo, questionRepo, activityRepo, settingsSvc, logger)
	hrSyncSvc := service.NewHRSyncService(hrClient, userRepo, activityRepo, cfg.HRSyncChunkSize, logger)

	// 9. Readiness checker и health handler
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		authSvc,
		usersSvc,
		settingsSvc,
		questionsSvc,
		resultsSvc,
		dashboardSvc,
		hrSyncSvc,
		hub,
		cfg,
		logger,
	)

	// 11. JWT middleware
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, logger)

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("FitCheck Backend остановлен")
}
