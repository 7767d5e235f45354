// dashboard.go — сервис агрегатов для админской панели.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// Размер «последних» списков дашборда.
const dashboardRecentLimit = 5

// DashboardStats — агрегированная сводка для главной страницы админки.
type DashboardStats struct {
	TotalUsers       int
	TotalTests       int
	ActiveQuestions  int
	SuccessRate      float64
	RecentUsers      []model.User
	RecentResults    []model.TestResult
	RecentActivities []model.ActivityEntry
}

// DashboardService — чтение агрегатов. Только чтение, без мутаций.
type DashboardService struct {
	users        repository.UserRepository
	results      repository.ResultRepository
	questions    repository.QuestionRepository
	activityRepo repository.ActivityLogRepository
	settings     *SettingsService
	logger       *slog.Logger
}

// NewDashboardService создаёт сервис дашборда.
func NewDashboardService(
	users repository.UserRepository,
	results repository.ResultRepository,
	questions repository.QuestionRepository,
	activityRepo repository.ActivityLogRepository,
	settings *SettingsService,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		users:        users,
		results:      results,
		questions:    questions,
		activityRepo: activityRepo,
		settings:     settings,
		logger:       logger.With(slog.String("component", "dashboard")),
	}
}

// Stats собирает сводку. Запросы последовательные: страница одна,
// обращений мало, параллелизм здесь не окупается.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	passingScore, err := s.settings.PassingScore(ctx)
	if err != nil {
		return nil, err
	}

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("количество пользователей: %w", err)
	}
	totalTests, err := s.results.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("количество тестов: %w", err)
	}
	activeQuestions, err := s.questions.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("количество вопросов: %w", err)
	}
	passed, err := s.results.CountPassed(ctx, passingScore)
	if err != nil {
		return nil, fmt.Errorf("количество успешных тестов: %w", err)
	}

	recentUsers, err := s.users.Recent(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("последние пользователи: %w", err)
	}
	recentResults, err := s.results.Recent(ctx, dashboardRecentLimit, passingScore)
	if err != nil {
		return nil, fmt.Errorf("последние результаты: %w", err)
	}
	recentActivities, err := s.activityRepo.ListRecent(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("последние события: %w", err)
	}

	stats := &DashboardStats{
		TotalUsers:       totalUsers,
		TotalTests:       totalTests,
		ActiveQuestions:  activeQuestions,
		RecentUsers:      recentUsers,
		RecentResults:    recentResults,
		RecentActivities: recentActivities,
	}
	if totalTests > 0 {
		stats.SuccessRate = float64(passed) / float64(totalTests) * 100
	}
	return stats, nil
}
