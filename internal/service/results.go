// results.go — сервис результатов тестирования.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// ResultsService — бизнес-логика сохранения и чтения результатов.
// Статус Fit/Unfit всегда вычисляется относительно текущего проходного
// балла, а не зафиксированного на момент сдачи.
type ResultsService struct {
	repo     repository.ResultRepository
	users    repository.UserRepository
	settings *SettingsService
	logger   *slog.Logger
}

// NewResultsService создаёт сервис результатов.
func NewResultsService(
	repo repository.ResultRepository,
	users repository.UserRepository,
	settings *SettingsService,
	logger *slog.Logger,
) *ResultsService {
	return &ResultsService{
		repo:     repo,
		users:    users,
		settings: settings,
		logger:   logger.With(slog.String("component", "results")),
	}
}

// Submit сохраняет результат теста. Пользователь может сдать тест
// не более одного раза в сутки (по серверной дате).
func (s *ResultsService) Submit(ctx context.Context, result *model.TestResult) (*model.TestResult, error) {
	if result.UserID <= 0 {
		return nil, fmt.Errorf("%w: не указан пользователь", ErrValidation)
	}
	if result.AssessmentScore < 0 || result.TotalScore < 0 {
		return nil, fmt.Errorf("%w: баллы не могут быть отрицательными", ErrValidation)
	}
	for i, score := range result.MinigameScores {
		if score < 0 {
			return nil, fmt.Errorf("%w: балл мини-игры %d не может быть отрицательным", ErrValidation, i+1)
		}
	}

	if _, err := s.users.GetByID(ctx, result.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("проверка пользователя: %w", err)
	}

	already, err := s.repo.HasResultToday(ctx, result.UserID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("%w: тест за сегодня уже сдан", ErrConflict)
	}

	if err := s.repo.Insert(ctx, result); err != nil {
		return nil, fmt.Errorf("сохранение результата: %w", err)
	}

	s.logger.Info("Результат теста сохранён",
		slog.Int("result_id", result.ID),
		slog.Int("user_id", result.UserID),
		slog.Int("total_score", result.TotalScore),
	)
	return result, nil
}

// SubmitAnswers сохраняет ответы пользователя для результата.
// Текст вопроса денормализуется в момент записи.
func (s *ResultsService) SubmitAnswers(ctx context.Context, resultID int, answers []model.UserAnswer) (int, error) {
	if resultID <= 0 {
		return 0, fmt.Errorf("%w: не указан результат", ErrValidation)
	}
	if len(answers) == 0 {
		return 0, fmt.Errorf("%w: пустой список ответов", ErrValidation)
	}
	for i := range answers {
		answers[i].ResultID = resultID
	}

	if err := s.repo.InsertAnswers(ctx, answers); err != nil {
		return 0, fmt.Errorf("сохранение ответов: %w", err)
	}

	s.logger.Info("Ответы пользователя сохранены",
		slog.Int("result_id", resultID),
		slog.Int("answers", len(answers)),
	)
	return len(answers), nil
}

// History возвращает страницу истории с Fit/Unfit статусом
// относительно текущего проходного балла.
func (s *ResultsService) History(ctx context.Context, filter repository.HistoryFilter) ([]model.TestResult, int, error) {
	passingScore, err := s.settings.PassingScore(ctx)
	if err != nil {
		return nil, 0, err
	}

	results, total, err := s.repo.History(ctx, filter, passingScore)
	if err != nil {
		return nil, 0, fmt.Errorf("история тестов: %w", err)
	}
	return results, total, nil
}

// Answers возвращает ответы пользователя по результату теста.
func (s *ResultsService) Answers(ctx context.Context, resultID int) ([]model.UserAnswer, error) {
	answers, err := s.repo.AnswersByResult(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("ответы результата %d: %w", resultID, err)
	}
	return answers, nil
}
