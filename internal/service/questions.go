// questions.go — сервис вопросов ассессмента.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// QuestionsService — бизнес-логика вопросов и вариантов ответов.
type QuestionsService struct {
	repo         repository.QuestionRepository
	activityRepo repository.ActivityLogRepository
	logger       *slog.Logger
}

// NewQuestionsService создаёт сервис вопросов.
func NewQuestionsService(repo repository.QuestionRepository, activityRepo repository.ActivityLogRepository, logger *slog.Logger) *QuestionsService {
	return &QuestionsService{
		repo:         repo,
		activityRepo: activityRepo,
		logger:       logger.With(slog.String("component", "questions")),
	}
}

// ListActive возвращает активные вопросы с вариантами ответов.
func (s *QuestionsService) ListActive(ctx context.Context) ([]model.Question, error) {
	questions, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("список вопросов: %w", err)
	}
	return questions, nil
}

// Get возвращает вопрос по id.
func (s *QuestionsService) Get(ctx context.Context, id int) (*model.Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение вопроса: %w", err)
	}
	return q, nil
}

// Create создаёт вопрос с вариантами ответов.
func (s *QuestionsService) Create(ctx context.Context, text string, answers []model.Answer, actor *model.User) (*model.Question, error) {
	if err := validateQuestion(text, answers); err != nil {
		return nil, err
	}

	q := &model.Question{Text: strings.TrimSpace(text), IsActive: true, Answers: answers}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("создание вопроса: %w", err)
	}

	s.logger.Info("Вопрос создан", slog.Int("id", q.ID))
	s.logActivity(ctx, model.ActivityQuestionCreated,
		fmt.Sprintf("Создан вопрос #%d", q.ID), actor)
	return q, nil
}

// Update обновляет текст вопроса и заменяет варианты ответов.
func (s *QuestionsService) Update(ctx context.Context, id int, text string, answers []model.Answer, actor *model.User) (*model.Question, error) {
	if err := validateQuestion(text, answers); err != nil {
		return nil, err
	}

	q := &model.Question{ID: id, Text: strings.TrimSpace(text), Answers: answers}
	if err := s.repo.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление вопроса: %w", err)
	}

	s.logger.Info("Вопрос обновлён", slog.Int("id", id))
	s.logActivity(ctx, model.ActivityQuestionUpdated,
		fmt.Sprintf("Обновлён вопрос #%d", id), actor)
	return s.Get(ctx, id)
}

// Delete — мягкое удаление: вопрос скрывается, история ответов сохраняется.
func (s *QuestionsService) Delete(ctx context.Context, id int, actor *model.User) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление вопроса: %w", err)
	}

	s.logger.Info("Вопрос деактивирован", slog.Int("id", id))
	s.logActivity(ctx, model.ActivityQuestionDeleted,
		fmt.Sprintf("Удалён вопрос #%d", id), actor)
	return nil
}

func validateQuestion(text string, answers []model.Answer) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: текст вопроса обязателен", ErrValidation)
	}
	if len(answers) < 2 {
		return fmt.Errorf("%w: вопросу требуется минимум два варианта ответа", ErrValidation)
	}
	for _, a := range answers {
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("%w: текст варианта ответа обязателен", ErrValidation)
		}
		if a.Score < 0 {
			return fmt.Errorf("%w: балл варианта не может быть отрицательным", ErrValidation)
		}
	}
	return nil
}

func (s *QuestionsService) logActivity(ctx context.Context, activityType, description string, actor *model.User) {
	var actorID *int
	if actor != nil {
		actorID = &actor.ID
	}
	if err := s.activityRepo.Insert(ctx, activityType, description, actorID); err != nil {
		s.logger.Warn("Ошибка записи в журнал активности", slog.String("error", err.Error()))
	}
}
