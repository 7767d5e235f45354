// settings.go — сервис настроек приложения.
//
// Настройки хранятся в app_settings как строки и декодируются в типизированную
// карту по закрытой схеме: каждый известный ключ имеет тип и диапазон,
// неизвестные ключи отклоняются (без тихого угадывания). Отсутствующие ключи
// берутся из зашитых значений по умолчанию.
//
// Update принимает оба соглашения об именовании (Android и backend):
// входной объект прогоняется через translate.ToInternal, после чего
// валидируется, пишется одной транзакцией и рассылается подписчикам Hub.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/smabadi/fitcheck/backend/internal/broadcast"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
	"github.com/smabadi/fitcheck/backend/internal/translate"
)

// Виды значений настроек.
type settingKind int

const (
	kindBool settingKind = iota
	kindInt
)

// settingSpec — тип и допустимый диапазон одного ключа схемы.
type settingSpec struct {
	kind settingKind
	min  int
	max  int
}

// settingsSchema — закрытая схема настроек (backend-именование).
// Диапазоны соответствуют валидации админского API.
var settingsSchema = map[string]settingSpec{
	"minimum_passing_score": {kind: kindInt, min: 0, max: 10000},
	"hard_mode_threshold":   {kind: kindInt, min: 0, max: 10000},
	"minigame_enabled":      {kind: kindBool},
	"mg1_enabled":           {kind: kindBool},
	"mg1_speed_normal":      {kind: kindInt, min: 100, max: 5000},
	"mg1_speed_hard":        {kind: kindInt, min: 50, max: 2000},
	"mg2_enabled":           {kind: kindBool},
	"mg2_speed_normal":      {kind: kindInt, min: 100, max: 5000},
	"mg2_speed_hard":        {kind: kindInt, min: 50, max: 2000},
	"mg3_enabled":           {kind: kindBool},
	"mg3_rounds":            {kind: kindInt, min: 1, max: 20},
	"mg3_time_normal":       {kind: kindInt, min: 250, max: 10000},
	"mg3_time_hard":         {kind: kindInt, min: 250, max: 5000},
	"mg4_enabled":           {kind: kindBool},
	"mg4_time_normal":       {kind: kindInt, min: 250, max: 10000},
	"mg4_time_hard":         {kind: kindInt, min: 250, max: 5000},
	"mg5_enabled":           {kind: kindBool},
	"mg5_time_normal":       {kind: kindInt, min: 250, max: 10000},
	"mg5_time_hard":         {kind: kindInt, min: 250, max: 5000},
}

// settingsDefaults — значения по умолчанию для отсутствующих ключей.
// Числа — float64, как после декодирования JSON.
var settingsDefaults = map[string]any{
	"minimum_passing_score": float64(70),
	"hard_mode_threshold":   float64(85),
	"minigame_enabled":      true,
	"mg1_enabled":           true,
	"mg1_speed_normal":      float64(2500),
	"mg1_speed_hard":        float64(1000),
	"mg2_enabled":           true,
	"mg2_speed_normal":      float64(2500),
	"mg2_speed_hard":        float64(1500),
	"mg3_enabled":           true,
	"mg3_rounds":            float64(5),
	"mg3_time_normal":       float64(3000),
	"mg3_time_hard":         float64(2000),
	"mg4_enabled":           true,
	"mg4_time_normal":       float64(3000),
	"mg4_time_hard":         float64(2000),
	"mg5_enabled":           true,
	"mg5_time_normal":       float64(3000),
	"mg5_time_hard":         float64(2000),
}

// Типы конвертов рассылки.
const (
	envelopeConnected      = "connected"
	envelopeSettingsUpdate = "settings_update"
)

// envelope — формат события для SSE/WebSocket клиентов.
type envelope struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// SettingsService — бизнес-логика настроек.
type SettingsService struct {
	repo         repository.SettingsRepository
	activityRepo repository.ActivityLogRepository
	hub          *broadcast.Hub
	logger       *slog.Logger
}

// NewSettingsService создаёт сервис настроек.
// hub обязателен: сервис всегда знает, куда рассылать обновления.
func NewSettingsService(
	repo repository.SettingsRepository,
	activityRepo repository.ActivityLogRepository,
	hub *broadcast.Hub,
	logger *slog.Logger,
) *SettingsService {
	return &SettingsService{
		repo:         repo,
		activityRepo: activityRepo,
		hub:          hub,
		logger:       logger.With(slog.String("component", "settings")),
	}
}

// GetAll возвращает типизированную карту настроек в backend-именовании.
// Отсутствующие в БД ключи заполняются значениями по умолчанию.
func (s *SettingsService) GetAll(ctx context.Context) (map[string]any, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение настроек: %w", err)
	}

	settings := make(map[string]any, len(settingsDefaults))
	for k, v := range settingsDefaults {
		settings[k] = v
	}
	for _, row := range stored {
		settings[row.Key] = decodeValue(row.Value)
	}
	return settings, nil
}

// PassingScore возвращает текущий проходной балл.
func (s *SettingsService) PassingScore(ctx context.Context) (int, error) {
	settings, err := s.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	if v, ok := settings["minimum_passing_score"].(float64); ok {
		return int(v), nil
	}
	return int(settingsDefaults["minimum_passing_score"].(float64)), nil
}

// Update валидирует и сохраняет набор настроек, принимая оба именования.
// Порядок: перевод → валидация по закрытой схеме → diff с хранимым →
// запись одной транзакцией → журнал активности → рассылка подписчикам.
// Возвращает полный снимок настроек после записи.
// Сбой рассылки или журнала не считается ошибкой операции.
func (s *SettingsService) Update(ctx context.Context, raw map[string]any, actor *model.User) (map[string]any, error) {
	internal := translate.ToInternal(raw)

	incoming := make(map[string]string, len(internal))
	for key, value := range internal {
		// Android-написания уже учтены переводом — сам исходный ключ
		// в схему не входит и ошибкой не является.
		if translate.IsExternalKey(key) {
			continue
		}
		spec, known := settingsSchema[key]
		if !known {
			return nil, fmt.Errorf("%w: неизвестный ключ настройки %q", ErrValidation, key)
		}
		encoded, err := encodeValue(key, spec, value)
		if err != nil {
			return nil, err
		}
		incoming[key] = encoded
	}
	if len(incoming) == 0 {
		return nil, fmt.Errorf("%w: пустой набор настроек", ErrValidation)
	}

	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение настроек: %w", err)
	}
	current := make(map[string]string, len(stored))
	for _, row := range stored {
		current[row.Key] = row.Value
	}

	changed := make(map[string]string, len(incoming))
	for key, value := range incoming {
		if cur, ok := current[key]; !ok || cur != value {
			changed[key] = value
		}
	}

	if len(changed) > 0 {
		if err := s.repo.UpsertAll(ctx, changed); err != nil {
			return nil, fmt.Errorf("сохранение настроек: %w", err)
		}
		s.logger.Info("Настройки обновлены", slog.Int("changed", len(changed)))

		// Журнал — после коммита: не логируем изменение, которое не записалось.
		s.logActivity(ctx, changed, current, actor)
		s.publish(ctx)
	}

	return s.GetAll(ctx)
}

// SnapshotMessage возвращает конверт settings_update с текущим снимком
// настроек, сериализованный для обоих именований.
func (s *SettingsService) SnapshotMessage(ctx context.Context) (broadcast.Message, error) {
	settings, err := s.GetAll(ctx)
	if err != nil {
		return broadcast.Message{}, err
	}
	return buildMessage(envelopeSettingsUpdate, settings)
}

// ConnectedMessage возвращает конверт connected для новых подписчиков.
func ConnectedMessage() broadcast.Message {
	msg, _ := buildMessage(envelopeConnected, map[string]any{})
	return msg
}

// publish рассылает текущий снимок всем подписчикам. Best-effort.
func (s *SettingsService) publish(ctx context.Context) {
	msg, err := s.SnapshotMessage(ctx)
	if err != nil {
		s.logger.Error("Ошибка подготовки рассылки настроек", slog.String("error", err.Error()))
		return
	}
	s.hub.Publish(msg)
}

// logActivity пишет по записи журнала на каждый изменённый ключ,
// со старым и новым значением. Best-effort.
// current — хранимые значения до записи; отсутствующий ключ означает,
// что действовало значение по умолчанию.
func (s *SettingsService) logActivity(ctx context.Context, changed, current map[string]string, actor *model.User) {
	var actorID *int
	if actor != nil {
		actorID = &actor.ID
	}
	for key, value := range changed {
		old, ok := current[key]
		if !ok {
			old = encodedDefault(key)
		}
		desc := fmt.Sprintf("Настройка %s изменена с %s на %s", key, old, value)
		if err := s.activityRepo.Insert(ctx, model.ActivitySettingUpdated, desc, actorID); err != nil {
			s.logger.Warn("Ошибка записи в журнал активности",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// encodedDefault возвращает строковое представление значения по умолчанию.
func encodedDefault(key string) string {
	spec, ok := settingsSchema[key]
	if !ok {
		return ""
	}
	encoded, err := encodeValue(key, spec, settingsDefaults[key])
	if err != nil {
		return ""
	}
	return encoded
}

// buildMessage сериализует конверт для обоих именований.
func buildMessage(typ string, settings map[string]any) (broadcast.Message, error) {
	backendPayload, err := json.Marshal(envelope{Type: typ, Data: settings})
	if err != nil {
		return broadcast.Message{}, fmt.Errorf("сериализация конверта: %w", err)
	}
	androidPayload, err := json.Marshal(envelope{Type: typ, Data: translate.ToExternal(settings)})
	if err != nil {
		return broadcast.Message{}, fmt.Errorf("сериализация конверта: %w", err)
	}
	return broadcast.Message{Backend: backendPayload, Android: androidPayload}, nil
}

// decodeValue восстанавливает тип значения из строкового представления:
// "true"/"false" — bool, числовое — float64, иначе строка как есть.
func decodeValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// encodeValue проверяет значение по спецификации ключа и кодирует в строку.
func encodeValue(key string, spec settingSpec, value any) (string, error) {
	switch spec.kind {
	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: %s должен быть булевым", ErrValidation, key)
		}
		return strconv.FormatBool(b), nil
	case kindInt:
		n, ok := asInt(value)
		if !ok {
			return "", fmt.Errorf("%w: %s должен быть целым числом", ErrValidation, key)
		}
		if n < spec.min || n > spec.max {
			return "", fmt.Errorf("%w: %s должен быть в диапазоне %d..%d",
				ErrValidation, key, spec.min, spec.max)
		}
		return strconv.Itoa(n), nil
	}
	return "", fmt.Errorf("%w: неподдерживаемый тип ключа %s", ErrValidation, key)
}

// asInt приводит значение к целому: из JSON числа приходят как float64.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
