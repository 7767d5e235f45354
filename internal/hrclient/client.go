// Пакет hrclient — HTTP-клиент к внешнему HR API.
// Единственная операция: получение полного ростера сотрудников.
package hrclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// Ошибки клиента. Вызывающий различает их через errors.Is:
// ErrMalformed — проблема данных (ошибка клиента HR API),
// ErrUnavailable — проблема доставки (сеть, таймаут, 5xx).
var (
	// ErrMalformed — ответ HR API не соответствует ожидаемой форме {data:[...]}.
	ErrMalformed = errors.New("некорректный ответ HR API")
	// ErrUnavailable — HR API недоступен или вернул ошибочный статус.
	ErrUnavailable = errors.New("HR API недоступен")
)

// Client — клиент HR API.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент HR API.
// url — полный адрес endpoint'а ростера (FC_HR_API_URL).
// timeout — ограничение на весь запрос (FC_HR_TIMEOUT).
func New(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "hrclient")),
	}
}

// rosterResponse — обёртка ответа HR API. Поле data обязательно;
// RawMessage позволяет отличить отсутствие поля от пустого массива.
type rosterResponse struct {
	Data json.RawMessage `json:"data"`
}

// FetchEmployees выполняет один GET к HR API и возвращает полный ростер.
// Пустой ростер — пустой срез, не ошибка.
func (c *Client) FetchEmployees(ctx context.Context) ([]model.ExternalEmployee, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса к HR API: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: статус %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var roster rosterResponse
	if err := json.NewDecoder(resp.Body).Decode(&roster); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(roster.Data) == 0 || string(roster.Data) == "null" {
		return nil, fmt.Errorf("%w: отсутствует поле data", ErrMalformed)
	}

	var employees []model.ExternalEmployee
	if err := json.Unmarshal(roster.Data, &employees); err != nil {
		return nil, fmt.Errorf("%w: поле data не является массивом: %w", ErrMalformed, err)
	}

	c.logger.Debug("Ростер получен",
		slog.Int("employees", len(employees)),
		slog.Duration("duration", time.Since(start)),
	)
	return employees, nil
}
