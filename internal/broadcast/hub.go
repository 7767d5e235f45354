// Пакет broadcast — рассылка обновлений настроек подключённым клиентам.
// Hub не знает о транспорте: SSE и WebSocket-соединения подписываются
// через общий интерфейс Subscriber.
package broadcast

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Convention — именование ключей в рассылаемом снимке настроек.
type Convention string

const (
	// ConventionBackend — backend-именование (mg1_enabled, ...). Веб-админка.
	ConventionBackend Convention = "backend"
	// ConventionAndroid — android-именование (minigame1_enabled, ...).
	ConventionAndroid Convention = "android"
)

// Message — одно событие рассылки. Полезная нагрузка сериализуется
// издателем один раз на каждое именование, а не на каждого подписчика.
type Message struct {
	// Backend — конверт для подписчиков с backend-именованием
	Backend []byte
	// Android — конверт для подписчиков с android-именованием
	Android []byte
}

// payload возвращает полезную нагрузку для заданного именования.
func (m Message) payload(conv Convention) []byte {
	if conv == ConventionAndroid {
		return m.Android
	}
	return m.Backend
}

// Subscriber — получатель событий. Send обязан быть потокобезопасным:
// Publish может вызываться конкурентно с записью снимка при подключении.
type Subscriber interface {
	Send(data []byte) error
}

// Метрики рассылки.
var (
	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fc_settings_broadcast_subscribers",
		Help: "Текущее количество подписчиков рассылки настроек",
	})
	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fc_settings_broadcast_dropped_total",
		Help: "Количество подписчиков, отключённых из-за ошибки записи",
	})
)

// subscription — подписчик вместе с его именованием ключей.
type subscription struct {
	sub  Subscriber
	conv Convention
}

// Hub — реестр подписчиков рассылки. Создаётся один раз в composition root
// и передаётся явно сервисам и обработчикам.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]subscription
	logger *slog.Logger
}

// NewHub создаёт пустой Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]subscription),
		logger: logger.With(slog.String("component", "broadcast")),
	}
}

// Subscribe регистрирует подписчика и возвращает его id.
// Id составной: наносекундная метка времени плюс фрагмент uuid —
// устойчив к коллизиям при одновременных подключениях.
func (h *Hub) Subscribe(sub Subscriber, conv Convention) string {
	id := fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])

	h.mu.Lock()
	h.subs[id] = subscription{sub: sub, conv: conv}
	count := len(h.subs)
	h.mu.Unlock()

	subscribersGauge.Set(float64(count))
	h.logger.Debug("Подписчик подключён",
		slog.String("id", id),
		slog.String("convention", string(conv)),
		slog.Int("subscribers", count),
	)
	return id
}

// Unsubscribe удаляет подписчика. Повторный вызов с тем же id — no-op.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	count := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	subscribersGauge.Set(float64(count))
	h.logger.Debug("Подписчик отключён",
		slog.String("id", id),
		slog.Int("subscribers", count),
	)
}

// Count возвращает текущее количество подписчиков.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish рассылает сообщение всем подписчикам. Доставка best-effort:
// ошибка записи одному подписчику не прерывает рассылку остальным,
// неисправный подписчик удаляется из реестра.
func (h *Hub) Publish(msg Message) {
	// Итерация по копии: Send может быть медленным, держать mutex
	// на время сетевой записи нельзя.
	h.mu.Lock()
	snapshot := make(map[string]subscription, len(h.subs))
	for id, s := range h.subs {
		snapshot[id] = s
	}
	h.mu.Unlock()

	for id, s := range snapshot {
		if err := s.sub.Send(msg.payload(s.conv)); err != nil {
			h.logger.Warn("Ошибка отправки подписчику, отключаем",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			droppedTotal.Inc()
			h.Unsubscribe(id)
		}
	}
}
