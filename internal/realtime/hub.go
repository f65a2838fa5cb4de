package realtime

import (
	"sync"

	"go.uber.org/zap"

	"trackline/internal/domain"
)

// Subscriber это живое подключение, готовое принимать кадры.
// Enqueue не блокируется: false означает переполненную очередь
// или закрытое соединение, событие в этом случае теряется.
type Subscriber interface {
	ID() string
	Enqueue(frame []byte) bool
}

// Hub раздает доменные события по подпискам (fanout).
// Доставка best-effort: недоступный подписчик молча пропускает событие,
// никакой очереди повторов нет. Порядок публикаций в рамках одного scope
// сохраняется для всех его подписчиков: конверт кладется в очередь каждого
// соединения под общим мьютексом hub-а.
type Hub struct {
	log *zap.Logger

	mu   sync.Mutex
	subs map[domain.Scope]map[string]Subscriber
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[domain.Scope]map[string]Subscriber),
	}
}

func (h *Hub) Attach(scope domain.Scope, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scoped, ok := h.subs[scope]
	if !ok {
		scoped = make(map[string]Subscriber)
		h.subs[scope] = scoped
	}
	if _, exists := scoped[sub.ID()]; !exists {
		subscriptionsGauge.Inc()
	}
	scoped[sub.ID()] = sub
}

func (h *Hub) Detach(scope domain.Scope, subId string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scoped, ok := h.subs[scope]
	if !ok {
		return
	}
	if _, exists := scoped[subId]; exists {
		delete(scoped, subId)
		subscriptionsGauge.Dec()
	}
	if len(scoped) == 0 {
		delete(h.subs, scope)
	}
}

// Publish доставляет одинаковый конверт каждому подключению, подписанному
// хотя бы на один scope из набора. Подписчик нескольких совпавших scope
// получает по копии на каждый: list-view и detail-view держат отдельные
// подписки и каждая ждет свое сообщение. Ошибки доставки никогда не
// возвращаются вызвавшей мутации.
func (h *Hub) Publish(scopes []domain.Scope, event domain.Event) {
	frame, err := event.Envelope()
	if err != nil {
		h.log.Error("failed to marshal event envelope",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, scope := range scopes {
		for _, sub := range h.subs[scope] {
			if sub.Enqueue(frame) {
				eventsDeliveredTotal.WithLabelValues(event.Type).Inc()
			} else {
				eventsDroppedTotal.WithLabelValues(event.Type).Inc()
				h.log.Debug("event dropped, subscriber unavailable",
					zap.String("event_type", event.Type),
					zap.String("scope", scope.String()),
					zap.String("connection_id", sub.ID()),
				)
			}
		}
	}
}

// SubscriberCount для тестов и health-диагностики
func (h *Hub) SubscriberCount(scope domain.Scope) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[scope])
}
