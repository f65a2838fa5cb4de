package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"trackline/internal/domain"
)

// SubscriptionState состояние пары (connection, scope):
// UNSUBSCRIBED -> PENDING_AUTH -> {SUBSCRIBED, REJECTED};
// SUBSCRIBED -> UNSUBSCRIBED по явному unsubscribe или disconnect.
// REJECTED терминально для попытки, повторный subscribe начинает новую.
type SubscriptionState int

const (
	StateUnsubscribed SubscriptionState = iota
	StatePendingAuth
	StateSubscribed
	StateRejected
)

// Authorizer внешний коллаборатор проверки доступа
type Authorizer interface {
	CanAccess(ctx context.Context, scope domain.Scope, requesterId string) (bool, error)
}

// Gateway управляет жизненным циклом подписок: авторизация, регистрация
// в hub-е и presence-эффекты для ресурсных scope.
type Gateway struct {
	hub      *Hub
	presence *Tracker
	auth     Authorizer
	log      *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[domain.Scope]*domain.ChannelSubscription
	states map[string]map[domain.Scope]SubscriptionState
}

func NewGateway(hub *Hub, presence *Tracker, auth Authorizer, log *zap.Logger) *Gateway {
	return &Gateway{
		hub:      hub,
		presence: presence,
		auth:     auth,
		log:      log,
		subs:     make(map[string]map[domain.Scope]*domain.ChannelSubscription),
		states:   make(map[string]map[domain.Scope]SubscriptionState),
	}
}

// Subscribe проводит подключение через авторизацию и при подтверждении
// регистрирует подписку. Ответный кадр (confirmed/rejected) уходит через
// само соединение до любых broadcast-ов: подтверждение всегда раньше
// первого presence.updated. Для ресурсных scope после подтверждения
// делается presence join с рассылкой presence.updated в сам ресурс.
// Отказ не оставляет ни подписки, ни presence-следа.
func (g *Gateway) Subscribe(ctx context.Context, sub Subscriber, user domain.UserSnapshot, scope domain.Scope) (bool, error) {
	g.setState(sub.ID(), scope, StatePendingAuth)

	allowed, err := g.auth.CanAccess(ctx, scope, user.Id)
	if err != nil {
		g.setState(sub.ID(), scope, StateRejected)
		g.transmit(sub, domain.NewSubscriptionRejected(scope, "authorization unavailable"))
		g.log.Error("authorization check failed",
			zap.String("connection_id", sub.ID()),
			zap.String("scope", scope.String()),
			zap.Error(err),
		)
		return false, err
	}
	if !allowed {
		g.setState(sub.ID(), scope, StateRejected)
		g.transmit(sub, domain.NewSubscriptionRejected(scope, "access denied"))
		g.log.Info("subscription rejected",
			zap.String("connection_id", sub.ID()),
			zap.String("user_id", user.Id),
			zap.String("scope", scope.String()),
		)
		return false, nil
	}

	g.mu.Lock()
	connSubs, ok := g.subs[sub.ID()]
	if !ok {
		connSubs = make(map[domain.Scope]*domain.ChannelSubscription)
		g.subs[sub.ID()] = connSubs
	}
	connSubs[scope] = &domain.ChannelSubscription{
		ConnectionId:  sub.ID(),
		Scope:         scope,
		UserId:        user.Id,
		EstablishedAt: time.Now(),
	}
	g.mu.Unlock()

	g.setState(sub.ID(), scope, StateSubscribed)
	g.hub.Attach(scope, sub)
	g.transmit(sub, domain.NewSubscriptionConfirmed(scope))

	if scope.Kind == domain.ScopeResource {
		roster := g.presence.Join(scope.Id, user)
		g.hub.Publish([]domain.Scope{scope}, domain.NewPresenceUpdated(roster))
	}

	g.log.Info("subscription confirmed",
		zap.String("connection_id", sub.ID()),
		zap.String("user_id", user.Id),
		zap.String("scope", scope.String()),
	)

	return true, nil
}

// Unsubscribe идемпотентен: отписка несуществующей подписки это no-op
func (g *Gateway) Unsubscribe(connectionId string, scope domain.Scope) error {
	g.mu.Lock()
	sub, ok := g.subs[connectionId][scope]
	if ok {
		delete(g.subs[connectionId], scope)
		if len(g.subs[connectionId]) == 0 {
			delete(g.subs, connectionId)
		}
	}
	g.mu.Unlock()

	if !ok {
		return nil
	}

	g.setState(connectionId, scope, StateUnsubscribed)
	g.hub.Detach(scope, connectionId)

	if scope.Kind == domain.ScopeResource {
		roster := g.presence.Leave(scope.Id, sub.UserId)
		g.hub.Publish([]domain.Scope{scope}, domain.NewPresenceUpdated(roster))
	}

	return nil
}

// OnDisconnect снимает все подписки соединения с теми же side-эффектами,
// что и явный unsubscribe
func (g *Gateway) OnDisconnect(connectionId string) error {
	g.mu.Lock()
	scopes := make([]domain.Scope, 0, len(g.subs[connectionId]))
	for scope := range g.subs[connectionId] {
		scopes = append(scopes, scope)
	}
	g.mu.Unlock()

	var errs error
	for _, scope := range scopes {
		errs = multierr.Append(errs, g.Unsubscribe(connectionId, scope))
	}

	g.mu.Lock()
	delete(g.states, connectionId)
	g.mu.Unlock()

	return errs
}

// transmit шлет служебный кадр в одно конкретное соединение, мимо hub-а
func (g *Gateway) transmit(sub Subscriber, event domain.Event) {
	frame, err := event.Envelope()
	if err != nil {
		g.log.Error("failed to marshal reply frame",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return
	}
	sub.Enqueue(frame)
}

// State для тестов и диагностики
func (g *Gateway) State(connectionId string, scope domain.Scope) SubscriptionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.states[connectionId][scope]
}

func (g *Gateway) setState(connectionId string, scope domain.Scope, state SubscriptionState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	connStates, ok := g.states[connectionId]
	if !ok {
		connStates = make(map[domain.Scope]SubscriptionState)
		g.states[connectionId] = connStates
	}
	connStates[scope] = state
}
