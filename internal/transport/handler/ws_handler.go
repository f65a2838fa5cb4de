package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/realtime"
)

// UserDirectory отдает снапшот пользователя для presence-ростеров
type UserDirectory interface {
	Snapshot(ctx context.Context, userId string) (domain.UserSnapshot, error)
}

// clientFrame входящий кадр протокола подписок
type clientFrame struct {
	Action string          `json:"action"`
	Scope  string          `json:"scope"`
	Params json.RawMessage `json:"params,omitempty"`
}

type WSHandler struct {
	gateway   *realtime.Gateway
	users     UserDirectory
	upgrader  websocket.Upgrader
	queueSize int
	log       *zap.Logger
}

func NewWSHandler(gateway *realtime.Gateway, users UserDirectory, queueSize int, log *zap.Logger) *WSHandler {
	return &WSHandler{
		gateway: gateway,
		users:   users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin проверяет внешний слой
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queueSize: queueSize,
		log:       log,
	}
}

// Serve апгрейдит соединение и крутит read loop до разрыва.
// Идентификация как и в REST: X-User-Id, до апгрейда.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userId := r.Header.Get(actorHeader)
	if userId == "" {
		userId = r.URL.Query().Get("user_id")
	}
	if userId == "" {
		WriteError(w, http.StatusUnauthorized, ErrorResponse{
			Error: ErrorDetail{Code: "UNAUTHORIZED", Message: "missing actor"},
		})
		return
	}

	user, err := h.users.Snapshot(r.Context(), userId)
	if err != nil {
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConn(sock, user, h.queueSize, h.log)
	go conn.WriteLoop()

	h.log.Info("websocket connected",
		zap.String("connection_id", conn.ID()),
		zap.String("user_id", user.Id),
	)

	h.readLoop(r.Context(), conn, sock)

	if err := multierr.Combine(h.gateway.OnDisconnect(conn.ID()), conn.Close()); err != nil {
		h.log.Error("websocket teardown failed",
			zap.String("connection_id", conn.ID()),
			zap.Error(err),
		)
	}

	h.log.Info("websocket disconnected",
		zap.String("connection_id", conn.ID()),
		zap.String("user_id", user.Id),
	)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *realtime.Conn, sock *websocket.Conn) {
	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.log.Debug("malformed client frame",
				zap.String("connection_id", conn.ID()),
				zap.Error(err),
			)
			continue
		}

		switch frame.Action {
		case "subscribe":
			h.handleSubscribe(ctx, conn, frame.Scope)
		case "unsubscribe":
			h.handleUnsubscribe(conn, frame.Scope)
		default:
			h.log.Debug("unknown client action",
				zap.String("connection_id", conn.ID()),
				zap.String("action", frame.Action),
			)
		}
	}
}

func (h *WSHandler) handleSubscribe(ctx context.Context, conn *realtime.Conn, rawScope string) {
	scope, err := domain.ParseScope(rawScope)
	if err != nil {
		h.reply(conn, domain.NewEvent(domain.EventSubscriptionRejected, map[string]any{
			"scope":  rawScope,
			"status": "rejected",
			"reason": "unknown scope",
		}))
		return
	}

	// Шлюз сам отвечает confirmed/rejected через это же соединение
	if _, err := h.gateway.Subscribe(ctx, conn, conn.User(), scope); err != nil {
		h.log.Error("subscribe failed",
			zap.String("connection_id", conn.ID()),
			zap.String("scope", scope.String()),
			zap.Error(err),
		)
	}
}

func (h *WSHandler) handleUnsubscribe(conn *realtime.Conn, rawScope string) {
	scope, err := domain.ParseScope(rawScope)
	if err != nil {
		return
	}
	// Ошибок нет: отписка идемпотентна
	_ = h.gateway.Unsubscribe(conn.ID(), scope)
}

func (h *WSHandler) reply(conn *realtime.Conn, event domain.Event) {
	frame, err := event.Envelope()
	if err != nil {
		h.log.Error("failed to marshal reply", zap.Error(err))
		return
	}
	conn.Enqueue(frame)
}
