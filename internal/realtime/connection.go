package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trackline/internal/domain"
)

// Conn обертка над websocket-соединением с буферизованной исходящей
// очередью. Запись в сокет идет из одной горутины (WriteLoop), поэтому
// порядок кадров совпадает с порядком Enqueue.
type Conn struct {
	id   string
	user domain.UserSnapshot
	sock *websocket.Conn
	send chan []byte
	log  *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewConn(sock *websocket.Conn, user domain.UserSnapshot, queueSize int, log *zap.Logger) *Conn {
	connectionsGauge.Inc()
	return &Conn{
		id:   uuid.NewString(),
		user: user,
		sock: sock,
		send: make(chan []byte, queueSize),
		log:  log,
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) User() domain.UserSnapshot {
	return c.user
}

// Enqueue кладет кадр в очередь без блокировки.
// false при переполнении или после Close: событие отбрасывается.
func (c *Conn) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// WriteLoop сливает очередь в сокет; завершается по Close или ошибке записи
func (c *Conn) WriteLoop() {
	for {
		select {
		case frame := <-c.send:
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("websocket write failed",
					zap.String("connection_id", c.id),
					zap.Error(err),
				)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		connectionsGauge.Dec()
		err = c.sock.Close()
	})
	return err
}
