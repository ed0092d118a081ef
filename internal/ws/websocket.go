package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kiliankoe/undercover/internal/game"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 8 << 10
	outboxCapacity = 256
)

// wsConn is a raw WebSocket client speaking `{type, data}` JSON frames.
type wsConn struct {
	id     string
	socket *websocket.Conn
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

func newWSConn(socket *websocket.Conn) *wsConn {
	return &wsConn{
		id:     uuid.NewString(),
		socket: socket,
		outbox: make(chan []byte, outboxCapacity),
		done:   make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Emit(msg game.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("sid", c.id).Str("type", msg.Type).Msg("encode message")
		return
	}
	select {
	case <-c.done:
	case c.outbox <- b:
	default:
		// a client this far behind would only ever see stale snapshots
		log.Warn().Str("sid", c.id).Msg("outbox full, dropping connection")
		c.close()
	}
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.socket.Close()
	})
}

func (c *wsConn) readPump(handle func(frame []byte)) {
	defer c.close()
	c.socket.SetReadLimit(maxFrameSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Str("sid", c.id).Err(err).Msg("socket read")
			}
			return
		}
		handle(data)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case b := <-c.outbox:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// MountWebSocket serves the raw WebSocket endpoint at path.
func (srv *Server) MountWebSocket(r *gin.Engine, path string) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     srv.checkOrigin,
	}
	r.GET(path, func(c *gin.Context) {
		socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("websocket upgrade failed")
			return
		}
		conn := newWSConn(socket)
		srv.Hub.Register(conn)
		log.Info().Str("sid", conn.id).Msg("socket connected")

		go conn.writePump()
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Str("sid", conn.id).Msg("socket handler panic")
				}
				srv.RM.Disconnect(conn.id)
				srv.Hub.Unregister(conn.id)
				log.Info().Str("sid", conn.id).Msg("socket disconnected")
			}()
			conn.readPump(func(frame []byte) { srv.RM.HandleFrame(conn.id, frame) })
		}()
	})
}

func (srv *Server) checkOrigin(r *http.Request) bool {
	if len(srv.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range srv.config.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
