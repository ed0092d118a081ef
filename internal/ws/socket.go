package ws

import (
    "encoding/json"
    "net/http"

    "github.com/gin-gonic/gin"
    socketio "github.com/googollee/go-socket.io"
    "github.com/kiliankoe/undercover/internal/config"
    "github.com/kiliankoe/undercover/internal/game"
    "github.com/rs/zerolog/log"
)

// Actions are the inbound message types. Over Socket.IO each one is an event
// name whose first argument is the message data.
var Actions = []string{
    "create_room",
    "join_room",
    "start_game",
    "submit_description",
    "cast_vote",
    "mr_white_guess",
    "exit_room",
    "reconnect",
    "play_again",
}

type Server struct {
    RM     *game.RoomManager
    Hub    *Hub
    config config.Config
}

func New(rm *game.RoomManager, hub *Hub, cfg config.Config) *Server {
    return &Server{RM: rm, Hub: hub, config: cfg}
}

// sioConn adapts a Socket.IO connection to the hub. Socket.IO ids are only
// unique per server, so they get a prefix.
type sioConn struct {
    s socketio.Conn
}

func sioID(s socketio.Conn) string { return "sio:" + s.ID() }

func (c sioConn) ID() string { return sioID(c.s) }

func (c sioConn) Emit(msg game.Message) { c.s.Emit(msg.Type, msg.Data) }

// MountSocketIO attaches a Socket.IO server with handlers to the given Gin engine.
func (srv *Server) MountSocketIO(r *gin.Engine) *socketio.Server {
    io := socketio.NewServer(nil)

    io.OnConnect("/", func(s socketio.Conn) error {
        srv.Hub.Register(sioConn{s})
        log.Info().Str("sid", sioID(s)).Msg("socket connected")
        return nil
    })

    for _, action := range Actions {
        action := action
        io.OnEvent("/", action, func(s socketio.Conn, data json.RawMessage) {
            srv.RM.Handle(sioID(s), game.Envelope{Type: action, Data: data})
        })
    }

    io.OnError("/", func(s socketio.Conn, e error) {
        if s == nil {
            log.Error().Err(e).Msg("socket error")
            return
        }
        log.Error().Str("sid", sioID(s)).Err(e).Msg("socket error")
    })
    io.OnDisconnect("/", func(s socketio.Conn, reason string) {
        srv.RM.Disconnect(sioID(s))
        srv.Hub.Unregister(sioID(s))
        log.Info().Str("sid", sioID(s)).Str("reason", reason).Msg("socket disconnected")
    })

    go io.Serve()

    // Mount to router
    r.GET("/socket.io/*any", gin.WrapH(io))
    r.POST("/socket.io/*any", gin.WrapH(io))

    // Basic CORS preflight for Socket.IO POST
    r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
        c.Header("Access-Control-Allow-Origin", "*")
        c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
        c.Header("Access-Control-Allow-Headers", "Content-Type")
        c.Status(http.StatusNoContent)
    })

    return io
}
