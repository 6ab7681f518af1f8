package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"event-trivia-service/internal/app"
	"event-trivia-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 30 * time.Second
	maxMessageSize      = 64 * 1024
)

// WSOptions tunes the WebSocket sessions.
type WSOptions struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// WSHandler upgrades the table, admin and screen endpoints and binds every
// connection to a game session.
type WSHandler struct {
	game     *app.Game
	opts     WSOptions
	upgrader websocket.Upgrader
}

func NewWSHandler(game *app.Game, opts WSOptions) *WSHandler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = app.DefaultSendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &WSHandler{
		game: game,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeTable seats the connection at the table named in the path. Unknown
// tables get an error event and the connection is closed.
func (h *WSHandler) ServeTable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tableID, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		tableID = 0
	}
	h.serve(w, r, func(c *app.Client) (app.Session, error) {
		return h.game.OpenTableSession(tableID, c)
	})
}

func (h *WSHandler) ServeAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.serve(w, r, func(c *app.Client) (app.Session, error) {
		return h.game.OpenAdminSession(c), nil
	})
}

func (h *WSHandler) ServeScreen(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.serve(w, r, func(c *app.Client) (app.Session, error) {
		return h.game.OpenScreenSession(c), nil
	})
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, open func(*app.Client) (app.Session, error)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("ws upgrade failed")
		return
	}

	client := app.NewClient(&wsConn{conn: conn, writeTimeout: h.opts.WriteTimeout}, h.opts.SendBuffer)
	log.Debug().Str("client_id", client.ID).Str("path", r.URL.Path).Msg("ws connected")

	session, err := open(client)
	if err != nil {
		log.Info().Err(err).Str("client_id", client.ID).Str("path", r.URL.Path).Msg("session refused")
		_ = client.Send(domain.NewErrorEvent(err))
		client.Close()
		<-client.Finished()
		return
	}
	defer session.Close()

	stop := h.keepAlive(conn, client)
	defer stop()

	h.readLoop(r.Context(), conn, session)
	log.Debug().Str("client_id", client.ID).Msg("ws disconnected")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session app.Session) {
	conn.SetReadLimit(maxMessageSize)
	if h.opts.PingInterval > 0 {
		pongWait := 2 * h.opts.PingInterval
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	} else {
		// the server's read timeout would otherwise still apply to the hijacked conn
		_ = conn.SetReadDeadline(time.Time{})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws read error")
			}
			return
		}
		session.Handle(ctx, data)
	}
}

// keepAlive pings the peer until the session ends.
func (h *WSHandler) keepAlive(conn *websocket.Conn, client *app.Client) func() {
	if h.opts.PingInterval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(h.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(h.opts.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					client.Close()
					return
				}
			case <-client.Finished():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// wsConn adapts a gorilla connection to app.Conn. Only the client's writer
// calls WriteJSON; control frames are safe to send concurrently.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) WriteJSON(v any) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	if raw, ok := v.(json.RawMessage); ok {
		return c.conn.WriteMessage(websocket.TextMessage, raw)
	}
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
