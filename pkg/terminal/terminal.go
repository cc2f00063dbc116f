package terminal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/basic64/pkg/auth"
	"github.com/antibyte/basic64/pkg/basic"
	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
	"github.com/antibyte/basic64/pkg/shared"
	"github.com/antibyte/basic64/pkg/virtualfs"
)

const banner = "*** BASIC64 TERMINAL ***"

// clientMessage is one frame from the browser terminal.
type clientMessage struct {
	Type    string `json:"type"` // "input" or "break"
	Content string `json:"content"`
}

// client is one connected terminal: a websocket, its session and its
// interpreter. The writer goroutine owns the connection's write side.
type client struct {
	conn      *websocket.Conn
	session   *auth.Session
	interp    *basic.Interpreter
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Handler upgrades websocket connections and runs one client per session.
type Handler struct {
	upgrader websocket.Upgrader
	tokens   *auth.TokenService
	sessions *auth.SessionManager
	vfs      *virtualfs.VFS
	fetcher  basic.ProgramFetcher

	mu      sync.Mutex
	clients map[string]*client

	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewHandler(tokens *auth.TokenService, sessions *auth.SessionManager, vfs *virtualfs.VFS, fetcher basic.ProgramFetcher) *Handler {
	pongWait := configuration.GetDuration("Session", "pong_wait", 60*time.Second)
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		tokens:     tokens,
		sessions:   sessions,
		vfs:        vfs,
		fetcher:    fetcher,
		clients:    make(map[string]*client),
		pongWait:   pongWait,
		pingPeriod: pongWait * 9 / 10,
	}
}

func checkOrigin(r *http.Request) bool {
	allowed := configuration.GetString("Server", "allowed_origin", "")
	if allowed == "" {
		return true
	}
	return r.Header.Get("Origin") == allowed
}

// HandleWS serves GET /ws. A valid JWT in the token query parameter binds
// the session to an account; without one the connection runs as a guest.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	username := ""
	guest := true
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.tokens.Validate(token)
		if err != nil {
			logger.AuthWarn("websocket token rejected: %v", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		username = claims.Username
		guest = claims.Guest
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(logger.AreaWebSocket, "upgrade failed: %v", err)
		return
	}

	session := h.sessions.Create(username, guest)
	interp := basic.NewInterpreter(session.ID, h.vfs, h.fetcher)
	c := &client{
		conn:    conn,
		session: session,
		interp:  interp,
		done:    make(chan struct{}),
	}
	interp.OnSessionEnd = func() { c.close() }

	h.mu.Lock()
	h.clients[session.ID] = c
	h.mu.Unlock()
	logger.Info(logger.AreaWebSocket, "session %s connected (user=%q)", session.ID, username)

	go h.writePump(c)
	go h.readPump(c)
	c.greet()
}

func (c *client) greet() {
	c.interp.OutputChan <- shared.Message{Type: shared.MessageTypeSession, SessionID: c.session.ID}
	c.interp.OutputChan <- shared.Message{Type: shared.MessageTypeMode, Mode: "basic"}
	c.interp.OutputChan <- shared.TextMessage(banner)
	c.interp.OutputChan <- shared.TextMessage("")
	c.interp.OutputChan <- shared.TextMessage("READY.")
	enabled := true
	c.interp.OutputChan <- shared.Message{Type: shared.MessageTypeInputControl, InputEnabled: &enabled}
}

// readPump routes terminal frames: break requests interrupt the run, input
// lines feed a blocked INPUT when one is waiting and the editor otherwise.
func (h *Handler) readPump(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(int64(configuration.GetInt("Server", "max_message_size", 8192)))
	c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})
	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(logger.AreaWebSocket, "session %s read: %v", c.session.ID, err)
			}
			return
		}
		h.sessions.Touch(c.session.ID)
		switch msg.Type {
		case "break":
			c.interp.RequestBreak()
			c.send(shared.Message{Type: shared.MessageTypeBreak})
		case "input":
			if c.interp.AwaitingInput() {
				c.interp.ProvideInput(msg.Content)
				continue
			}
			// Editor echo, then hand the line to the interpreter.
			c.send(shared.Message{Type: shared.MessageTypeInput, InputStr: msg.Content})
			c.interp.Execute(msg.Content)
		default:
			logger.Debug(logger.AreaWebSocket, "session %s: unknown frame type %q", c.session.ID, msg.Type)
		}
	}
}

// writePump forwards interpreter output and keeps the connection alive.
func (h *Handler) writePump(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.interp.OutputChan:
			if err := c.send(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) send(msg shared.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
	})
}

// drop tears the client down: interpreter, session registry and, for
// guests, their session-scoped files.
func (h *Handler) drop(c *client) {
	c.close()
	c.interp.Shutdown()
	h.mu.Lock()
	delete(h.clients, c.session.ID)
	h.mu.Unlock()
	if s, ok := h.sessions.Remove(c.session.ID); ok && s.Guest {
		if err := h.vfs.PurgeOwner(s.Owner()); err != nil {
			logger.Warn(logger.AreaFileSystem, "purge guest files for %s: %v", s.ID, err)
		}
	}
	logger.Info(logger.AreaWebSocket, "session %s disconnected", c.session.ID)
}

// StartCleanup evicts idle sessions until ctx is cancelled.
func (h *Handler) StartCleanup(ctx context.Context) {
	maxIdle := configuration.GetDuration("Session", "max_idle", 30*time.Minute)
	interval := configuration.GetDuration("Session", "cleanup_interval", time.Minute)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range h.sessions.Expired(maxIdle) {
					h.mu.Lock()
					c := h.clients[s.ID]
					h.mu.Unlock()
					if c != nil {
						logger.Info(logger.AreaSession, "session %s idle, closing", s.ID)
						c.close()
					}
				}
			}
		}
	}()
}

// ClientCount reports the number of connected terminals.
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
