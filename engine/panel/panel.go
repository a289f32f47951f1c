// Package panel exposes named triggers to a remote control panel. Triggers are registered by the
// clip chain and invoked from websocket sessions; invocations are posted to a dispatcher so the
// trigger itself runs on the frame-loop goroutine.
package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrUnknownTrigger is returned when invoking a name that was never added.
	ErrUnknownTrigger = errors.New("unknown trigger")

	// ErrDuplicateTrigger is returned when adding a name twice.
	ErrDuplicateTrigger = errors.New("duplicate trigger")
)

const (
	shutdownTimeout   = 5 * time.Second
	writeWait         = 10 * time.Second
	sessionSendBuffer = 32 // queued messages before a session counts as stalled
)

// panel is the implementation of the Panel interface.
type panel struct {
	mu       sync.RWMutex
	names    []string
	triggers map[string]func()
	sessions map[*session]struct{}

	dispatcher dispatch.Dispatcher
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// Panel is a trigger registry with a websocket front end.
type Panel interface {
	// Add registers a named trigger and announces the new trigger list to open sessions.
	//
	// Parameters:
	//   - name: the trigger name
	//   - fn: the function to run when the trigger is invoked
	//
	// Returns:
	//   - error: ErrDuplicateTrigger if name is taken
	Add(name string, fn func()) error

	// Names returns the trigger names in registration order.
	Names() []string

	// Invoke posts the named trigger to the dispatcher. It never runs the trigger on the caller's
	// goroutine.
	//
	// Parameters:
	//   - name: the trigger name
	//
	// Returns:
	//   - error: ErrUnknownTrigger if name was never added
	Invoke(name string) error

	// Handler returns the HTTP handler serving the control page at "/" and websocket sessions at "/ws".
	Handler() http.Handler

	// ListenAndServe serves Handler on addr until ctx is cancelled.
	//
	// Parameters:
	//   - ctx: cancelling it shuts the server down
	//   - addr: the TCP listen address
	//
	// Returns:
	//   - error: the listen error, or nil after a clean shutdown
	ListenAndServe(ctx context.Context, addr string) error
}

var _ Panel = &panel{}

// NewPanel creates a Panel with the provided options applied.
//
// Parameters:
//   - options: a variadic list of PanelBuilderOption functions to configure the Panel
//
// Returns:
//   - Panel: the new panel with no triggers
func NewPanel(options ...PanelBuilderOption) Panel {
	p := &panel{
		triggers:   make(map[string]func()),
		sessions:   make(map[*session]struct{}),
		dispatcher: dispatch.Immediate{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: zap.NewNop(),
	}

	for _, option := range options {
		option(p)
	}
	return p
}

func (p *panel) Add(name string, fn func()) error {
	if fn == nil {
		return fmt.Errorf("trigger %q: nil function", name)
	}

	p.mu.Lock()
	if _, ok := p.triggers[name]; ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateTrigger, name)
	}
	p.triggers[name] = fn
	p.names = append(p.names, name)
	p.broadcastLocked(triggersMessage{Type: messageTypeTriggers, Names: append([]string(nil), p.names...)})
	p.mu.Unlock()

	p.logger.Info("trigger added", zap.String("name", name))
	return nil
}

func (p *panel) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.names...)
}

func (p *panel) Invoke(name string) error {
	p.mu.RLock()
	fn, ok := p.triggers[name]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrigger, name)
	}

	p.logger.Debug("trigger invoked", zap.String("name", name))
	p.dispatcher.Post(fn)
	return nil
}

func (p *panel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", p.handleSession)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(controlPage))
	})
	return mux
}

func (p *panel) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		p.logger.Info("panel listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("panel listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	p.closeSessions()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("panel shutdown: %w", err)
	}
	p.logger.Info("panel stopped")
	return nil
}

// --- Sessions ---

// broadcastLocked queues msg on every open session without blocking. A session that cannot take
// the message is dropped. Callers hold p.mu so every session sees trigger lists in order.
func (p *panel) broadcastLocked(msg any) {
	for s := range p.sessions {
		if !s.enqueue(msg) {
			p.logger.Warn("dropping stalled panel session", zap.String("remote", s.remote))
			delete(p.sessions, s)
			go s.close(websocket.ClosePolicyViolation, "send queue full")
		}
	}
}

// sessionList returns the open sessions. Callers hold p.mu.
func (p *panel) sessionList() []*session {
	out := make([]*session, 0, len(p.sessions))
	for s := range p.sessions {
		out = append(out, s)
	}
	return out
}

// closeSessions closes every open websocket connection.
func (p *panel) closeSessions() {
	p.mu.RLock()
	sessions := p.sessionList()
	p.mu.RUnlock()

	for _, s := range sessions {
		s.close(websocket.CloseGoingAway, "server shutting down")
	}
}

// handleSession upgrades the request and serves one control session until the client leaves.
func (p *panel) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	s := newSession(conn, r.RemoteAddr)
	go s.writeLoop(p.logger)

	// Register and queue the snapshot under the lock so a concurrent Add is ordered after it.
	p.mu.Lock()
	p.sessions[s] = struct{}{}
	s.enqueue(triggersMessage{Type: messageTypeTriggers, Names: append([]string(nil), p.names...)})
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.sessions, s)
		p.mu.Unlock()
		s.close(websocket.CloseNormalClosure, "")
		p.logger.Debug("panel session closed", zap.String("remote", s.remote))
	}()

	p.logger.Debug("panel session opened", zap.String("remote", s.remote))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := decodeClientMessage(payload)
		if err != nil {
			p.logger.Warn("discarding malformed panel message", zap.String("remote", s.remote), zap.Error(err))
			continue
		}

		var reply any
		switch msg.Type {
		case messageTypeInvoke:
			if err := p.Invoke(msg.Name); err != nil {
				reply = errorMessage{Type: messageTypeError, Name: msg.Name, Reason: err.Error()}
			} else {
				reply = ackMessage{Type: messageTypeAck, Name: msg.Name}
			}
		case messageTypeList:
			reply = triggersMessage{Type: messageTypeTriggers, Names: p.Names()}
		default:
			reply = errorMessage{Type: messageTypeError, Reason: fmt.Sprintf("unsupported message type %q", msg.Type)}
		}

		if !s.enqueue(reply) {
			p.logger.Warn("dropping stalled panel session", zap.String("remote", s.remote))
			return
		}
	}
}

// session is one websocket connection. Outgoing messages are queued and written by writeLoop,
// the connection's only data writer, so producers never wait on a slow client.
type session struct {
	conn   *websocket.Conn
	remote string

	send      chan any
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, remote string) *session {
	return &session{
		conn:   conn,
		remote: remote,
		send:   make(chan any, sessionSendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues v for writing. It reports false when the session is closed or its queue is full.
func (s *session) enqueue(v any) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- v:
		return true
	default:
		return false
	}
}

// writeLoop writes queued messages as JSON text frames until the session closes or a write fails.
func (s *session) writeLoop(logger *zap.Logger) {
	defer s.close(websocket.CloseGoingAway, "write failed")

	for {
		select {
		case v := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(v); err != nil {
				select {
				case <-s.done:
				default:
					logger.Debug("panel write failed", zap.String("remote", s.remote), zap.Error(err))
				}
				return
			}
		case <-s.done:
			return
		}
	}
}

// close sends a close frame and closes the connection. Only the first call has any effect.
func (s *session) close(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
}
