// Package web is the browser surface: it serves a page running xterm.js and
// bridges it to one shell session per page over a websocket.
package web

import (
	"context"
	_ "embed"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"webterm/termos/proto"
)

//go:embed static/index.html
var indexHTML []byte

// Config of a Server.
type Config struct {
	Build Builder
	// MaxDetached bounds the sessions kept for resumption.
	MaxDetached int
	// Scrollback bounds the bytes repainted on resume.
	Scrollback int
	// MaxConns bounds concurrent connections accepted by ListenAndServe.
	MaxConns int
}

type Server struct {
	cfg      Config
	sessions *Sessions
	up       websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer returns a Server whose sessions live until ctx is done.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Build == nil {
		return nil, errors.New("web: no session builder")
	}
	if cfg.MaxDetached == 0 {
		cfg.MaxDetached = 64
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 256
	}
	sessions, err := NewSessions(ctx, cfg.Build, cfg.MaxDetached, cfg.Scrollback)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		up:       websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/", s.serveIndex)
	s.mux.HandleFunc("/ws", s.serveWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	s.mux.Handle("/metrics", promhttp.Handler())
	return s, nil
}

// Sessions exposes the session table.
func (s *Server) Sessions() *Sessions { return s.sessions }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithMessage(err, "web listen")
	}
	ln = netutil.LimitListener(ln, s.cfg.MaxConns)

	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.WithField("addr", ln.Addr().String()).Info("web surface listening")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	c := &wsConn{conn: conn}
	defer c.close()

	sess, gen := s.sessions.attach(r.URL.Query().Get("session"), c.send, c.close)
	defer s.sessions.detach(sess, gen)

	for {
		var f proto.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Kind {
		case proto.FrameInput:
			if !sess.input([]byte(f.Data)) {
				return
			}
		case proto.FrameResize:
			if f.Cols > 0 && f.Rows > 0 {
				sess.sh.Session().SetValue("term.cols", f.Cols)
				sess.sh.Session().SetValue("term.rows", f.Rows)
			}
		}
	}
}

// wsConn serializes writes to a websocket.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	once sync.Once
}

func (c *wsConn) send(f proto.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) close() {
	c.once.Do(func() { _ = c.conn.Close() })
}
