package bridge

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"webterm/termos/metrics"
)

// ErrNotLoopback is returned when asked to listen on a non-loopback address.
var ErrNotLoopback = errors.New("bridge only listens on loopback addresses")

// Config of a Server.
type Config struct {
	// Dir is the initial working directory of every interpreter.
	Dir string
	// CommandTimeout bounds a single line. Zero means one minute.
	CommandTimeout time.Duration
	// MaxConns bounds concurrent connections accepted by ListenAndServe.
	MaxConns int
}

// Server runs one persistent interpreter per websocket connection.
type Server struct {
	cfg Config
	up  websocket.Upgrader
}

func NewServer(cfg Config) *Server {
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = time.Minute
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	return &Server{
		cfg: cfg,
		up: websocket.Upgrader{
			// Browsers are not expected here; the loopback check gates access.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// IsLoopback reports whether a host:port (or bare host) names a loopback
// address. "localhost" counts.
func IsLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}

// ListenAndServe serves the bridge on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if !IsLoopback(addr) {
		return errors.WithMessage(ErrNotLoopback, addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithMessage(err, "bridge listen")
	}
	ln = netutil.LimitListener(ln, s.cfg.MaxConns)

	mux := http.NewServeMux()
	mux.Handle(Path, s)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	log.WithField("addr", ln.Addr().String()).Info("bridge listening")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !IsLoopback(r.RemoteAddr) {
		log.WithField("remote", r.RemoteAddr).Warn("rejected non-loopback bridge client")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("bridge upgrade failed")
		return
	}
	defer conn.Close()

	sess, err := s.newSession(conn)
	if err != nil {
		log.WithError(err).Error("starting interpreter")
		return
	}
	sess.serve(r.Context())
}

type session struct {
	srv    *Server
	conn   *websocket.Conn
	wmu    sync.Mutex
	runner *interp.Runner
	parser *syntax.Parser
	log    *log.Entry
}

func (s *Server) newSession(conn *websocket.Conn) (*session, error) {
	sess := &session{
		srv:    s,
		conn:   conn,
		parser: syntax.NewParser(),
		log:    log.WithField("remote", conn.RemoteAddr().String()),
	}
	out := outputWriter{sess}

	opts := []interp.RunnerOption{interp.StdIO(nil, out, out)}
	if s.cfg.Dir != "" {
		opts = append(opts, interp.Dir(s.cfg.Dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return nil, err
	}
	sess.runner = runner
	return sess, nil
}

func (sess *session) send(m Message) error {
	sess.wmu.Lock()
	defer sess.wmu.Unlock()
	return sess.conn.WriteJSON(m)
}

func (sess *session) prompt() string {
	return fmt.Sprintf("%s$ ", filepath.Base(sess.runner.Dir))
}

func (sess *session) serve(ctx context.Context) {
	sess.log.Info("bridge client connected")
	defer sess.log.Info("bridge client disconnected")

	if err := sess.send(Message{Type: TypePrompt, Data: sess.prompt()}); err != nil {
		return
	}
	for {
		var m Message
		if err := sess.conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.log.WithError(err).Debug("bridge read failed")
			}
			return
		}
		if m.Type != TypeLine {
			continue
		}

		code, exited := sess.run(ctx, m.Data)
		if exited {
			_ = sess.send(Message{Type: TypeExit, Code: code})
			sess.wmu.Lock()
			_ = sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "exit"),
				time.Now().Add(time.Second))
			sess.wmu.Unlock()
			return
		}
		if err := sess.send(Message{Type: TypePrompt, Data: sess.prompt()}); err != nil {
			return
		}
	}
}

// run executes one line and reports whether the interpreter exited.
func (sess *session) run(ctx context.Context, line string) (code int, exited bool) {
	prog, err := sess.parser.Parse(strings.NewReader(line), "")
	if err != nil {
		metrics.BridgeCommandsTotal.WithLabelValues(metrics.Fail).Inc()
		_ = sess.send(Message{Type: TypeOutput, Data: fmt.Sprintf("syntax error: %v\n", err)})
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, sess.srv.cfg.CommandTimeout)
	defer cancel()

	err = sess.runner.Run(ctx, prog)
	status, isStatus := interp.IsExitStatus(err)
	switch {
	case err == nil:
		metrics.BridgeCommandsTotal.WithLabelValues(metrics.Ok).Inc()
	case isStatus:
		metrics.BridgeCommandsTotal.WithLabelValues(metrics.Fail).Inc()
	default:
		metrics.BridgeCommandsTotal.WithLabelValues(metrics.Fail).Inc()
		_ = sess.send(Message{Type: TypeOutput, Data: fmt.Sprintf("error: %v\n", err)})
	}
	if sess.runner.Exited() {
		return int(status), true
	}
	return int(status), false
}

type outputWriter struct{ sess *session }

func (w outputWriter) Write(p []byte) (int, error) {
	if err := w.sess.send(Message{Type: TypeOutput, Data: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}
