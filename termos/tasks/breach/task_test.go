package breach

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"webterm/termos/kernel"
	"webterm/termos/services/shell"
)

type termRec struct {
	mu sync.Mutex
	b  strings.Builder
}

func (t *termRec) Write(s string) {
	t.mu.Lock()
	t.b.WriteString(s)
	t.mu.Unlock()
}

func (t *termRec) Clear() {}

func (t *termRec) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.b.String()
}

type chanKeyboard chan []byte

func (k chanKeyboard) Input() <-chan []byte { return k }

type harness struct {
	sh    *shell.Shell
	out   *termRec
	kb    chanKeyboard
	clock *kernel.FakeClock
}

func start(t *testing.T) *harness {
	t.Helper()
	reg := shell.NewRegistry()
	if err := reg.Register(Command()); err != nil {
		t.Fatal(err)
	}
	h := &harness{out: &termRec{}, kb: make(chanKeyboard, 16), clock: kernel.NewFakeClock(time.Unix(1700000000, 0))}
	h.sh = shell.New(shell.Config{
		Registry: reg,
		Terminal: h.out,
		Keyboard: h.kb,
		Clock:    h.clock,
		Hostname: "termos",
		Boot:     shell.BootConfig{Skip: true},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.sh.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *harness) send(t *testing.T, line, want string) {
	t.Helper()
	before := strings.Count(h.out.String(), want)
	h.kb <- []byte(line + "\r")
	deadline := time.Now().Add(5 * time.Second)
	for strings.Count(h.out.String(), want) <= before {
		if time.Now().After(deadline) {
			t.Fatalf("after %q: output=%q, want %q", line, h.out.String(), want)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestBreachGrantsRoot(t *testing.T) {
	h := start(t)
	sess := h.sh.Session()

	h.send(t, "breach", "FIREWALL")
	if sess.Capture() != shell.CapturePuzzle || sess.Stage() != 1 {
		t.Fatalf("capture=%v stage=%d, want puzzle at stage 1", sess.Capture(), sess.Stage())
	}
	h.send(t, "8080", "CIPHER")
	h.send(t, "KERNEL", "ROOT KEY")
	h.send(t, "somret", "ACCESS GRANTED")

	if !sess.IsRoot() || sess.Capture() != shell.CaptureNone {
		t.Fatalf("root=%v capture=%v", sess.IsRoot(), sess.Capture())
	}
	h.send(t, "breach", "already root")
}

func TestBreachAbort(t *testing.T) {
	h := start(t)
	h.send(t, "breach", "FIREWALL")
	h.send(t, "abort", "breach aborted")
	if h.sh.Session().Capture() != shell.CaptureNone || h.sh.Session().IsRoot() {
		t.Fatalf("abort left capture=%v root=%v", h.sh.Session().Capture(), h.sh.Session().IsRoot())
	}
}

func TestBreachLockout(t *testing.T) {
	h := start(t)
	h.send(t, "breach", "FIREWALL")
	h.send(t, "1", "(1/3)")
	h.send(t, "2", "(2/3)")
	h.send(t, "3", "Connection terminated")

	if h.sh.Session().Capture() != shell.CaptureNone {
		t.Fatalf("capture=%v after lockout", h.sh.Session().Capture())
	}
	h.send(t, "breach", "retry in 30s")

	h.clock.Advance(31 * time.Second)
	h.send(t, "breach", "FIREWALL")
	if h.sh.Session().Stage() != 1 {
		t.Fatalf("stage=%d after lockout expired", h.sh.Session().Stage())
	}
}
