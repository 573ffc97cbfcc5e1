package boot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"webterm/termos/kernel"
)

type recTerm struct {
	mu      sync.Mutex
	writes  []string
	clears  int
	onWrite func(n int)
}

func (t *recTerm) Write(s string) {
	t.mu.Lock()
	t.writes = append(t.writes, s)
	n := len(t.writes)
	fn := t.onWrite
	t.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

func (t *recTerm) Clear() {
	t.mu.Lock()
	t.clears++
	t.mu.Unlock()
}

func (t *recTerm) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writes)
}

func (t *recTerm) text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.writes, "")
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func samePath(a, b []State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRun_Normal(t *testing.T) {
	clk := kernel.NewFakeClock(epoch)
	clk.AutoAdvance = true
	out := &recTerm{}
	seq := New(Config{Out: out, Clock: clk, CharDelay: DefaultCharDelay, LineDelay: DefaultLineDelay})

	var results []Result
	if err := seq.Run(context.Background(), func(r Result) { results = append(results, r) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("done called %d times, want 1", len(results))
	}
	r := results[0]
	want := []State{StatePOST, StateBootloader, StateKernelInit, StateDone}
	if !samePath(r.Path, want) {
		t.Fatalf("path=%v, want %v", r.Path, want)
	}
	if r.Mode != ModeNormal || r.Skipped {
		t.Fatalf("result=%+v", r)
	}
	if clk.Now().Sub(epoch) <= 0 {
		t.Fatalf("no virtual time elapsed")
	}
	if !strings.Contains(out.text(), "Memory") {
		t.Fatalf("POST output missing")
	}
	if seq.State() != StateDone {
		t.Fatalf("state=%v, want DONE", seq.State())
	}
}

func TestRun_SkipStopsOutput(t *testing.T) {
	for _, at := range []int{1, 5, 40} {
		clk := kernel.NewFakeClock(epoch)
		clk.AutoAdvance = true
		out := &recTerm{}
		seq := New(Config{Out: out, Clock: clk, CharDelay: DefaultCharDelay, LineDelay: DefaultLineDelay})

		skippedAt := -1
		out.onWrite = func(n int) {
			if n == at {
				skippedAt = n
				seq.RequestSkip()
			}
		}

		calls := 0
		var got Result
		if err := seq.Run(context.Background(), func(r Result) { calls++; got = r }); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if calls != 1 {
			t.Fatalf("skip at %d: done called %d times, want 1", at, calls)
		}
		if !got.Skipped {
			t.Fatalf("skip at %d: Skipped=false", at)
		}
		if out.count() != skippedAt {
			t.Fatalf("skip at %d: %d writes, want no output after the skip", at, out.count())
		}
		if out.clears == 0 {
			t.Fatalf("skip at %d: surface not cleared", at)
		}
	}
}

func TestRun_RecoveryKeyDuringPOST(t *testing.T) {
	clk := kernel.NewFakeClock(epoch)
	clk.AutoAdvance = true
	out := &recTerm{}
	seq := New(Config{Out: out, Clock: clk, CharDelay: DefaultCharDelay, LineDelay: DefaultLineDelay})

	// Write 5 is inside the first check's label.
	out.onWrite = func(n int) {
		if n == 5 {
			seq.ObserveRecoveryKey()
		}
	}

	var got Result
	if err := seq.Run(context.Background(), func(r Result) { got = r }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []State{StatePOST, StateRecoveryMenu, StateDone}
	if !samePath(got.Path, want) {
		t.Fatalf("path=%v, want %v", got.Path, want)
	}
	text := out.text()
	if !strings.Contains(text, "Recovery Menu") {
		t.Fatalf("menu not shown: %q", text)
	}
	if strings.Contains(text, "Memory") || strings.Contains(text, "GRUB") {
		t.Fatalf("POST kept running after the recovery key: %q", text)
	}
	if got.Mode != ModeNormal {
		t.Fatalf("mode=%v, want normal after the menu timeout", got.Mode)
	}
}

func TestRun_RecoveryKeyAfterPOSTIgnored(t *testing.T) {
	for _, during := range []State{StateBootloader, StateKernelInit} {
		clk := kernel.NewFakeClock(epoch)
		clk.AutoAdvance = true
		out := &recTerm{}
		seq := New(Config{Out: out, Clock: clk, CharDelay: DefaultCharDelay, LineDelay: DefaultLineDelay})

		pressed := false
		out.onWrite = func(int) {
			if !pressed && seq.State() == during {
				pressed = true
				seq.ObserveRecoveryKey()
			}
		}

		var got Result
		if err := seq.Run(context.Background(), func(r Result) { got = r }); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !pressed {
			t.Fatalf("%v never reached", during)
		}
		want := []State{StatePOST, StateBootloader, StateKernelInit, StateDone}
		if !samePath(got.Path, want) {
			t.Fatalf("key during %v: path=%v, want %v", during, got.Path, want)
		}
		if strings.Contains(out.text(), "Recovery Menu") {
			t.Fatalf("key during %v: menu shown", during)
		}
	}
}

func TestRun_SkipBeforeStart(t *testing.T) {
	out := &recTerm{}
	seq := New(Config{Out: out, Clock: kernel.NewFakeClock(epoch)})
	seq.RequestSkip()

	var got Result
	if err := seq.Run(context.Background(), func(r Result) { got = r }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.Skipped || out.count() != 0 {
		t.Fatalf("result=%+v writes=%d", got, out.count())
	}
	if !samePath(got.Path, []State{StateDone}) {
		t.Fatalf("path=%v", got.Path)
	}
}

func startMenu(t *testing.T) (*Sequencer, *kernel.FakeClock, <-chan Result) {
	t.Helper()
	clk := kernel.NewFakeClock(epoch)
	seq := New(Config{Out: &recTerm{}, Clock: clk})
	seq.ObserveRecoveryKey()

	results := make(chan Result, 2)
	go func() {
		_ = seq.Run(context.Background(), func(r Result) { results <- r })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for seq.State() != StateRecoveryMenu || clk.Waiters() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("menu not reached: state=%v", seq.State())
		}
		time.Sleep(time.Millisecond)
	}
	return seq, clk, results
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
		return Result{}
	}
}

func TestRecoveryMenu_Timeout(t *testing.T) {
	_, clk, results := startMenu(t)

	clk.Advance(4 * time.Second)
	select {
	case r := <-results:
		t.Fatalf("completed before timeout: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(time.Second)
	r := waitResult(t, results)
	if r.Mode != ModeNormal || r.Skipped {
		t.Fatalf("result=%+v, want normal boot", r)
	}
	want := []State{StatePOST, StateRecoveryMenu, StateDone}
	if !samePath(r.Path, want) {
		t.Fatalf("path=%v, want %v", r.Path, want)
	}
}

func TestRecoveryMenu_Choice(t *testing.T) {
	tests := []struct {
		n    int
		want Mode
	}{
		{2, ModeRecovery},
		{3, ModeSafe},
		{4, ModeDeveloper},
	}
	for _, tt := range tests {
		seq, _, results := startMenu(t)
		if seq.Choose(9) {
			t.Fatalf("Choose(9) accepted")
		}
		if !seq.Choose(tt.n) {
			t.Fatalf("Choose(%d) rejected", tt.n)
		}
		r := waitResult(t, results)
		if r.Mode != tt.want {
			t.Fatalf("Choose(%d): mode=%v, want %v", tt.n, r.Mode, tt.want)
		}
	}
}

func TestChoose_OutsideMenu(t *testing.T) {
	seq := New(Config{Out: &recTerm{}})
	if seq.Choose(2) {
		t.Fatalf("Choose accepted before the menu")
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	clk := kernel.NewFakeClock(epoch)
	seq := New(Config{Out: &recTerm{}, Clock: clk, LineDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	called := make(chan struct{}, 1)
	go func() {
		errc <- seq.Run(ctx, func(Result) { called <- struct{}{} })
	}()
	cancel()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("err=%v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}
	select {
	case <-called:
		t.Fatalf("done called on cancellation")
	default:
	}
}
