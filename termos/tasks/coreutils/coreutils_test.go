package coreutils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"webterm/hal"
	"webterm/termos/services/shell"
	"webterm/termos/vfs"
)

type termRec struct {
	mu     sync.Mutex
	b      strings.Builder
	clears int
}

func (t *termRec) Write(s string) {
	t.mu.Lock()
	t.b.WriteString(s)
	t.mu.Unlock()
}

func (t *termRec) Clear() {
	t.mu.Lock()
	t.clears++
	t.mu.Unlock()
}

func (t *termRec) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.b.String()
}

func (t *termRec) take() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.b.String()
	t.b.Reset()
	return s
}

type chanKeyboard chan []byte

func (k chanKeyboard) Input() <-chan []byte { return k }

func newRegistry(t *testing.T) *shell.Registry {
	t.Helper()
	reg := shell.NewRegistry()
	for _, c := range Commands() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("Register(%s): %v", c.Name, err)
		}
	}
	return reg
}

type fixture struct {
	env shell.Env
	out *termRec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := vfs.NewStandard()
	out := &termRec{}
	sh := shell.New(shell.Config{Registry: newRegistry(t), FS: fs, Terminal: out})
	return &fixture{
		env: shell.Env{Out: out, FS: fs, WM: hal.NoWindows{}, OS: sh.Session()},
		out: out,
	}
}

// run executes line and returns its output.
func (f *fixture) run(t *testing.T, line string) (string, error) {
	t.Helper()
	args := shell.SplitLine(line)
	c, ok := f.env.OS.Registry().Resolve(args[0])
	if !ok {
		t.Fatalf("unknown command %q", args[0])
	}
	f.out.take()
	err := c.New(f.env).Run(context.Background(), args[1:])
	return f.out.take(), err
}

func (f *fixture) mustRun(t *testing.T, line string) string {
	t.Helper()
	out, err := f.run(t, line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return out
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func TestFileCommands(t *testing.T) {
	f := newFixture(t)

	if got := f.mustRun(t, "pwd"); got != "/home/user\n" {
		t.Fatalf("pwd=%q, want %q", got, "/home/user\n")
	}
	f.mustRun(t, "mkdir notes")
	f.mustRun(t, "write notes/todo.txt buy milk")
	f.mustRun(t, "write -a notes/todo.txt call mom")
	if got := f.mustRun(t, "cat notes/todo.txt"); got != "buy milk\ncall mom\n" {
		t.Fatalf("cat=%q", got)
	}

	f.mustRun(t, "cd notes")
	if got := f.env.OS.Cwd(); got != "/home/user/notes" {
		t.Fatalf("cwd=%q", got)
	}
	f.mustRun(t, "touch b.txt")
	f.mustRun(t, "cp todo.txt a.txt")
	if got := stripANSI(f.mustRun(t, "ls")); got != "a.txt  b.txt  todo.txt\n" {
		t.Fatalf("ls=%q", got)
	}
	if got := stripANSI(f.mustRun(t, "ls ..")); !strings.Contains(got, "notes/") {
		t.Fatalf("ls ..=%q, want notes/", got)
	}

	long := stripANSI(f.mustRun(t, "ls -l todo.txt"))
	if !strings.HasPrefix(long, "-rw-r--r--") || !strings.Contains(long, "18 B") {
		t.Fatalf("ls -l=%q", long)
	}

	f.mustRun(t, "cd")
	if got := f.env.OS.Cwd(); got != "/home/user" {
		t.Fatalf("cd with no args: cwd=%q", got)
	}
}

func TestFileErrors(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct {
		line string
		want string
	}{
		{"cat missing.txt", "missing.txt: no such file or directory"},
		{"cd nowhere", "nowhere: no such file or directory"},
		{"cat /home", "/home: is a directory"},
		{"ls /nope", "/nope: no such file or directory"},
		{"mkdir a/b", "a/b: no such file or directory"},
		{"mkdir /etc/x", "/etc/x: permission denied"},
		{"write /etc/motd hacked", "/etc/motd: permission denied"},
		{"cd /root", "/root: permission denied"},
		{"ls -z", "invalid option -- 'z'"},
		{"cat", "usage: cat <path...>"},
	} {
		_, err := f.run(t, tc.line)
		if err == nil || err.Error() != tc.want {
			t.Fatalf("%s: err=%v, want %q", tc.line, err, tc.want)
		}
	}

	_, err := f.run(t, "cat missing.txt")
	if !errors.Is(err, vfs.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	_, err = f.run(t, "cat")
	if !errors.Is(err, shell.ErrUsage) {
		t.Fatalf("err=%v, want ErrUsage", err)
	}

	f.mustRun(t, "mkdir -p a/b")
	if _, err := f.run(t, "mkdir a"); err == nil || err.Error() != "a: file exists" {
		t.Fatalf("mkdir existing: err=%v", err)
	}
}

func TestRootMayWriteAnywhere(t *testing.T) {
	f := newFixture(t)
	f.env.OS.SetRoot(true)

	f.mustRun(t, "write /etc/motd hello")
	f.mustRun(t, "cd /root")
	if got := f.mustRun(t, "whoami"); got != "root\n" {
		t.Fatalf("whoami=%q", got)
	}

	if got := f.mustRun(t, "logout"); got != "logout\n" {
		t.Fatalf("logout=%q", got)
	}
	if f.env.OS.IsRoot() || f.env.OS.Cwd() != "/home/user" {
		t.Fatalf("after logout: root=%v cwd=%q", f.env.OS.IsRoot(), f.env.OS.Cwd())
	}
}

func TestTreeAndFind(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "write projects/one.txt 1")
	f.mustRun(t, "write projects/two.md 2")

	got := stripANSI(f.mustRun(t, "tree"))
	want := ".\n" +
		"├── experience/\n" +
		"└── projects/\n" +
		"    ├── one.txt\n" +
		"    └── two.md\n" +
		"\n2 directories, 2 files\n"
	if got != want {
		t.Fatalf("tree=%q, want %q", got, want)
	}

	if got := f.mustRun(t, "find / -name *.md"); got != "/home/user/projects/two.md\n" {
		t.Fatalf("find=%q", got)
	}
	if got := f.mustRun(t, "find /root"); got != "" {
		t.Fatalf("find /root as guest=%q, want nothing", got)
	}
}

func TestTextCommands(t *testing.T) {
	f := newFixture(t)
	if err := f.env.FS.WriteFile("/tmp/log", "alpha\nBeta\ngamma\nbeta max\n"); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct{ line, want string }{
		{"head -n 2 /tmp/log", "alpha\nBeta\n"},
		{"tail -n 2 /tmp/log", "gamma\nbeta max\n"},
		{"tail -n 0 /tmp/log", ""},
		{"wc /tmp/log", "4\t5\t26\t/tmp/log\n"},
		{"wc -l /tmp/log", "4\t/tmp/log\n"},
		{"grep beta /tmp/log", "beta max\n"},
		{"grep -i beta /tmp/log", "Beta\nbeta max\n"},
	} {
		if got := stripANSI(f.mustRun(t, tc.line)); got != tc.want {
			t.Fatalf("%s=%q, want %q", tc.line, got, tc.want)
		}
	}
	if got := stripANSI(f.mustRun(t, "grep -n gamma /tmp/log")); got != "3:gamma\n" {
		t.Fatalf("grep -n=%q", got)
	}
}

func TestCoreCommands(t *testing.T) {
	f := newFixture(t)

	help := f.mustRun(t, "help")
	if !strings.Contains(help, "ls") || strings.Contains(help, "fsck") {
		t.Fatalf("help lists hidden or misses visible commands: %q", help)
	}
	if got := f.mustRun(t, "help ls"); !strings.HasPrefix(got, "usage: ls [-l] [path...]\n") {
		t.Fatalf("help ls=%q", got)
	}
	if got := f.mustRun(t, `echo "a  b" c`); got != "a  b c\n" {
		t.Fatalf("echo=%q", got)
	}
	if got := f.mustRun(t, "echo -n x"); got != "x" {
		t.Fatalf("echo -n=%q", got)
	}
	if got := f.mustRun(t, "uname"); got != "termos\n" {
		t.Fatalf("uname=%q", got)
	}
	if got := f.mustRun(t, "uptime"); !strings.HasPrefix(got, "up ") {
		t.Fatalf("uptime=%q", got)
	}

	f.mustRun(t, "clear")
	if f.out.clears != 1 {
		t.Fatalf("clears=%d, want 1", f.out.clears)
	}

	if _, err := f.run(t, "fsck"); err == nil {
		t.Fatalf("fsck outside recovery mode succeeded")
	}
}

func TestShellScenario(t *testing.T) {
	fs := vfs.NewStandard()
	for _, name := range []string{"termos.txt", "bridge.txt"} {
		if err := fs.WriteFile("/home/user/projects/"+name, name+"\n"); err != nil {
			t.Fatal(err)
		}
	}
	out := &termRec{}
	kb := make(chanKeyboard, 8)
	sh := shell.New(shell.Config{
		Registry: newRegistry(t),
		FS:       fs,
		Terminal: out,
		Keyboard: kb,
		Boot:     shell.BootConfig{Skip: true},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	kb <- []byte("cd /home/user/projects\r")
	kb <- []byte("ls\r")
	kb <- []byte("cat missing.txt\r")

	want := "cat: missing.txt: no such file or directory"
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(stripANSI(out.String()), want) {
		if time.Now().After(deadline) {
			t.Fatalf("output=%q, want %q", stripANSI(out.String()), want)
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := stripANSI(out.String())
	if !strings.Contains(got, "bridge.txt  termos.txt\n") {
		t.Fatalf("ls output missing in %q", got)
	}
	if !strings.Contains(got, "guest@termos:~/projects$ ") {
		t.Fatalf("prompt missing in %q", got)
	}

	close(kb)
	if err := <-done; err != nil {
		t.Fatalf("Run=%v", err)
	}
}
