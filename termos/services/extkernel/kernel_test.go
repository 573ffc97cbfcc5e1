package extkernel

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"webterm/termos/services/shell"
	"webterm/termos/vfs"
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

func TestDefaultScriptCommands(t *testing.T) {
	fs := vfs.NewStandard()
	require.NoError(t, fs.WriteFile("/etc/motd", "one\ntwo\n"))

	k, err := Default(fs)
	require.NoError(t, err)

	var out termRec
	require.NoError(t, k.Execute(context.Background(), "hello ada", &out))
	require.Equal(t, "hello, ada\n", out.String())

	out = termRec{}
	require.NoError(t, k.Execute(context.Background(), "motdstat", &out))
	require.Equal(t, "2 lines in /etc/motd\n", out.String())

	out = termRec{}
	require.NoError(t, k.Execute(context.Background(), "SUDO rm -rf /", &out))
	require.Contains(t, out.String(), "not in the sudoers file")

	out = termRec{}
	require.NoError(t, k.Execute(context.Background(), "cowsay hi", &out))
	require.Contains(t, out.String(), "< hi >")
}

func TestDeclinedLine(t *testing.T) {
	k, err := Default(vfs.NewStandard())
	require.NoError(t, err)

	var out termRec
	err = k.Execute(context.Background(), "frobnicate", &out)
	require.ErrorIs(t, err, shell.ErrUnknownCommand)
	require.Empty(t, out.String())

	err = k.Execute(context.Background(), "   ", &out)
	require.ErrorIs(t, err, shell.ErrUnknownCommand)
}

func TestReturnValues(t *testing.T) {
	src := `
def execute(line):
    if line == "none":
        return None
    if line == "false":
        return False
    if line == "true":
        write("wrote\n")
        return True
    if line == "list":
        return ls("/home")
    if line == "print":
        print("printed")
        return True
    if line == "fail":
        fail("boom")
    return 42
`
	k, err := New("test.star", []byte(src), vfs.NewStandard())
	require.NoError(t, err)

	ctx := context.Background()
	var out termRec
	require.ErrorIs(t, k.Execute(ctx, "none", &out), shell.ErrUnknownCommand)
	require.ErrorIs(t, k.Execute(ctx, "false", &out), shell.ErrUnknownCommand)

	require.NoError(t, k.Execute(ctx, "true", &out))
	require.Equal(t, "wrote\n", out.String())

	out = termRec{}
	require.NoError(t, k.Execute(ctx, "list", &out))
	require.Equal(t, "[\"user\"]\n", out.String())

	out = termRec{}
	require.NoError(t, k.Execute(ctx, "print", &out))
	require.Equal(t, "printed\n", out.String())

	out = termRec{}
	require.NoError(t, k.Execute(ctx, "other", &out))
	require.Equal(t, "42\n", out.String())

	err = k.Execute(ctx, "fail", &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestMissingExecute(t *testing.T) {
	_, err := New("bad.star", []byte("x = 1\n"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no execute function")

	_, err = New("syntax.star", []byte("def execute(:\n"), nil)
	require.Error(t, err)
}

func TestCancelStopsLoop(t *testing.T) {
	src := `
def execute(line):
    while True:
        pass
`
	k, err := New("loop.star", []byte(src), nil)
	require.NoError(t, err)
	k.MaxSteps = 0

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out termRec
	err = k.Execute(ctx, "spin", &out)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStepLimit(t *testing.T) {
	src := `
def execute(line):
    n = 0
    while True:
        n += 1
`
	k, err := New("loop.star", []byte(src), nil)
	require.NoError(t, err)
	k.MaxSteps = 1000

	var out termRec
	err = k.Execute(context.Background(), "spin", &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "too many steps")
}

func TestLoadFromAfero(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/etc/termos/kernel.star", []byte("def execute(line):\n    return \"ok\"\n"), 0o644))

	k, err := Load(afs, "/etc/termos/kernel.star", nil)
	require.NoError(t, err)

	var out termRec
	require.NoError(t, k.Execute(context.Background(), "anything", &out))
	require.Equal(t, "ok\n", out.String())

	_, err = Load(afs, "/missing.star", nil)
	require.Error(t, err)

	k, err = Load(afs, "", nil)
	require.NoError(t, err)
	require.NotNil(t, k)
}
