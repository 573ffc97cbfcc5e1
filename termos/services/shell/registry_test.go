package shell

import (
	"context"
	"strings"
	"testing"
)

func nopFactory(Env) App {
	return AppFunc(func(context.Context, []string) error { return nil })
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Command{Name: "List", Aliases: []string{"dir", "ls"}, New: nopFactory}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, name := range []string{"list", "LIST", "dir", "ls"} {
		cmd, ok := r.Resolve(name)
		if !ok || cmd.Name != "list" {
			t.Fatalf("Resolve(%q)=(%q, %v), want list", name, cmd.Name, ok)
		}
	}
	if _, ok := r.Resolve("nope"); ok {
		t.Fatalf("Resolve(nope) ok=true")
	}
}

func TestRegistry_DuplicateFirstWins(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Command{Name: "echo", Desc: "first", New: nopFactory})

	err := r.Register(Command{Name: "echo", Desc: "second", New: nopFactory})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err=%v, want duplicate error", err)
	}
	cmd, _ := r.Resolve("echo")
	if cmd.Desc != "first" {
		t.Fatalf("desc=%q, want %q", cmd.Desc, "first")
	}

	// A clashing alias rejects the whole command.
	err = r.Register(Command{Name: "print", Aliases: []string{"echo"}, New: nopFactory})
	if err == nil {
		t.Fatalf("alias clash accepted")
	}
	if _, ok := r.Resolve("print"); ok {
		t.Fatalf("rejected command was partially registered")
	}
}

func TestRegistry_Invalid(t *testing.T) {
	r := NewRegistry()
	for _, cmd := range []Command{
		{Name: "", New: nopFactory},
		{Name: "two words", New: nopFactory},
		{Name: "nofactory"},
	} {
		if err := r.Register(cmd); err == nil {
			t.Fatalf("Register(%+v) accepted", cmd)
		}
	}
}

func TestRegistry_Matches(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Command{Name: "cat", New: nopFactory})
	_ = r.Register(Command{Name: "cd", Aliases: []string{"chdir"}, New: nopFactory})
	_ = r.Register(Command{Name: "clear", New: nopFactory})
	_ = r.Register(Command{Name: "crash", Hidden: true, New: nopFactory})

	got := strings.Join(r.Matches("c"), ",")
	if got != "cat,cd,chdir,clear,crash" {
		t.Fatalf("Matches(c)=%q", got)
	}
	got = strings.Join(r.Matches("ch"), ",")
	if got != "chdir" {
		t.Fatalf("Matches(ch)=%q", got)
	}
	if len(r.Commands()) != 3 {
		t.Fatalf("Commands()=%d, want 3 visible", len(r.Commands()))
	}
	if len(r.Names()) != 4 {
		t.Fatalf("Names()=%d, want 4", len(r.Names()))
	}
}
