package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/spf13/afero"

	"webterm/hal"
	"webterm/termos/services/boot"
)

func testConfig() Config {
	var cfg Config
	cfg.Store = "memory"
	cfg.Boot.Skip = true
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if _, err := flags.NewParser(&cfg, flags.Default).ParseArgs(nil); err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Boot.MenuTimeout != boot.DefaultMenuTimeout {
		t.Fatalf("MenuTimeout=%v, want %v", cfg.Boot.MenuTimeout, boot.DefaultMenuTimeout)
	}
	if cfg.Boot.CharDelay != boot.DefaultCharDelay {
		t.Fatalf("CharDelay=%v, want %v", cfg.Boot.CharDelay, boot.DefaultCharDelay)
	}
	if cfg.Store != "memory" || cfg.Boot.Skip {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestRegistryHasEveryCommandSet(t *testing.T) {
	sys, err := New(testConfig(), afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sys.Close()

	for _, name := range []string{"help", "ls", "cat", "grep", "about", "projects", "open", "breach", "rsh", "jobs"} {
		if _, ok := sys.Registry().Resolve(name); !ok {
			t.Fatalf("command %q not registered", name)
		}
	}
	if sys.Profile().Hostname != "termos" {
		t.Fatalf("hostname=%q, want %q", sys.Profile().Hostname, "termos")
	}
}

func TestRunScriptedSession(t *testing.T) {
	sys, err := New(testConfig(), afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sys.Close()

	var out bytes.Buffer
	script, err := hal.NewScript(strings.NewReader("echo hi there\ncat /etc/hostname\nhello ada\nnosuchcmd\n"), &out, 0)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sys.Run(ctx, "script", script); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"hi there\n", "termos\n", "hello, ada", "nosuchcmd"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSessionsDoNotShareFilesystems(t *testing.T) {
	sys, err := New(testConfig(), afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sys.Close()

	a, err := sys.NewFS()
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	b, err := sys.NewFS()
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := a.WriteFile("/tmp/note.txt", "x"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if b.Exists("/tmp/note.txt") {
		t.Fatalf("write leaked between sessions")
	}
	if !b.Exists("/home/user/about.txt") {
		t.Fatalf("profile not populated")
	}
}

func TestLoadErrors(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := afero.WriteFile(afs, "/bad.star", []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Fallback = "/bad.star"
	if _, err := New(cfg, afs); err == nil || !strings.Contains(err.Error(), "no execute function") {
		t.Fatalf("err=%v, want missing execute", err)
	}

	cfg = testConfig()
	cfg.Profile = "/missing.yaml"
	if _, err := New(cfg, afs); err == nil {
		t.Fatalf("expected error for missing profile")
	}
}

func TestOverlayAppliesToEverySession(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := afero.WriteFile(afs, "/site/etc/motd", []byte("hi from overlay\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Overlay = "/site"
	sys, err := New(cfg, afs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sys.Close()

	fs, err := sys.NewFS()
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if got, _ := fs.ReadFile("/etc/motd"); got != "hi from overlay\n" {
		t.Fatalf("motd=%q", got)
	}

	cfg.Overlay = "/missing"
	if _, err := New(cfg, afs); err == nil {
		t.Fatalf("expected error for a missing overlay")
	}
}
