package mainboilerplate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func resetLog(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
		log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	})
}

func TestInitLogStampsSurface(t *testing.T) {
	resetLog(t)
	path := filepath.Join(t.TempDir(), "termos.log")

	InitLog(LogConfig{Level: "debug", Format: "json", File: path}, "console")
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("level=%v, want debug with a log file", log.GetLevel())
	}
	log.WithField("session", "s1").Debug("opened")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"surface":"console"`, `"session":"s1"`, `"msg":"opened"`} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("log=%q, missing %q", b, want)
		}
	}
}

func TestInitLogQuietsTTYSurfaces(t *testing.T) {
	resetLog(t)

	InitLog(LogConfig{Level: "info", Format: "text"}, "window")
	if log.GetLevel() != log.ErrorLevel {
		t.Fatalf("window level=%v, want error", log.GetLevel())
	}

	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	InitLog(LogConfig{Level: "info", Format: "text"}, "serve")
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("serve level=%v, want info", log.GetLevel())
	}
}
