// Package breach is a three-stage puzzle that grants root on success.
package breach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"webterm/termos/proto"
	"webterm/termos/services/shell"
)

const (
	maxFailures = 3
	lockout     = 30 * time.Second

	lockKey = "breach.locked-until"
)

type stage struct {
	title  string
	prompt string
	answer func(s *shell.Session) string
}

var stages = []stage{
	{
		title:  "FIREWALL: enter the decimal value of port 0x1F90.",
		prompt: "fw> ",
		answer: func(*shell.Session) string { return "8080" },
	},
	{
		title:  "CIPHER: decode the ROT13 token 'xreary'.",
		prompt: "cipher> ",
		answer: func(*shell.Session) string { return "kernel" },
	},
	{
		title:  "ROOT KEY: the host name, reversed.",
		prompt: "key> ",
		answer: func(s *shell.Session) string { return reverse(s.Hostname()) },
	},
}

func Command() shell.Command {
	return shell.Command{
		Name:   "breach",
		Usage:  "breach",
		Desc:   "Attempt to gain root access.",
		Hidden: true,
		New:    func(env shell.Env) shell.App { return &task{env: env} },
	}
}

type task struct {
	env      shell.Env
	failures int
}

func (t *task) write(s string) { t.env.Out.Write(s) }

func (t *task) Run(_ context.Context, _ []string) error {
	sess := t.env.OS
	if sess.IsRoot() {
		t.write("you are already root\n")
		return nil
	}
	if v, ok := sess.Value(lockKey); ok {
		if until := v.(time.Time); sess.Now().Before(until) {
			return fmt.Errorf("intrusion countermeasures active, retry in %s",
				until.Sub(sess.Now()).Round(time.Second))
		}
		sess.SetValue(lockKey, nil)
	}

	if err := sess.EnterPuzzle(1, stages[0].prompt, t.answer); err != nil {
		return err
	}
	t.write(proto.Color(proto.Green, "Initiating breach sequence...") + "\n")
	t.write(proto.Color(proto.Dim, "Type `abort` to give up.") + "\n")
	t.write(stages[0].title + "\n")
	return nil
}

// answer runs on the shell goroutine for every line while the puzzle is up.
func (t *task) answer(line string) {
	sess := t.env.OS
	n := sess.Stage()
	if n == 0 {
		return
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "abort") {
		sess.ExitCapture()
		t.write("breach aborted\n")
		return
	}

	st := stages[n-1]
	if !strings.EqualFold(line, st.answer(sess)) {
		t.failures++
		t.write(proto.Color(proto.Red, fmt.Sprintf("ACCESS DENIED (%d/%d)", t.failures, maxFailures)) + "\n")
		if t.failures >= maxFailures {
			sess.ExitCapture()
			sess.SetValue(lockKey, sess.Now().Add(lockout))
			t.write(proto.Color(proto.Red, "Intrusion detected. Connection terminated.") + "\n")
		}
		return
	}

	if n == len(stages) {
		sess.SetStage(0)
		sess.SetRoot(true)
		t.write(proto.Color(proto.BrightGreen, "ACCESS GRANTED. You are root.") + "\n")
		return
	}
	next := stages[n]
	sess.SetStage(n + 1)
	sess.SetCapturePrompt(next.prompt)
	t.write(proto.Color(proto.Green, "OK") + "\n" + next.title + "\n")
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
