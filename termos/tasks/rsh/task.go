// Package rsh hands the terminal to a real shell through the local bridge.
package rsh

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"webterm/termos/proto"
	"webterm/termos/services/bridge"
	"webterm/termos/services/shell"
)

// DefaultURL is dialed when rsh is given no argument.
var DefaultURL = bridge.URL(bridge.DefaultAddr)

func Command() shell.Command {
	return shell.Command{
		Name:  "rsh",
		Usage: "rsh [url]",
		Desc:  "Open a real shell through the local bridge.",
		New:   func(env shell.Env) shell.App { return &task{env: env} },
	}
}

type task struct {
	env shell.Env
}

func (t *task) Run(ctx context.Context, args []string) error {
	url := DefaultURL
	switch len(args) {
	case 0:
	case 1:
		url = args[0]
	default:
		return fmt.Errorf("%w: rsh [url]", shell.ErrUsage)
	}

	client, err := bridge.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("local shell bridge unreachable (is `termos bridge` running?): %v", err)
	}

	sess := t.env.OS
	err = sess.EnterPassthrough(func(line string) {
		if err := client.Send(line); err != nil {
			t.env.Out.Write(proto.Color(proto.Red, "rsh: connection lost") + "\n")
			_ = client.Close()
			sess.ExitCapture()
		}
	})
	if err != nil {
		_ = client.Close()
		return err
	}

	t.env.Out.Write(proto.Color(proto.Dim, "connected to "+url+"; type `exit` to return") + "\n")
	go t.pump(client)
	return nil
}

// pump copies remote output to the terminal until the remote side goes
// away, then hands the terminal back to the shell.
func (t *task) pump(client *bridge.Client) {
	code, err := client.Pump(t.env.Out.Write)
	_ = client.Close()

	if err != nil {
		log.WithError(err).Debug("rsh connection ended")
		t.env.Out.Write("\n" + proto.Color(proto.Red, "rsh: connection closed") + "\n")
	} else {
		t.env.Out.Write(proto.Color(proto.Dim, fmt.Sprintf("rsh: remote shell exited (%d)", code)) + "\n")
	}
	t.env.OS.ReleaseCapture()
}
