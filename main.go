package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"webterm/app"
	"webterm/hal"
	"webterm/internal/buildinfo"
	mbp "webterm/internal/mainboilerplate"
	"webterm/termos/metrics"
	"webterm/termos/services/bridge"
	"webterm/termos/services/vfsmount"
	"webterm/termos/services/web"
)

const iniFilename = "termos.ini"

// Config is the top-level configuration of termos.
var Config = new(struct {
	App app.Config    `group:"Application" namespace:"app" env-namespace:"TERMOS"`
	Log mbp.LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
})

type cmdServe struct {
	Addr        string `long:"addr" env:"ADDR" default:":8080" description:"Address of the web surface"`
	MaxDetached int    `long:"max-detached" env:"MAX_DETACHED" default:"64" description:"Detached sessions kept for resumption"`
	Scrollback  int    `long:"scrollback" env:"SCROLLBACK" default:"65536" description:"Bytes of output repainted on resume"`
	MaxConns    int    `long:"max-conns" env:"MAX_CONNS" default:"256" description:"Maximum concurrent connections"`
	Bridge      string `long:"bridge" env:"BRIDGE" description:"Also serve the local shell bridge on this loopback address"`
}

func (cmd *cmdServe) Execute([]string) error {
	mbp.InitLog(Config.Log, "serve")
	prometheus.MustRegister(metrics.Collectors()...)

	var sys = mustSystem()
	defer sys.Close()

	var ctx, stop = signalContext()
	defer stop()

	srv, err := web.NewServer(ctx, web.Config{
		Build:       sys.Builder(),
		MaxDetached: cmd.MaxDetached,
		Scrollback:  cmd.Scrollback,
		MaxConns:    cmd.MaxConns,
	})
	mbp.Must(err, "failed to build web surface")

	log.WithFields(log.Fields{"version": buildinfo.Short(), "addr": cmd.Addr}).Info("starting termos")

	var g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, cmd.Addr) })
	if cmd.Bridge != "" {
		var b = bridge.NewServer(bridge.Config{Dir: homeDir()})
		g.Go(func() error { return b.ListenAndServe(gctx, cmd.Bridge) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("goodbye")
	return nil
}

type cmdConsole struct{}

func (cmdConsole) Execute([]string) error {
	mbp.InitLog(Config.Log, "console")
	var sys = mustSystem()
	defer sys.Close()

	var ctx, stop = signalContext()
	defer stop()

	var c = hal.NewConsole(os.Stdin, os.Stdout)
	restore, err := c.MakeRaw()
	if err != nil {
		return err
	}
	defer restore()

	return sys.Run(ctx, uuid.NewString(), c)
}

type cmdWindow struct {
	Width  int `long:"width" default:"640" description:"Window width in pixels"`
	Height int `long:"height" default:"400" description:"Window height in pixels"`
}

func (cmd *cmdWindow) Execute([]string) error {
	mbp.InitLog(Config.Log, "window")
	var sys = mustSystem()
	defer sys.Close()

	var ctx, stop = signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var w = hal.NewWindow(cmd.Width, cmd.Height)
	var done = make(chan error, 1)
	go func() {
		done <- sys.Run(ctx, uuid.NewString(), w)
		cancel()
	}()

	// The window owns the main goroutine until it closes.
	if err := w.Run(ctx, "termos ("+buildinfo.Short()+")"); err != nil {
		return err
	}
	cancel()
	return <-done
}

type cmdScript struct {
	Delay time.Duration `long:"delay" default:"0s" description:"Pause before each line"`
	Args  struct {
		Path string `positional-arg-name:"script" description:"Script file, or - for stdin"`
	} `positional-args:"yes" required:"yes"`
}

func (cmd *cmdScript) Execute([]string) error {
	mbp.InitLog(Config.Log, "script")
	var cfg = Config.App
	cfg.Boot.Skip = true

	sys, err := app.New(cfg, afero.NewOsFs())
	mbp.Must(err, "failed to load system")
	defer sys.Close()

	var in = os.Stdin
	if cmd.Args.Path != "-" {
		f, err := os.Open(cmd.Args.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	script, err := hal.NewScript(in, os.Stdout, cmd.Delay)
	if err != nil {
		return err
	}

	var ctx, stop = signalContext()
	defer stop()
	return sys.Run(ctx, "script", script)
}

type cmdBridge struct {
	Addr    string        `long:"addr" env:"ADDR" default:"127.0.0.1:7681" description:"Loopback address to listen on"`
	Dir     string        `long:"dir" env:"DIR" description:"Initial working directory (default: $HOME)"`
	Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"1m" description:"Time limit of a single line"`
}

func (cmd *cmdBridge) Execute([]string) error {
	mbp.InitLog(Config.Log, "bridge")

	var dir = cmd.Dir
	if dir == "" {
		dir = homeDir()
	}
	var ctx, stop = signalContext()
	defer stop()

	var srv = bridge.NewServer(bridge.Config{Dir: dir, CommandTimeout: cmd.Timeout})
	if err := srv.ListenAndServe(ctx, cmd.Addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type cmdMount struct {
	Args struct {
		Mountpoint string `positional-arg-name:"mountpoint" description:"Empty directory to mount on"`
	} `positional-args:"yes" required:"yes"`
}

func (cmd *cmdMount) Execute([]string) error {
	mbp.InitLog(Config.Log, "mount")
	var sys = mustSystem()
	defer sys.Close()

	fs, err := sys.NewFS()
	if err != nil {
		return err
	}
	var ctx, stop = signalContext()
	defer stop()

	if err := vfsmount.Mount(ctx, fs, cmd.Args.Mountpoint); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func mustSystem() *app.System {
	sys, err := app.New(Config.App, afero.NewOsFs())
	mbp.Must(err, "failed to load system")
	return sys
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

func homeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	parser.AddCommand("serve", "Serve the browser terminal", `
serve the browser surface over HTTP: the terminal page, its websocket, /healthz
and Prometheus /metrics. Runs until signaled to exit.
`, &cmdServe{})

	parser.AddCommand("console", "Run a session on this terminal", `
console runs one session on the controlling terminal in raw mode. Ctrl+D on
an empty line ends the session.
`, &cmdConsole{})

	parser.AddCommand("window", "Run a session in a desktop window", `
window runs one session in a native window rendering the terminal in software.
`, &cmdWindow{})

	parser.AddCommand("script", "Type a script into a session", `
script types each line of the given file into a fresh session, skipping boot,
and writes the transcript to stdout.
`, &cmdScript{})

	parser.AddCommand("bridge", "Serve the local shell bridge", `
bridge serves a real shell interpreter over a websocket on a loopback address,
for the rsh command.
`, &cmdBridge{})

	parser.AddCommand("mount", "Mount the virtual filesystem read-only", `
mount exports a freshly populated filesystem over FUSE until signaled to exit.
`, &cmdMount{})

	mbp.AddPrintConfigCmd(parser, iniFilename)
	mbp.MustParseConfig(parser, iniFilename)
}
