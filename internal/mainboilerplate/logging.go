package mainboilerplate

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// LogConfig configures handling of application log events.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"warn" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"json" choice:"text" choice:"color" description:"Logging output format"`
	File   string `long:"file" env:"FILE" description:"Append log events to this file instead of stderr"`
}

// InitLog configures the logger for a process serving the named surface.
// Every event carries a "surface" field. The console and window surfaces
// draw on the same tty as stderr, so their events are dropped below error
// level unless a log file is configured.
func InitLog(cfg LogConfig, surface string) {
	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{})
	case "color":
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	}

	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.WithFields(log.Fields{"err": err, "file": cfg.File}).Fatal("opening log file")
		}
		log.SetOutput(f)
	} else if ownsTTY(surface) && lvl > log.ErrorLevel {
		lvl = log.ErrorLevel
	}
	log.SetLevel(lvl)
	log.AddHook(surfaceHook(surface))
}

func ownsTTY(surface string) bool {
	return surface == "console" || surface == "window"
}

// surfaceHook stamps events with the surface the process serves.
type surfaceHook string

func (surfaceHook) Levels() []log.Level { return log.AllLevels }

func (h surfaceHook) Fire(e *log.Entry) error {
	if _, ok := e.Data["surface"]; !ok {
		e.Data["surface"] = string(h)
	}
	return nil
}
