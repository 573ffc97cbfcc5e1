package coreutils

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"webterm/internal/buildinfo"
	"webterm/termos/proto"
	"webterm/termos/services/boot"
	"webterm/termos/services/shell"
	"webterm/termos/vfs"
)

func sysCommands() []shell.Command {
	fsck := cmd("fsck", "fsck", "Check filesystem consistency (recovery mode).", runFsck)
	fsck.Hidden = true
	return []shell.Command{
		cmd("uname", "uname [-a]", "Show system information.", runUname),
		cmd("uptime", "uptime", "Show how long the session has been up.", runUptime),
		cmd("date", "date", "Print the current date and time.", runDate),
		cmd("version", "version", "Show build version.", runVersion),
		cmd("free", "free [-h]", "Show memory usage.", runFree),
		fsck,
	}
}

func runUname(_ context.Context, env shell.Env, args []string) error {
	switch {
	case len(args) == 0:
		env.Out.Write("termos\n")
	case len(args) == 1 && args[0] == "-a":
		env.Out.Write(fmt.Sprintf("termos %s %s %s %s\n",
			env.OS.Hostname(), env.OS.Version(), buildinfo.Commit, runtime.GOARCH))
	default:
		return usage("uname [-a]")
	}
	return nil
}

func runUptime(_ context.Context, env shell.Env, _ []string) error {
	up := strings.TrimSpace(humanize.RelTime(env.OS.Started(), env.OS.Now(), "", ""))
	env.Out.Write(fmt.Sprintf("up %s, user: %s, mode: %s\n", up, env.OS.User(), env.OS.BootMode()))
	return nil
}

func runDate(_ context.Context, env shell.Env, _ []string) error {
	env.Out.Write(env.OS.Now().Format(time.UnixDate) + "\n")
	return nil
}

func runVersion(_ context.Context, env shell.Env, _ []string) error {
	env.Out.Write(fmt.Sprintf("termos %s (%s, built %s)\n", env.OS.Version(), buildinfo.Commit, buildinfo.Date))
	return nil
}

func runFree(_ context.Context, env shell.Env, args []string) error {
	human := false
	switch {
	case len(args) == 1 && args[0] == "-h":
		human = true
	case len(args) > 0:
		return usage("free [-h]")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	fmtVal := func(v uint64) string {
		if human {
			return humanize.IBytes(v)
		}
		return fmt.Sprintf("%d", v)
	}
	sub := func(a, b uint64) uint64 {
		if a < b {
			return 0
		}
		return a - b
	}

	env.Out.Write("           total       used       free\n")
	env.Out.Write(fmt.Sprintf("heap %11s %10s %10s\n",
		fmtVal(ms.HeapSys), fmtVal(ms.HeapAlloc), fmtVal(sub(ms.HeapSys, ms.HeapAlloc))))
	env.Out.Write(fmt.Sprintf("sys  %11s %10s %10s\n",
		fmtVal(ms.Sys), fmtVal(ms.Alloc), fmtVal(sub(ms.Sys, ms.Alloc))))
	return nil
}

// runFsck verifies that every listed entry resolves to a node of the listed
// type and that the standard directories exist.
func runFsck(ctx context.Context, env shell.Env, _ []string) error {
	if env.OS.BootMode() != boot.ModeRecovery {
		return fmt.Errorf("only available in recovery mode")
	}

	var dirs, files int
	var problems []string
	err := env.FS.Walk("/", func(p string, info vfs.Info, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !info.IsDir() {
			files++
			if _, ok := env.FS.ReadFile(p); !ok {
				problems = append(problems, p+": unreadable file")
			}
			return nil
		}
		dirs++
		entries, ok := env.FS.List(p)
		if !ok {
			problems = append(problems, p+": unlistable directory")
			return nil
		}
		for _, e := range entries {
			child := vfs.Clean(p + "/" + e.Name)
			if e.Type == vfs.TypeDir && !env.FS.IsDirectory(child) {
				problems = append(problems, child+": type mismatch")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, d := range vfs.StandardDirs {
		if !env.FS.IsDirectory(d) {
			problems = append(problems, d+": missing standard directory")
		}
	}

	env.Out.Write(fmt.Sprintf("fsck: checked %d directories, %d files\n", dirs, files))
	if len(problems) == 0 {
		env.Out.Write(proto.Color(proto.Green, "fsck: filesystem clean") + "\n")
		return nil
	}
	for _, p := range problems {
		env.Out.Write(proto.Color(proto.Yellow, "  "+p) + "\n")
	}
	return fmt.Errorf("%d problems found", len(problems))
}
