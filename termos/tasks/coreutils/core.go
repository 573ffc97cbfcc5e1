package coreutils

import (
	"context"
	"fmt"
	"strings"

	"webterm/termos/proto"
	"webterm/termos/services/shell"
)

func coreCommands() []shell.Command {
	return []shell.Command{
		cmd("help", "help [command]", "Show available commands.", runHelp, "?"),
		cmd("clear", "clear", "Clear the terminal.", runClear, "cls"),
		cmd("echo", "echo [-n] [args...]", "Print arguments.", runEcho),
		cmd("history", "history", "Show command history.", runHistory),
		cmd("whoami", "whoami", "Print the current user.", runWhoami),
		cmd("logout", "logout", "Drop root privileges.", runLogout, "exit"),
		cmd("reboot", "reboot", "Restart the system.", runReboot),
	}
}

func runHelp(_ context.Context, env shell.Env, args []string) error {
	reg := env.OS.Registry()
	if len(args) == 0 {
		env.Out.Write(proto.Color(proto.Bold, "Available commands:") + "\n")
		for _, c := range reg.Commands() {
			env.Out.Write(fmt.Sprintf("  %-10s %s\n", c.Name, c.Desc))
		}
		env.Out.Write("\nType `help <command>` for details.\n")
		return nil
	}
	if len(args) != 1 {
		return usage("help [command]")
	}

	c, ok := reg.Resolve(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if c.Usage != "" {
		env.Out.Write("usage: " + c.Usage + "\n")
	}
	if c.Desc != "" {
		env.Out.Write(c.Desc + "\n")
	}
	if len(c.Aliases) > 0 {
		env.Out.Write("aliases: " + strings.Join(c.Aliases, ", ") + "\n")
	}
	return nil
}

func runClear(_ context.Context, env shell.Env, _ []string) error {
	env.Out.Clear()
	return nil
}

func runEcho(_ context.Context, env shell.Env, args []string) error {
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if newline {
		out += "\n"
	}
	env.Out.Write(out)
	return nil
}

func runHistory(_ context.Context, env shell.Env, _ []string) error {
	for i, line := range env.OS.History().Entries() {
		env.Out.Write(fmt.Sprintf("%4d  %s\n", i+1, line))
	}
	return nil
}

func runWhoami(_ context.Context, env shell.Env, _ []string) error {
	env.Out.Write(env.OS.User() + "\n")
	return nil
}

func runLogout(_ context.Context, env shell.Env, _ []string) error {
	if !env.OS.IsRoot() {
		env.Out.Write("not logged in as root\n")
		return nil
	}
	env.OS.SetRoot(false)
	if !readable(env.OS, env.OS.Cwd()) {
		_ = env.OS.SetCwd(env.OS.Home())
	}
	env.Out.Write("logout\n")
	return nil
}

func runReboot(_ context.Context, env shell.Env, _ []string) error {
	env.Out.Write(proto.Color(proto.Yellow, "Rebooting...") + "\n")
	env.OS.RequestReboot()
	return nil
}
