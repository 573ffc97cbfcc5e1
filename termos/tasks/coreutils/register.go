// Package coreutils holds the built-in file, text and system commands.
package coreutils

import (
	"context"

	"webterm/termos/services/shell"
)

type runFunc func(ctx context.Context, env shell.Env, args []string) error

func cmd(name, usage, desc string, run runFunc, aliases ...string) shell.Command {
	return shell.Command{
		Name:    name,
		Aliases: aliases,
		Usage:   usage,
		Desc:    desc,
		New: func(env shell.Env) shell.App {
			return shell.AppFunc(func(ctx context.Context, args []string) error {
				return run(ctx, env, args)
			})
		},
	}
}

// Commands returns every command of the package.
func Commands() []shell.Command {
	var out []shell.Command
	for _, group := range [][]shell.Command{
		coreCommands(),
		fsCommands(),
		textCommands(),
		sysCommands(),
	} {
		out = append(out, group...)
	}
	return out
}
