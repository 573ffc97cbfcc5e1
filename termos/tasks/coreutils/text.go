package coreutils

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"webterm/termos/proto"
	"webterm/termos/services/shell"
)

func textCommands() []shell.Command {
	return []shell.Command{
		cmd("head", "head [-n N] <path>", "Print the first N lines.", runHead),
		cmd("tail", "tail [-n N] <path>", "Print the last N lines.", runTail),
		cmd("wc", "wc [-lwc] <path...>", "Count lines/words/bytes.", runWc),
		cmd("grep", "grep [-in] <pattern> <path...>", "Search lines for a pattern.", runGrep),
	}
}

// lineArgs parses "[-n N] <path>".
func lineArgs(name string, args []string) (n int, arg string, err error) {
	n = 10
	u := usage(name + " [-n N] <path>")
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-n":
			if i+1 >= len(args) {
				return 0, "", u
			}
			parsed, perr := strconv.Atoi(args[i+1])
			if perr != nil || parsed < 0 {
				return 0, "", fmt.Errorf("invalid -n value %q", args[i+1])
			}
			n = parsed
			i++
		default:
			if arg != "" {
				return 0, "", u
			}
			arg = args[i]
		}
	}
	if arg == "" {
		return 0, "", u
	}
	return n, arg, nil
}

func runHead(_ context.Context, env shell.Env, args []string) error {
	n, arg, err := lineArgs("head", args)
	if err != nil {
		return err
	}
	b, err := readFile(env, arg)
	if err != nil {
		return err
	}

	end := len(b)
	if n == 0 {
		end = 0
	} else {
		lines := 0
		for i := 0; i < len(b); i++ {
			if b[i] == '\n' {
				lines++
				if lines == n {
					end = i + 1
					break
				}
			}
		}
	}
	env.Out.Write(b[:end])
	return nil
}

func runTail(_ context.Context, env shell.Env, args []string) error {
	n, arg, err := lineArgs("tail", args)
	if err != nil {
		return err
	}
	b, err := readFile(env, arg)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	// A trailing newline terminates the last line rather than starting one.
	limit := len(b)
	if limit > 0 && b[limit-1] == '\n' {
		limit--
	}
	lines := 0
	start := 0
	for i := limit - 1; i >= 0; i-- {
		if b[i] == '\n' {
			lines++
			if lines == n {
				start = i + 1
				break
			}
		}
	}
	env.Out.Write(b[start:])
	return nil
}

type counts struct {
	lines, words, bytes int
}

func count(b string) counts {
	c := counts{bytes: len(b), lines: strings.Count(b, "\n")}
	c.words = len(strings.Fields(b))
	return c
}

func runWc(_ context.Context, env shell.Env, args []string) error {
	flags, paths, err := splitFlags(args, "lwc")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return usage("wc [-lwc] <path...>")
	}
	if len(flags) == 0 {
		flags = map[rune]bool{'l': true, 'w': true, 'c': true}
	}

	var total counts
	for _, p := range paths {
		b, err := readFile(env, p)
		if err != nil {
			return err
		}
		c := count(b)
		total.lines += c.lines
		total.words += c.words
		total.bytes += c.bytes
		env.Out.Write(formatWc(flags, c, p))
	}
	if len(paths) > 1 {
		env.Out.Write(formatWc(flags, total, "total"))
	}
	return nil
}

func formatWc(flags map[rune]bool, c counts, label string) string {
	var parts []string
	if flags['l'] {
		parts = append(parts, strconv.Itoa(c.lines))
	}
	if flags['w'] {
		parts = append(parts, strconv.Itoa(c.words))
	}
	if flags['c'] {
		parts = append(parts, strconv.Itoa(c.bytes))
	}
	parts = append(parts, label)
	return strings.Join(parts, "\t") + "\n"
}

func runGrep(_ context.Context, env shell.Env, args []string) error {
	flags, rest, err := splitFlags(args, "in")
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return usage("grep [-in] <pattern> <path...>")
	}

	pat := rest[0]
	if flags['i'] {
		pat = strings.ToLower(pat)
	}
	multi := len(rest) > 2
	for _, arg := range rest[1:] {
		b, err := readFile(env, arg)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(strings.TrimSuffix(b, "\n"), "\n") {
			hay := line
			if flags['i'] {
				hay = strings.ToLower(hay)
			}
			if !strings.Contains(hay, pat) {
				continue
			}
			var prefix string
			if multi {
				prefix += proto.Color(proto.Magenta, arg) + ":"
			}
			if flags['n'] {
				prefix += proto.Color(proto.Green, strconv.Itoa(i+1)) + ":"
			}
			env.Out.Write(prefix + line + "\n")
		}
	}
	return nil
}
