package coreutils

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"webterm/termos/proto"
	"webterm/termos/services/shell"
	"webterm/termos/vfs"
)

func fsCommands() []shell.Command {
	return []shell.Command{
		cmd("pwd", "pwd", "Print working directory.", runPwd),
		cmd("cd", "cd [dir]", "Change working directory.", runCd),
		cmd("ls", "ls [-l] [path...]", "List directory contents.", runLs, "dir"),
		cmd("cat", "cat <path...>", "Print file contents.", runCat),
		cmd("mkdir", "mkdir [-p] <dir...>", "Create directories.", runMkdir),
		cmd("touch", "touch <path...>", "Create empty files.", runTouch),
		cmd("write", "write [-a] <path> <text...>", "Write text to a file.", runWrite),
		cmd("cp", "cp <src> <dst>", "Copy a file.", runCp),
		cmd("stat", "stat <path>", "Show file information.", runStat),
		cmd("tree", "tree [path]", "Show a directory tree.", runTree),
		cmd("find", "find [path] [-name pattern]", "Search for files.", runFind),
	}
}

func runPwd(_ context.Context, env shell.Env, _ []string) error {
	env.Out.Write(env.OS.Cwd() + "\n")
	return nil
}

func runCd(_ context.Context, env shell.Env, args []string) error {
	if len(args) > 1 {
		return usage("cd [dir]")
	}
	arg := "~"
	if len(args) == 1 {
		arg = args[0]
	}
	p := env.OS.Resolve(arg)
	if !readable(env.OS, p) {
		return fileErr(arg, errPermission)
	}
	if err := env.OS.SetCwd(p); err != nil {
		var pe *vfs.PathError
		if errors.As(err, &pe) {
			return fileErr(arg, pe.Err)
		}
		return err
	}
	return nil
}

func runLs(_ context.Context, env shell.Env, args []string) error {
	flags, paths, err := splitFlags(args, "la")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var firstErr error
	for i, arg := range paths {
		p := env.OS.Resolve(arg)
		if !readable(env.OS, p) {
			firstErr = keepFirst(firstErr, fileErr(arg, errPermission))
			continue
		}
		info, ok := env.FS.Stat(p)
		if !ok {
			firstErr = keepFirst(firstErr, fileErr(arg, vfs.ErrNotFound))
			continue
		}
		if !info.IsDir() {
			writeEntries(env, []vfs.Info{info}, flags['l'])
			continue
		}
		if len(paths) > 1 {
			if i > 0 {
				env.Out.Write("\n")
			}
			env.Out.Write(arg + ":\n")
		}
		writeEntries(env, children(env.FS, p), flags['l'])
	}
	return firstErr
}

func keepFirst(first, err error) error {
	if first != nil {
		return first
	}
	return err
}

// children returns the entries of dir sorted by name.
func children(fs *vfs.FS, dir string) []vfs.Info {
	entries, _ := fs.List(dir)
	out := make([]vfs.Info, 0, len(entries))
	for _, e := range entries {
		if info, ok := fs.Stat(path.Join(dir, e.Name)); ok {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func displayName(info vfs.Info) string {
	if info.IsDir() {
		return proto.Color(proto.BrightBlue, info.Name+"/")
	}
	return info.Name
}

func writeEntries(env shell.Env, infos []vfs.Info, long bool) {
	if len(infos) == 0 {
		return
	}
	if !long {
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = displayName(info)
		}
		env.Out.Write(strings.Join(names, "  ") + "\n")
		return
	}
	for _, info := range infos {
		mode := "-rw-r--r--"
		size := humanize.IBytes(uint64(info.Size))
		if info.IsDir() {
			mode = "drwxr-xr-x"
			size = "-"
		}
		env.Out.Write(fmt.Sprintf("%s %8s %s %s\n",
			mode, size, info.ModTime.Format("Jan _2 15:04"), displayName(info)))
	}
}

func runCat(_ context.Context, env shell.Env, args []string) error {
	if len(args) == 0 {
		return usage("cat <path...>")
	}
	for _, arg := range args {
		content, err := readFile(env, arg)
		if err != nil {
			return err
		}
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		env.Out.Write(content)
	}
	return nil
}

func runMkdir(_ context.Context, env shell.Env, args []string) error {
	flags, dirs, err := splitFlags(args, "p")
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return usage("mkdir [-p] <dir...>")
	}
	for _, arg := range dirs {
		p := env.OS.Resolve(arg)
		if !writable(env.OS, p) {
			return fileErr(arg, errPermission)
		}
		if !flags['p'] {
			if env.FS.Exists(p) {
				return fileErr(arg, errExists)
			}
			if parent, _ := vfs.Split(p); !env.FS.IsDirectory(parent) {
				return fileErr(arg, vfs.ErrNotFound)
			}
		}
		if err := env.FS.CreateDirectory(p); err != nil {
			return fileErr(arg, unwrapPath(err))
		}
	}
	return nil
}

func runTouch(_ context.Context, env shell.Env, args []string) error {
	if len(args) == 0 {
		return usage("touch <path...>")
	}
	for _, arg := range args {
		p := env.OS.Resolve(arg)
		if env.FS.Exists(p) {
			continue
		}
		if !writable(env.OS, p) {
			return fileErr(arg, errPermission)
		}
		if err := env.FS.WriteFile(p, ""); err != nil {
			return fileErr(arg, unwrapPath(err))
		}
	}
	return nil
}

func runWrite(_ context.Context, env shell.Env, args []string) error {
	appendMode := false
	if len(args) > 0 && args[0] == "-a" {
		appendMode = true
		args = args[1:]
	}
	if len(args) < 1 {
		return usage("write [-a] <path> <text...>")
	}
	arg := args[0]
	p := env.OS.Resolve(arg)
	if !writable(env.OS, p) {
		return fileErr(arg, errPermission)
	}

	text := strings.Join(args[1:], " ") + "\n"
	if appendMode {
		if old, ok := env.FS.ReadFile(p); ok {
			text = old + text
		}
	}
	if err := env.FS.WriteFile(p, text); err != nil {
		return fileErr(arg, unwrapPath(err))
	}
	return nil
}

func runCp(_ context.Context, env shell.Env, args []string) error {
	if len(args) != 2 {
		return usage("cp <src> <dst>")
	}
	content, err := readFile(env, args[0])
	if err != nil {
		return err
	}
	dst := env.OS.Resolve(args[1])
	if env.FS.IsDirectory(dst) {
		_, base := vfs.Split(env.OS.Resolve(args[0]))
		dst = path.Join(dst, base)
	}
	if !writable(env.OS, dst) {
		return fileErr(args[1], errPermission)
	}
	if err := env.FS.WriteFile(dst, content); err != nil {
		return fileErr(args[1], unwrapPath(err))
	}
	return nil
}

func runStat(_ context.Context, env shell.Env, args []string) error {
	if len(args) != 1 {
		return usage("stat <path>")
	}
	p := env.OS.Resolve(args[0])
	info, ok := env.FS.Stat(p)
	if !ok || !readable(env.OS, p) {
		return fileErr(args[0], vfs.ErrNotFound)
	}

	size := humanize.IBytes(uint64(info.Size))
	if info.IsDir() {
		size = fmt.Sprintf("%d entries", info.Size)
	}
	env.Out.Write(fmt.Sprintf("  File: %s\n  Type: %s\n  Size: %s\nModify: %s (%s)\n",
		p, info.Type, size,
		info.ModTime.Format("2006-01-02 15:04:05"), humanize.Time(info.ModTime)))
	return nil
}

func runTree(_ context.Context, env shell.Env, args []string) error {
	if len(args) > 1 {
		return usage("tree [path]")
	}
	arg := "."
	if len(args) == 1 {
		arg = args[0]
	}
	p := env.OS.Resolve(arg)
	if !readable(env.OS, p) {
		return fileErr(arg, errPermission)
	}
	if !env.FS.IsDirectory(p) {
		if env.FS.Exists(p) {
			return fileErr(arg, vfs.ErrNotDir)
		}
		return fileErr(arg, vfs.ErrNotFound)
	}

	env.Out.Write(proto.Color(proto.BrightBlue, arg) + "\n")
	var dirs, files int
	var walk func(dir, indent string)
	walk = func(dir, indent string) {
		kids := children(env.FS, dir)
		for i, info := range kids {
			branch, next := "├── ", "│   "
			if i == len(kids)-1 {
				branch, next = "└── ", "    "
			}
			env.Out.Write(indent + branch + displayName(info) + "\n")
			if info.IsDir() {
				dirs++
				walk(path.Join(dir, info.Name), indent+next)
			} else {
				files++
			}
		}
	}
	walk(p, "")
	env.Out.Write(fmt.Sprintf("\n%d directories, %d files\n", dirs, files))
	return nil
}

func runFind(ctx context.Context, env shell.Env, args []string) error {
	root, pattern := ".", ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-name":
			if i+1 >= len(args) {
				return usage("find [path] [-name pattern]")
			}
			pattern = args[i+1]
			i++
		case root == ".":
			root = args[i]
		default:
			return usage("find [path] [-name pattern]")
		}
	}
	if pattern != "" {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad pattern %q", pattern)
		}
	}

	p := env.OS.Resolve(root)
	if !env.FS.Exists(p) {
		return fileErr(root, vfs.ErrNotFound)
	}
	return env.FS.Walk(p, func(name string, info vfs.Info, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !readable(env.OS, name) {
			return vfs.SkipDir
		}
		if pattern != "" {
			if ok, _ := path.Match(pattern, info.Name); !ok {
				return nil
			}
		}
		env.Out.Write(name + "\n")
		return nil
	})
}

func unwrapPath(err error) error {
	var pe *vfs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
