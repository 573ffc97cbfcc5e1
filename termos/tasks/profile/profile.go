// Package profile holds the commands that present the owner's profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"webterm/hal"
	"webterm/termos/proto"
	"webterm/termos/services/loader"
	"webterm/termos/services/shell"
)

type app struct {
	env shell.Env
	p   *loader.Profile
	run func(a *app, args []string) error
}

func (a *app) Run(_ context.Context, args []string) error { return a.run(a, args) }

// Commands returns the profile commands bound to p.
func Commands(p *loader.Profile) []shell.Command {
	mk := func(name, usage, desc string, run func(a *app, args []string) error) shell.Command {
		return shell.Command{
			Name:  name,
			Usage: usage,
			Desc:  desc,
			New: func(env shell.Env) shell.App {
				return &app{env: env, p: p, run: run}
			},
		}
	}
	return []shell.Command{
		mk("about", "about", "Who runs this machine.", (*app).about),
		mk("projects", "projects [category]", "List projects.", (*app).projects),
		mk("experience", "experience", "Show work history.", (*app).experience),
		mk("open", "open <project|url>", "Open a project or URL in a window.", (*app).open),
	}
}

func (a *app) write(s string) { a.env.Out.Write(s) }

func (a *app) about(_ []string) error {
	a.write(proto.Color(proto.Bold+proto.Accent, a.p.Name) + "\n")
	if a.p.Title != "" {
		a.write(proto.Color(proto.Dim, a.p.Title) + "\n")
	}
	a.write("\n" + strings.TrimRight(a.p.Bio, "\n") + "\n")
	return nil
}

func (a *app) projects(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: projects [category]", shell.ErrUsage)
	}
	filter := ""
	if len(args) == 1 {
		filter = strings.ToLower(args[0])
		found := false
		for _, c := range a.p.Categories() {
			found = found || c == filter
		}
		if !found {
			return fmt.Errorf("unknown category %q (have: %s)", args[0], strings.Join(a.p.Categories(), ", "))
		}
	}

	n := 0
	for _, pr := range a.p.Projects {
		if filter != "" && strings.ToLower(pr.Category) != filter {
			continue
		}
		n++
		line := proto.Color(proto.Cyan, pr.Name)
		if pr.Category != "" {
			line += " " + proto.Color(proto.Dim, "["+strings.ToLower(pr.Category)+"]")
		}
		a.write(line + "\n")
		if pr.Description != "" {
			a.write("  " + firstLine(pr.Description) + "\n")
		}
	}
	if n == 0 {
		a.write("no projects\n")
		return nil
	}
	a.write(proto.Color(proto.Dim, "\nType `open <project>` to visit one.") + "\n")
	return nil
}

func (a *app) experience(_ []string) error {
	if len(a.p.Companies) == 0 {
		a.write("no experience listed\n")
		return nil
	}
	for i, c := range a.p.Companies {
		if i > 0 {
			a.write("\n")
		}
		a.write(proto.Color(proto.Bold, c.Name) + "  " + proto.Color(proto.Dim, c.Period) + "\n")
		a.write("  " + c.Role + "\n")
		if c.Description != "" {
			a.write("  " + firstLine(c.Description) + "\n")
		}
	}
	return nil
}

func (a *app) open(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: open <project|url>", shell.ErrUsage)
	}
	title, url := args[0], args[0]
	if !isURL(url) {
		pr, ok := a.p.FindProject(args[0])
		if !ok {
			return fmt.Errorf("no project named %q", args[0])
		}
		if pr.URL == "" {
			return fmt.Errorf("%s has no link", pr.Name)
		}
		title, url = pr.Name, pr.URL
	}

	err := a.env.WM.Open(title, url)
	if errors.Is(err, hal.ErrNotImplemented) {
		a.write("no window manager on this terminal; visit " + proto.Color(proto.Accent, url) + "\n")
		return nil
	}
	if err != nil {
		return err
	}
	a.write("opening " + url + "\n")
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
