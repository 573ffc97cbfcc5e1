package loader

import (
	"fmt"
	"strings"

	"webterm/termos/vfs"
)

// Populate writes the profile into fs:
//
//	/etc/hostname
//	/etc/motd
//	/home/user/about.txt
//	/home/user/projects/<slug>.txt
//	/home/user/experience/<slug>.txt
//
// It only creates directories and writes files, so it may be applied again
// to refresh the tree.
func Populate(fs *vfs.FS, p *Profile) error {
	for _, dir := range []string{"/etc", "/home/user/projects", "/home/user/experience", "/var/log"} {
		if err := fs.CreateDirectory(dir); err != nil {
			return err
		}
	}

	hostname := p.Hostname
	if hostname == "" {
		hostname = "termos"
	}
	files := []struct{ path, content string }{
		{"/etc/hostname", hostname + "\n"},
		{"/etc/motd", motd(p)},
		{"/home/user/about.txt", about(p)},
	}
	for _, pr := range p.Projects {
		files = append(files, struct{ path, content string }{
			"/home/user/projects/" + Slug(pr.Name) + ".txt", projectFile(pr),
		})
	}
	for _, c := range p.Companies {
		files = append(files, struct{ path, content string }{
			"/home/user/experience/" + Slug(c.Name) + ".txt", companyFile(c),
		})
	}
	for _, f := range files {
		if err := fs.WriteFile(f.path, f.content); err != nil {
			return err
		}
	}
	return nil
}

func motd(p *Profile) string {
	if p.Motd != "" {
		return ensureNewline(p.Motd)
	}
	var b strings.Builder
	b.WriteString("\x1b[38;5;39m" + p.Name + "\x1b[0m")
	if p.Title != "" {
		b.WriteString(" - " + p.Title)
	}
	b.WriteString("\nType `help` to list commands, `about` to get started.\n")
	return b.String()
}

func about(p *Profile) string {
	var b strings.Builder
	b.WriteString(p.Name + "\n")
	if p.Title != "" {
		b.WriteString(p.Title + "\n")
	}
	b.WriteString("\n")
	b.WriteString(ensureNewline(strings.TrimSpace(p.Bio)))
	return b.String()
}

func projectFile(pr Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", pr.Name)
	if pr.Category != "" {
		fmt.Fprintf(&b, "category: %s\n", pr.Category)
	}
	if pr.URL != "" {
		fmt.Fprintf(&b, "url: %s\n", pr.URL)
	}
	fmt.Fprintf(&b, "\n%s", ensureNewline(pr.Description))
	return b.String()
}

func companyFile(c Company) string {
	var b strings.Builder
	fmt.Fprintf(&b, "company: %s\nrole: %s\nperiod: %s\n", c.Name, c.Role, c.Period)
	if c.Description != "" {
		fmt.Fprintf(&b, "\n%s", ensureNewline(c.Description))
	}
	return b.String()
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
