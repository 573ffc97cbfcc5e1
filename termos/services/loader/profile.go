// Package loader reads the owner profile and populates the filesystem with it.
package loader

import (
	"regexp"
	"strings"
)

// Profile is the structured source the filesystem is built from.
type Profile struct {
	Name      string    `json:"name" yaml:"name"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Bio       string    `json:"bio" yaml:"bio"`
	Hostname  string    `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Motd      string    `json:"motd,omitempty" yaml:"motd,omitempty"`
	Projects  []Project `json:"projects" yaml:"projects"`
	Companies []Company `json:"companies" yaml:"companies"`
}

type Project struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
}

type Company struct {
	Name        string `json:"name" yaml:"name"`
	Role        string `json:"role" yaml:"role"`
	Period      string `json:"period" yaml:"period"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Categories returns the distinct project categories in first-seen order.
func (p *Profile) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, pr := range p.Projects {
		c := strings.ToLower(strings.TrimSpace(pr.Category))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FindProject looks a project up by name or slug, ignoring case.
func (p *Profile) FindProject(name string) (Project, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, pr := range p.Projects {
		if strings.ToLower(pr.Name) == want || Slug(pr.Name) == want {
			return pr, true
		}
	}
	return Project{}, false
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a display name into a file name.
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}
