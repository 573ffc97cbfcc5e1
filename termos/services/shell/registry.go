package shell

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps command names and aliases to Commands.
//
// Names are unique: registering a name or alias that is already taken fails
// and leaves the registry unchanged, so the first registration wins.
type Registry struct {
	primary map[string]Command
	lookup  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		primary: make(map[string]Command),
		lookup:  make(map[string]string),
	}
}

func (r *Registry) Register(cmd Command) error {
	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))
	if cmd.Name == "" {
		return fmt.Errorf("shell registry: empty command name")
	}
	if strings.ContainsAny(cmd.Name, " \t") {
		return fmt.Errorf("shell registry: %q contains whitespace", cmd.Name)
	}
	if cmd.New == nil {
		return fmt.Errorf("shell registry: %q has no factory", cmd.Name)
	}
	if _, ok := r.lookup[cmd.Name]; ok {
		return fmt.Errorf("shell registry: duplicate command %q", cmd.Name)
	}

	aliases := make([]string, 0, len(cmd.Aliases))
	seen := map[string]bool{cmd.Name: true}
	for _, alias := range cmd.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" || seen[alias] {
			continue
		}
		if _, ok := r.lookup[alias]; ok {
			return fmt.Errorf("shell registry: duplicate alias %q", alias)
		}
		seen[alias] = true
		aliases = append(aliases, alias)
	}
	cmd.Aliases = aliases

	r.primary[cmd.Name] = cmd
	r.lookup[cmd.Name] = cmd.Name
	for _, alias := range aliases {
		r.lookup[alias] = cmd.Name
	}
	return nil
}

func (r *Registry) Resolve(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Command{}, false
	}
	if primary, ok := r.lookup[name]; ok {
		cmd, ok := r.primary[primary]
		return cmd, ok
	}
	return Command{}, false
}

// Names returns the sorted primary names, hidden commands included.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.primary))
	for name := range r.primary {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Commands returns the visible commands sorted by name.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.primary))
	for _, name := range r.Names() {
		if cmd := r.primary[name]; !cmd.Hidden {
			out = append(out, cmd)
		}
	}
	return out
}

// Matches returns the sorted names and aliases starting with prefix. Hidden
// commands match too; Hidden only keeps a command out of listings.
func (r *Registry) Matches(prefix string) []string {
	prefix = strings.ToLower(prefix)

	var out []string
	for name := range r.lookup {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
