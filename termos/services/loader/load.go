package loader

import (
	_ "embed"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

//go:embed schema.cue
var schemaSrc string

//go:embed default_profile.yaml
var defaultProfile []byte

// Default returns the built-in profile.
func Default() *Profile {
	var p Profile
	if err := yaml.Unmarshal(defaultProfile, &p); err != nil {
		panic(err) // Embedded at build time.
	}
	return &p
}

// Load reads the profile at path from afs. ".cue" files are validated against
// the profile schema; ".yaml", ".yml" and ".json" files are decoded as YAML.
// An empty path returns Default().
func Load(afs afero.Fs, path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := afero.ReadFile(afs, path)
	if err != nil {
		return nil, errors.WithMessage(err, "reading profile")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return decodeCUE(path, content)
	case ".yaml", ".yml", ".json":
		var p Profile
		if err := yaml.Unmarshal(content, &p); err != nil {
			return nil, errors.WithMessagef(err, "decoding %s", path)
		}
		if err := validate(&p); err != nil {
			return nil, errors.WithMessagef(err, "validating %s", path)
		}
		return &p, nil
	default:
		return nil, errors.Errorf("unsupported profile format %q", ext)
	}
}

func decodeCUE(path string, content []byte) (*Profile, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + schemaSrc + "})")
	if err := schema.Err(); err != nil {
		return nil, errors.WithMessage(err, "compiling profile schema")
	}
	value := ctx.CompileBytes(content, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, errors.WithMessagef(err, "compiling %s", path)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.WithMessagef(err, "validating %s", path)
	}

	var p Profile
	if err := unified.Decode(&p); err != nil {
		return nil, errors.WithMessagef(err, "decoding %s", path)
	}
	return &p, nil
}

// validate applies the schema rules YAML input cannot express on its own.
func validate(p *Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	for i, pr := range p.Projects {
		if strings.TrimSpace(pr.Name) == "" {
			return errors.Errorf("project %d has no name", i)
		}
		if pr.URL != "" && !strings.HasPrefix(pr.URL, "http://") && !strings.HasPrefix(pr.URL, "https://") {
			return errors.Errorf("project %q: url must be http(s)", pr.Name)
		}
	}
	for i, c := range p.Companies {
		if strings.TrimSpace(c.Name) == "" {
			return errors.Errorf("company %d has no name", i)
		}
	}
	return nil
}
