// Package replay serves completion lookups from a recorded session: a file
// holding the pauses of a program run, the frames at each pause and the
// objects reachable from their scopes.
package replay

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/oakwood-commons/pausecomplete/pkg/loader"
)

// Recording is the on-disk form of a recorded session.
type Recording struct {
	Name   string  `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Pauses []Pause `yaml:"pauses" json:"pauses" toml:"pauses"`
}

// Pause is one frozen point of execution.
type Pause struct {
	ID      string   `yaml:"id" json:"id" toml:"id"`
	Point   string   `yaml:"point,omitempty" json:"point,omitempty" toml:"point,omitempty"`
	Frames  []Frame  `yaml:"frames" json:"frames" toml:"frames"`
	Objects []Object `yaml:"objects" json:"objects" toml:"objects"`
}

// Frame is a stack frame. Scopes are listed innermost first.
type Frame struct {
	ID       string  `yaml:"id" json:"id" toml:"id"`
	Function string  `yaml:"function,omitempty" json:"function,omitempty" toml:"function,omitempty"`
	Location string  `yaml:"location,omitempty" json:"location,omitempty" toml:"location,omitempty"`
	Scopes   []Scope `yaml:"scopes" json:"scopes" toml:"scopes"`
}

// Scope names the object holding a scope's bindings.
type Scope struct {
	Kind   string `yaml:"kind" json:"kind" toml:"kind"`
	Object string `yaml:"object" json:"object" toml:"object"`
}

// Object is a remote object with ordered properties.
type Object struct {
	ID         string     `yaml:"id" json:"id" toml:"id"`
	Class      string     `yaml:"class,omitempty" json:"class,omitempty" toml:"class,omitempty"`
	Properties []Property `yaml:"properties" json:"properties" toml:"properties"`
}

// Property is a named slot holding either a reference to another object of
// the same pause or a primitive value.
type Property struct {
	Name   string      `yaml:"name" json:"name" toml:"name"`
	Object string      `yaml:"object,omitempty" json:"object,omitempty" toml:"object,omitempty"`
	Value  interface{} `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
}

// IsObject reports whether the property refers to an object.
func (p Property) IsObject() bool {
	return p.Object != ""
}

// Load reads a recording from a YAML, JSON or TOML file.
func Load(path string) (*Recording, error) {
	var rec Recording
	if err := loader.DecodeFile(path, &rec); err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recording %s: %w", path, err)
	}
	return &rec, nil
}

// Validate checks identifiers are unique and every reference resolves. All
// problems are reported together.
func (r *Recording) Validate() error {
	var result *multierror.Error
	if len(r.Pauses) == 0 {
		result = multierror.Append(result, fmt.Errorf("no pauses"))
	}

	seenPauses := make(map[string]bool, len(r.Pauses))
	for i, p := range r.Pauses {
		if p.ID == "" {
			result = multierror.Append(result, fmt.Errorf("pause %d: missing id", i))
			continue
		}
		if seenPauses[p.ID] {
			result = multierror.Append(result, fmt.Errorf("pause %s: duplicate id", p.ID))
		}
		seenPauses[p.ID] = true

		objects := make(map[string]bool, len(p.Objects))
		for j, o := range p.Objects {
			if o.ID == "" {
				result = multierror.Append(result, fmt.Errorf("pause %s: object %d: missing id", p.ID, j))
				continue
			}
			if objects[o.ID] {
				result = multierror.Append(result, fmt.Errorf("pause %s: object %s: duplicate id", p.ID, o.ID))
			}
			objects[o.ID] = true
		}

		for _, o := range p.Objects {
			for _, prop := range o.Properties {
				if prop.IsObject() && !objects[prop.Object] {
					result = multierror.Append(result, fmt.Errorf("pause %s: object %s: property %q: %w %s",
						p.ID, o.ID, prop.Name, ErrUnknownObject, prop.Object))
				}
			}
		}

		frames := make(map[string]bool, len(p.Frames))
		for j, f := range p.Frames {
			if f.ID == "" {
				result = multierror.Append(result, fmt.Errorf("pause %s: frame %d: missing id", p.ID, j))
				continue
			}
			if frames[f.ID] {
				result = multierror.Append(result, fmt.Errorf("pause %s: frame %s: duplicate id", p.ID, f.ID))
			}
			frames[f.ID] = true
			for _, s := range f.Scopes {
				if !objects[s.Object] {
					result = multierror.Append(result, fmt.Errorf("pause %s: frame %s: %s scope: %w %s",
						p.ID, f.ID, s.Kind, ErrUnknownObject, s.Object))
				}
			}
		}
	}
	return result.ErrorOrNil()
}
