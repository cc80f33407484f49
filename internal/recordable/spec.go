package recordable

import (
	"fmt"
	"time"
)

// Source types accepted in a Spec.
const (
	TypeCommand = "command"
	TypeFile    = "file"
	TypeEnv     = "env"
)

// Spec is the declarative form of a recordable, used by the embedded command
// catalogue and by user configuration files.
type Spec struct {
	Name     string        `yaml:"name" json:"name" validate:"required"`
	Type     string        `yaml:"type" json:"type" validate:"required,oneof=command file env"`
	Command  string        `yaml:"command,omitempty" json:"command,omitempty" validate:"required_if=Type command"`
	Path     string        `yaml:"path,omitempty" json:"path,omitempty" validate:"required_if=Type file"`
	Key      string        `yaml:"key,omitempty" json:"key,omitempty" validate:"required_if=Type env"`
	Kind     string        `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=text binary structured json"`
	Filename string        `yaml:"filename,omitempty" json:"filename,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"gte=0"`
}

// Build turns s into a Recordable.
func (s Spec) Build() (Recordable, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("recordable spec: name is required")
	}
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("recordable %q: %w", s.Name, err)
	}
	if s.Timeout < 0 {
		return nil, fmt.Errorf("recordable %q: negative timeout %s", s.Name, s.Timeout)
	}

	opts := []Option{WithKind(kind), WithTimeout(s.Timeout)}
	if s.Filename != "" {
		opts = append(opts, WithFilename(s.Filename))
	}

	switch s.Type {
	case TypeCommand:
		if s.Command == "" {
			return nil, fmt.Errorf("recordable %q: command is required", s.Name)
		}
		return Command(s.Name, s.Command, opts...), nil
	case TypeFile:
		if s.Path == "" {
			return nil, fmt.Errorf("recordable %q: path is required", s.Name)
		}
		return File(s.Name, s.Path, opts...), nil
	case TypeEnv:
		if s.Key == "" {
			return nil, fmt.Errorf("recordable %q: key is required", s.Name)
		}
		return Env(s.Name, s.Key, opts...), nil
	default:
		return nil, fmt.Errorf("recordable %q: unknown type %q", s.Name, s.Type)
	}
}

// RegisterSpecs builds and registers every spec in order.
func (r *Registry) RegisterSpecs(specs []Spec) error {
	for _, s := range specs {
		rec, err := s.Build()
		if err != nil {
			return err
		}
		if err := r.Register(rec); err != nil {
			return err
		}
	}
	return nil
}
