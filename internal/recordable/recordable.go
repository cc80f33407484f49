// Package recordable defines the unit of metadata collection: a named source
// with an acquisition action and an output kind. Concrete sources (commands,
// files, environment variables, library calls) all satisfy the Recordable
// interface so the collector loop never needs to know how data is obtained.
package recordable

import (
	"context"
	"fmt"
	"time"
)

// Kind describes how a recordable's content should be treated when stored.
type Kind int

const (
	// KindText is human-readable output such as command stdout.
	KindText Kind = iota
	// KindBinary is opaque content stored byte for byte.
	KindBinary
	// KindStructured is JSON produced from a library call.
	KindStructured
)

// String returns the name used in configuration files and manifests.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// ParseKind converts a configuration value into a Kind. An empty string is text.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "text":
		return KindText, nil
	case "binary":
		return KindBinary, nil
	case "structured", "json":
		return KindStructured, nil
	default:
		return 0, fmt.Errorf("invalid kind %q (expected text, binary or structured)", s)
	}
}

// Recordable is implemented by every metadata source.
type Recordable interface {
	// Name returns the unique identifier of this source.
	Name() string

	// Kind returns the output kind of the acquired content.
	Kind() Kind

	// Filename returns the sanitized file name the content is stored under.
	Filename() string

	// Timeout returns the acquisition bound for this source.
	// Zero means the collector default applies.
	Timeout() time.Duration

	// Acquire captures the source's content. It must not mutate shared state
	// and should honour ctx cancellation.
	Acquire(ctx context.Context) ([]byte, error)
}

// Meta holds the attributes shared by all recordable variants.
type Meta struct {
	name     string
	kind     Kind
	filename string
	timeout  time.Duration
}

// Option customizes the Meta of a recordable at construction time.
type Option func(*Meta)

// WithKind overrides the default output kind of a variant.
func WithKind(k Kind) Option {
	return func(m *Meta) { m.kind = k }
}

// WithFilename stores the content under a different file name than the
// recordable's name. The value is sanitized.
func WithFilename(filename string) Option {
	return func(m *Meta) { m.filename = filename }
}

// WithTimeout sets a per-recordable acquisition bound.
func WithTimeout(d time.Duration) Option {
	return func(m *Meta) { m.timeout = d }
}

func newMeta(name string, kind Kind, opts []Option) Meta {
	m := Meta{name: name, kind: kind}
	for _, opt := range opts {
		opt(&m)
	}
	if m.filename == "" {
		m.filename = name
		if m.kind == KindStructured {
			m.filename = name + ".json"
		}
	}
	m.filename = SanitizeFilename(m.filename)
	return m
}

// Name returns the recordable identifier.
func (m Meta) Name() string { return m.name }

// Kind returns the output kind.
func (m Meta) Kind() Kind { return m.kind }

// Filename returns the sanitized output file name.
func (m Meta) Filename() string { return m.filename }

// Timeout returns the per-recordable bound, or zero for the default.
func (m Meta) Timeout() time.Duration { return m.timeout }
