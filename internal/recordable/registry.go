package recordable

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ManifestFilename is written by the front end next to the artifacts and
// therefore cannot be claimed by a recordable.
const ManifestFilename = "gather.json"

// ErrDuplicate is returned when a name or output file name is registered twice.
var ErrDuplicate = errors.New("duplicate recordable")

// Registry is an ordered, append-only catalogue of recordables.
// Registration order is the collection order.
type Registry struct {
	recordables []Recordable
	byName      map[string]int
	byFilename  map[string]string
	logger      *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		recordables: make([]Recordable, 0),
		byName:      make(map[string]int),
		byFilename:  make(map[string]string),
		logger:      logger,
	}
}

// Register appends r. Names and sanitized file names must be unique so no two
// recordables ever write the same file.
func (r *Registry) Register(rec Recordable) error {
	name := rec.Name()
	if name == "" {
		return errors.New("recordable name is required")
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicate, name)
	}
	filename := rec.Filename()
	if filename == ManifestFilename {
		return fmt.Errorf("recordable %q: file name %q is reserved", name, filename)
	}
	if other, ok := r.byFilename[filename]; ok {
		return fmt.Errorf("%w: %q and %q both write %q", ErrDuplicate, other, name, filename)
	}

	r.byName[name] = len(r.recordables)
	r.byFilename[filename] = name
	r.recordables = append(r.recordables, rec)
	r.logger.Debug("Registered recordable",
		zap.String("name", name),
		zap.String("kind", rec.Kind().String()),
		zap.String("file", filename))
	return nil
}

// MustRegister registers every recordable and panics on error.
// It is meant for the built-in catalogue, where a clash is a programming error.
func (r *Registry) MustRegister(recs ...Recordable) {
	for _, rec := range recs {
		if err := r.Register(rec); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the recordable registered under name.
func (r *Registry) Lookup(name string) (Recordable, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.recordables[i], true
}

// Len returns the number of registered recordables.
func (r *Registry) Len() int { return len(r.recordables) }

// Names returns the recordable names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.recordables))
	for i, rec := range r.recordables {
		names[i] = rec.Name()
	}
	return names
}

// Recordables returns a copy of all registered recordables in order.
func (r *Registry) Recordables() []Recordable {
	result := make([]Recordable, len(r.recordables))
	copy(result, r.recordables)
	return result
}

// Without returns a new registry without the named recordables.
// Unknown names are logged and ignored.
func (r *Registry) Without(names ...string) *Registry {
	drop := r.known("Cannot disable unknown recordable", names)
	return r.filter(func(name string) bool { return !drop[name] })
}

// Only returns a new registry holding just the named recordables, in
// registry order. Unknown names are logged and ignored.
func (r *Registry) Only(names ...string) *Registry {
	keep := r.known("Cannot select unknown recordable", names)
	return r.filter(func(name string) bool { return keep[name] })
}

func (r *Registry) known(msg string, names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.byName[n]; !ok {
			r.logger.Warn(msg, zap.String("name", n))
			continue
		}
		set[n] = true
	}
	return set
}

func (r *Registry) filter(keep func(name string) bool) *Registry {
	out := NewRegistry(r.logger)
	for _, rec := range r.recordables {
		if !keep(rec.Name()) {
			continue
		}
		// Cannot fail: the source registry already enforced uniqueness.
		_ = out.Register(rec)
	}
	return out
}
