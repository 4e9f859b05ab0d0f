// Package registry holds the allow-listed generation model catalog and
// resolves requested model ids against it. The catalog is loaded once at
// startup and never mutated, so a Registry is safe for concurrent readers.
package registry

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rival-intel/internal/model"
)

// InvalidModelError is returned when a requested model id is not in the
// allow-list. This is a client error: the id is rejected, never silently
// swapped for another model.
type InvalidModelError struct {
	Requested string
	Allowed   []string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("registry: model %q is not supported (allowed: %s)",
		e.Requested, strings.Join(e.Allowed, ", "))
}

// Registry is an immutable, validated model catalog.
type Registry struct {
	options   []model.ModelOption
	defaultID string
}

// New validates the catalog and builds a Registry. The catalog must be
// non-empty, ids must be unique, and exactly one option must be marked
// default.
func New(options []model.ModelOption) (*Registry, error) {
	if len(options) == 0 {
		return nil, eris.New("registry: empty model catalog")
	}

	seen := make(map[string]bool, len(options))
	defaultID := ""
	for _, opt := range options {
		if opt.ID == "" {
			return nil, eris.New("registry: model option with empty id")
		}
		if seen[opt.ID] {
			return nil, eris.Errorf("registry: duplicate model id %q", opt.ID)
		}
		seen[opt.ID] = true

		if opt.Default {
			if defaultID != "" {
				return nil, eris.Errorf("registry: multiple default models (%q and %q)", defaultID, opt.ID)
			}
			defaultID = opt.ID
		}
	}
	if defaultID == "" {
		return nil, eris.New("registry: no default model designated")
	}

	opts := make([]model.ModelOption, len(options))
	copy(opts, options)
	return &Registry{options: opts, defaultID: defaultID}, nil
}

// Resolve validates a requested model id against the allow-list.
// An empty id resolves to the designated default. A listed id resolves to
// itself. Anything else fails with InvalidModelError. The returned bool
// mirrors the generation-stage fallback flag and is always false here:
// resolution never substitutes one valid id for another.
func (r *Registry) Resolve(requested string) (string, bool, error) {
	if requested == "" {
		return r.defaultID, false, nil
	}
	for _, opt := range r.options {
		if opt.ID == requested {
			return requested, false, nil
		}
	}
	return "", false, &InvalidModelError{Requested: requested, Allowed: r.IDs()}
}

// Default returns the designated default model option.
func (r *Registry) Default() model.ModelOption {
	for _, opt := range r.options {
		if opt.ID == r.defaultID {
			return opt
		}
	}
	// Unreachable: New guarantees the default id is present.
	return model.ModelOption{}
}

// List returns the catalog in configured order. The slice is a copy; callers
// may not mutate registry state through it.
func (r *Registry) List() []model.ModelOption {
	out := make([]model.ModelOption, len(r.options))
	copy(out, r.options)
	return out
}

// IDs returns the allow-listed ids in catalog order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.options))
	for i, opt := range r.options {
		ids[i] = opt.ID
	}
	return ids
}

// Contains reports whether id is allow-listed.
func (r *Registry) Contains(id string) bool {
	for _, opt := range r.options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
