// Package regulation holds the built-in compliance schemas and the registry
// that resolves them by code. The validation engine depends only on the
// Schema shape, never on a concrete jurisdiction.
package regulation

import (
	"errors"
	"fmt"
	"sort"

	"csvcert/internal/rules"
)

// ErrUnknownRegulation is returned by Registry lookups for codes that were
// never registered.
var ErrUnknownRegulation = errors.New("unknown regulation")

// Conditional marks a field as required only when another field's normalized
// value equals Trigger. When the trigger is absent an empty value is simply
// skipped.
type Conditional struct {
	DependsOn string
	Trigger   string
	Message   string
}

// Schema is one regulation's complete rule set: the ordered required-field
// list, the per-field rule chains, and any cross-field checks. Schemas are
// immutable after registration and safe for concurrent use.
type Schema struct {
	Code           string
	Name           string
	RequiredFields []string
	FieldRules     map[string][]rules.Rule
	CrossRules     []rules.RowRule
	Conditional    map[string]Conditional
}

// RulesFor returns the rule chain for a field, falling back to the shared
// field dispatch table when the schema declares no override.
func (s *Schema) RulesFor(field string) []rules.Rule {
	if chain, ok := s.FieldRules[field]; ok {
		return chain
	}
	return nil
}

// Registry is the process-wide, read-only set of known schemas. It is
// populated once at startup; lookups need no locking.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry builds a registry preloaded with the built-in schemas.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]*Schema)}
	r.Register(colombiaSchema())
	r.Register(peruSchema())
	r.Register(basicSchema())
	return r
}

// Register adds a schema, replacing any existing entry with the same code.
func (r *Registry) Register(s *Schema) {
	r.schemas[s.Code] = s
}

// Get resolves a regulation code to its schema.
func (r *Registry) Get(code string) (*Schema, error) {
	s, ok := r.schemas[code]
	if !ok {
		return nil, fmt.Errorf("regulation %q: %w", code, ErrUnknownRegulation)
	}
	return s, nil
}

// List returns the code to display-name mapping of every registered schema.
func (r *Registry) List() map[string]string {
	out := make(map[string]string, len(r.schemas))
	for code, s := range r.schemas {
		out[code] = s.Name
	}
	return out
}

// Codes returns the registered regulation codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.schemas))
	for code := range r.schemas {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RequiredFields returns the ordered required-field list for a regulation.
func (r *Registry) RequiredFields(code string) ([]string, error) {
	s, err := r.Get(code)
	if err != nil {
		return nil, err
	}
	return s.RequiredFields, nil
}
