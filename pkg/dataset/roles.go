package dataset

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch reports a disagreement between the declared column
// roles and the columns actually present in a table.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Role classifies how a column is treated by the pipeline.
type Role string

const (
	RoleOrdinal Role = "ordinal"
	RoleNominal Role = "nominal"
	RoleNumeric Role = "numeric"
	RoleTarget  Role = "target"
	RoleIgnore  Role = "ignore"
)

// Registry holds the declared partition of columns into roles.
// It is immutable after construction; train and predict runs that
// share an artifact set must be built from the same declaration.
type Registry struct {
	roles    map[string]Role
	ordinals []string
	nominals []string
	numerics []string
	targets  []string
}

// NewRegistry builds a registry from the per-role column lists.
// A column may carry exactly one role.
func NewRegistry(ordinals, nominals, numerics, targets, ignored []string) (*Registry, error) {
	r := &Registry{
		roles:    make(map[string]Role),
		ordinals: append([]string(nil), ordinals...),
		nominals: append([]string(nil), nominals...),
		numerics: append([]string(nil), numerics...),
		targets:  append([]string(nil), targets...),
	}
	assign := func(cols []string, role Role) error {
		for _, c := range cols {
			if prev, ok := r.roles[c]; ok {
				return fmt.Errorf("column %q declared as both %s and %s: %w", c, prev, role, ErrSchemaMismatch)
			}
			r.roles[c] = role
		}
		return nil
	}
	for _, p := range []struct {
		cols []string
		role Role
	}{
		{ordinals, RoleOrdinal},
		{nominals, RoleNominal},
		{numerics, RoleNumeric},
		{targets, RoleTarget},
		{ignored, RoleIgnore},
	} {
		if err := assign(p.cols, p.role); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Role returns the declared role of a column.
func (r *Registry) Role(name string) (Role, bool) {
	role, ok := r.roles[name]
	return role, ok
}

// Ordinals returns the ordinal-categorical columns in declared order.
func (r *Registry) Ordinals() []string { return append([]string(nil), r.ordinals...) }

// Nominals returns the nominal-categorical columns in declared order.
func (r *Registry) Nominals() []string { return append([]string(nil), r.nominals...) }

// Numerics returns the numeric columns in declared order.
func (r *Registry) Numerics() []string { return append([]string(nil), r.numerics...) }

// Targets returns the target columns in declared order.
func (r *Registry) Targets() []string { return append([]string(nil), r.targets...) }

// Features returns every non-target feature column in declared order:
// ordinals, then nominals, then numerics. This order drives the
// encoded output layout.
func (r *Registry) Features() []string {
	out := make([]string, 0, len(r.ordinals)+len(r.nominals)+len(r.numerics))
	out = append(out, r.ordinals...)
	out = append(out, r.nominals...)
	out = append(out, r.numerics...)
	return out
}

// Validate checks a feature table against the declaration. Every
// declared feature column must be present; every table column must be
// declared (any role, including ignore).
func (r *Registry) Validate(t *Table) error {
	for _, c := range r.Features() {
		if !t.HasColumn(c) {
			return fmt.Errorf("declared column %q absent from dataset: %w", c, ErrSchemaMismatch)
		}
	}
	return r.ValidateKnown(t)
}

// ValidateKnown checks only that every table column carries a declared
// role. Inference runs use this lighter check: a declared column
// missing at apply time is the fitted artifact's complaint, not a
// schema declaration error.
func (r *Registry) ValidateKnown(t *Table) error {
	for _, c := range t.Columns {
		if _, ok := r.roles[c]; !ok {
			return fmt.Errorf("dataset column %q has no declared role and is not ignored: %w", c, ErrSchemaMismatch)
		}
	}
	return nil
}
