package versionrouter

import (
	"context"
	"fmt"
	"slices"

	"github.com/hatsunemiku3939/versionrouter/policy/routing"
	"github.com/hatsunemiku3939/versionrouter/version"
)

// Registry maps major schema versions to their adapters. The table is fixed at
// construction and never mutated, so lookups need no locking.
type Registry struct {
	adapters      map[int]SchemaAdapter
	majors        []int
	routingPolicy routing.Policy
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithRoutingPolicy replaces the default major-version match.
func WithRoutingPolicy(p routing.Policy) RegistryOption {
	return func(r *Registry) { r.routingPolicy = p }
}

// NewRegistry builds the dispatch table. It fails when adapters is empty, holds a
// nil adapter or a negative major, or registers the same major twice.
func NewRegistry(adapters []SchemaAdapter, opts ...RegistryOption) (*Registry, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}

	r := &Registry{
		adapters:      make(map[int]SchemaAdapter, len(adapters)),
		routingPolicy: routing.MajorMatchPolicy{},
	}
	for i, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("adapter %d is nil", i)
		}
		major := a.Major()
		if major < 0 {
			return nil, fmt.Errorf("adapter %d has negative major version %d", i, major)
		}
		if _, exists := r.adapters[major]; exists {
			return nil, fmt.Errorf("%w for major version %d", ErrDuplicateAdapter, major)
		}
		r.adapters[major] = a
		r.majors = append(r.majors, major)
	}
	slices.Sort(r.majors)

	for _, opt := range opts {
		opt(r)
	}
	if r.routingPolicy == nil {
		r.routingPolicy = routing.MajorMatchPolicy{}
	}
	return r, nil
}

// Resolve returns the adapter that handles v.
func (r *Registry) Resolve(ctx context.Context, v version.SemVer) (SchemaAdapter, error) {
	major, ok := r.routingPolicy.Decide(ctx, v, r.majors)
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for %s (major %d)", ErrUnsupportedVersion, v, v.Major)
	}
	a, ok := r.adapters[major]
	if !ok {
		return nil, fmt.Errorf("%w: routing selected unregistered major %d for %s", ErrUnsupportedVersion, major, v)
	}
	return a, nil
}

// Majors returns the registered major versions in ascending order.
func (r *Registry) Majors() []int {
	return slices.Clone(r.majors)
}
