// Package product holds the schema adapters for every supported major version
// of the product message.
package product

import "github.com/hatsunemiku3939/versionrouter"

// Adapters returns one adapter per supported major version.
func Adapters() ([]versionrouter.SchemaAdapter, error) {
	v1, err := NewV1()
	if err != nil {
		return nil, err
	}
	v2, err := NewV2()
	if err != nil {
		return nil, err
	}
	return []versionrouter.SchemaAdapter{v1, v2}, nil
}

// NewRegistry builds a Registry with the standard product adapters.
func NewRegistry(opts ...versionrouter.RegistryOption) (*versionrouter.Registry, error) {
	adapters, err := Adapters()
	if err != nil {
		return nil, err
	}
	return versionrouter.NewRegistry(adapters, opts...)
}
