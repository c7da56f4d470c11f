package product

import (
	"encoding/json"
	"fmt"

	"github.com/hatsunemiku3939/versionrouter"
	"github.com/hatsunemiku3939/versionrouter/pkg/jsonschema"
	"github.com/hatsunemiku3939/versionrouter/version"
)

// V1Message is the wire shape of a version 1.x.y product message.
type V1Message struct {
	Version string `json:"version"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Creator string `json:"creator"`
}

// V1 adapts version 1 product messages.
type V1 struct {
	schema *jsonschema.Schema
}

var _ versionrouter.SchemaAdapter = (*V1)(nil)

// NewV1 compiles the version 1 schema.
func NewV1() (*V1, error) {
	s, err := jsonschema.Compile(v1Schema)
	if err != nil {
		return nil, fmt.Errorf("product v1: %w", err)
	}
	return &V1{schema: s}, nil
}

func (*V1) Major() int { return 1 }

// Parse validates p against the version 1 schema and normalizes it.
func (a *V1) Parse(p version.Payload) (versionrouter.OrderItem, error) {
	if err := a.schema.Validate(p.Raw); err != nil {
		return versionrouter.OrderItem{}, fmt.Errorf("%w: product v1: %v", versionrouter.ErrSchemaViolation, err)
	}

	var msg V1Message
	if err := json.Unmarshal(p.Raw, &msg); err != nil {
		return versionrouter.OrderItem{}, fmt.Errorf("%w: product v1: %v", versionrouter.ErrSchemaViolation, err)
	}

	return versionrouter.OrderItem{
		Version: p.Version,
		Media:   versionrouter.Media(msg.Type),
		Name:    msg.Title,
		Author:  msg.Creator,
	}, nil
}
