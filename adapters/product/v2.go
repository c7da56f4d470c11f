package product

import (
	"encoding/json"
	"fmt"

	"github.com/hatsunemiku3939/versionrouter"
	"github.com/hatsunemiku3939/versionrouter/pkg/jsonschema"
	"github.com/hatsunemiku3939/versionrouter/version"
)

// V2Message is the wire shape of a version 2.x.y product message.
type V2Message struct {
	Version  string      `json:"version"`
	Media    string      `json:"media"`
	Name     string      `json:"name"`
	Author   string      `json:"author"`
	Genre    string      `json:"genre"`
	Personas []V2Persona `json:"personas"`
}

// V2Persona is one entry of V2Message.Personas.
type V2Persona struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Allegiance string `json:"allegiance"`
	Note       string `json:"note"`
}

// V2 adapts version 2 product messages.
type V2 struct {
	schema *jsonschema.Schema
}

var _ versionrouter.SchemaAdapter = (*V2)(nil)

// NewV2 compiles the version 2 schema.
func NewV2() (*V2, error) {
	s, err := jsonschema.Compile(v2Schema)
	if err != nil {
		return nil, fmt.Errorf("product v2: %w", err)
	}
	return &V2{schema: s}, nil
}

func (*V2) Major() int { return 2 }

// Parse validates p against the version 2 schema and normalizes it.
func (a *V2) Parse(p version.Payload) (versionrouter.OrderItem, error) {
	if err := a.schema.Validate(p.Raw); err != nil {
		return versionrouter.OrderItem{}, fmt.Errorf("%w: product v2: %v", versionrouter.ErrSchemaViolation, err)
	}

	var msg V2Message
	if err := json.Unmarshal(p.Raw, &msg); err != nil {
		return versionrouter.OrderItem{}, fmt.Errorf("%w: product v2: %v", versionrouter.ErrSchemaViolation, err)
	}

	item := versionrouter.OrderItem{
		Version: p.Version,
		Media:   versionrouter.Media(msg.Media),
		Name:    msg.Name,
		Author:  msg.Author,
		Genre:   msg.Genre,
	}
	for _, persona := range msg.Personas {
		item.Personas = append(item.Personas, versionrouter.Persona(persona))
	}
	return item, nil
}
