package versionrouter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hatsunemiku3939/versionrouter/version"
)

// Media is the kind of product an order item refers to.
type Media string

const (
	MediaBook  Media = "Book"
	MediaFilm  Media = "Film"
	MediaMusic Media = "Music"
	MediaGame  Media = "Game"
)

// Known reports whether m is one of the media kinds this module names.
// Unknown kinds are still accepted and carried verbatim.
func (m Media) Known() bool {
	switch m {
	case MediaBook, MediaFilm, MediaMusic, MediaGame:
		return true
	}
	return false
}

// Persona is a character or participant attached to a product.
type Persona struct {
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Allegiance string `json:"allegiance,omitempty"`
	Note       string `json:"note,omitempty"`
}

// OrderItem is the normalized, version-independent product record.
// It is built once per accepted message and not modified afterwards.
type OrderItem struct {
	Version  version.SemVer `json:"version"`
	Media    Media          `json:"media"`
	Name     string         `json:"name"`
	Author   string         `json:"author"`
	Genre    string         `json:"genre,omitempty"`
	Personas []Persona      `json:"personas,omitempty"`
}

// String renders the normalized summary consumed downstream:
//
//	V2.3.4 media=Book, name=The Player of Games, author=Iain M Banks
func (o OrderItem) String() string {
	return fmt.Sprintf("V%s media=%s, name=%s, author=%s", o.Version, o.Media, o.Name, o.Author)
}

// PersonaSummary lists personas as "name (role)" separated by ", ".
func (o OrderItem) PersonaSummary() string {
	parts := make([]string, 0, len(o.Personas))
	for _, p := range o.Personas {
		if p.Role == "" {
			parts = append(parts, p.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Role))
	}
	return strings.Join(parts, ", ")
}

// clone returns a copy that shares no mutable state with o.
func (o OrderItem) clone() OrderItem {
	o.Personas = slices.Clone(o.Personas)
	return o
}
