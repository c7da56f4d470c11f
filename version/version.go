// Package version extracts and parses the schema version carried by a raw
// message before the rest of the payload is deserialized.
package version

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldName is the top-level JSON key holding the schema version.
const FieldName = "version"

// ErrMalformed is returned when the version field is missing, is not a string,
// or is not of the form MAJOR.MINOR.PATCH.
var ErrMalformed = errors.New("malformed version")

// SemVer is a MAJOR.MINOR.PATCH schema version.
type SemVer struct {
	Major int
	Minor int
	Patch int
}

// String renders the version as "MAJOR.MINOR.PATCH".
func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler.
func (v SemVer) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *SemVer) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse parses s strictly as three dot-separated non-negative integers.
func Parse(s string) (SemVer, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("%w: %q is not MAJOR.MINOR.PATCH", ErrMalformed, s)
	}

	var nums [3]int
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return SemVer{}, fmt.Errorf("%w: %q has a non-numeric component", ErrMalformed, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return SemVer{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
		}
		nums[i] = n
	}
	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Payload is a raw message together with the version it declares.
// Raw is a private copy of the received bytes and must not be modified.
type Payload struct {
	Raw     []byte
	Version SemVer
}

// Extract reads the top-level "version" field of a JSON object without
// decoding the rest of the document. Content after the version field is not
// inspected, so a truncated or malformed tail is tolerated.
func Extract(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Payload{}, fmt.Errorf("%w: payload is not a JSON object", ErrMalformed)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Payload{}, fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
		}

		if key != FieldName {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Payload{}, fmt.Errorf("%w: skipping %q: %v", ErrMalformed, key, err)
			}
			continue
		}

		tok, err = dec.Token()
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		s, ok := tok.(string)
		if !ok {
			return Payload{}, fmt.Errorf("%w: %q field is not a string", ErrMalformed, FieldName)
		}
		v, err := Parse(s)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Raw: bytes.Clone(raw), Version: v}, nil
	}

	return Payload{}, fmt.Errorf("%w: %q field is missing", ErrMalformed, FieldName)
}
