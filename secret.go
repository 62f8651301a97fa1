package confstruct

import (
	"encoding/json"
	"fmt"
)

// secretMask is the fixed rendering of every Secret outside of an explicit
// Value call.
const secretMask = "***"

// Secret holds a sensitive string. Its default textual and serialized
// renderings are always the fixed mask; the payload is reachable only
// through Value.
type Secret struct {
	value string
}

// NewSecret wraps v in a Secret.
func NewSecret(v string) Secret {
	return Secret{value: v}
}

// Value returns the underlying payload exactly as coerced.
func (s Secret) Value() string { return s.value }

func (s Secret) String() string { return secretMask }

func (s Secret) GoString() string { return `confstruct.Secret("` + secretMask + `")` }

// EncodeValue renders the mask, never the payload.
func (s Secret) EncodeValue() any { return secretMask }

// MarshalJSON renders the mask, never the payload.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(secretMask)
}

// ValidateValue accepts an existing Secret or anything convertible to a
// string, wrapping it.
func (Secret) ValidateValue(raw any) (Result, error) {
	switch v := raw.(type) {
	case Secret:
		return Instance(v), nil
	case string:
		return Instance(Secret{value: v}), nil
	default:
		return Instance(Secret{value: fmt.Sprintf("%v", v)}), nil
	}
}
