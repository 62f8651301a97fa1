package confstruct

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FieldDescriptor describes one declared configuration field. Immutable after
// introspection.
type FieldDescriptor struct {
	Name       string // Go field name
	Key        string // mapped lookup key, e.g. DATABASE_URL
	Index      int
	Type       reflect.Type
	HasDefault bool
	Default    reflect.Value // pre-coerced from the default tag
	Nested     bool
	Secret     bool
	Fields     []FieldDescriptor // child descriptors when Nested
}

// SchemaCache caches per-type field descriptors for the lifetime of the
// cache. The zero value is not usable; use NewSchemaCache.
type SchemaCache struct {
	mapper  KeyMapper
	mu      sync.RWMutex
	entries map[reflect.Type][]FieldDescriptor
	builds  atomic.Int64 // introspection runs, observable in tests
}

// NewSchemaCache returns a cache using the default SCREAMING_SNAKE_CASE
// key mapping.
func NewSchemaCache() *SchemaCache {
	return NewSchemaCacheWithMapper(defaultMapper)
}

// NewSchemaCacheWithMapper returns a cache whose descriptors use m for
// field-name-to-key mapping.
func NewSchemaCacheWithMapper(m KeyMapper) *SchemaCache {
	return &SchemaCache{mapper: m, entries: make(map[reflect.Type][]FieldDescriptor)}
}

// Descriptors returns the ordered field descriptors for t, introspecting on
// first use and serving the cached result afterwards. Safe for concurrent
// use; a first-access race populates the same result idempotently.
func (c *SchemaCache) Descriptors(t reflect.Type) ([]FieldDescriptor, error) {
	c.mu.RLock()
	fields, ok := c.entries[t]
	c.mu.RUnlock()
	if ok {
		return fields, nil
	}

	fields, err := c.introspect(t)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cached, ok := c.entries[t]; ok {
		fields = cached
	} else {
		c.entries[t] = fields
	}
	c.mu.Unlock()
	return fields, nil
}

// Clear drops all cached descriptors, forcing re-introspection on the next
// load. Intended for test isolation.
func (c *SchemaCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[reflect.Type][]FieldDescriptor)
	c.mu.Unlock()
}

func (c *SchemaCache) introspect(t reflect.Type) ([]FieldDescriptor, error) {
	c.builds.Add(1)

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrSchema, t)
	}

	var fields []FieldDescriptor
	seen := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		d := FieldDescriptor{
			Name:   f.Name,
			Key:    c.mapper.Field(f.Name),
			Index:  i,
			Type:   f.Type,
			Secret: f.Tag.Get("secret") == "true" || f.Type == secretType,
		}

		if f.Type.Kind() == reflect.Interface {
			return nil, fmt.Errorf("%w: field %s has ambiguous type %s", ErrSchema, f.Name, f.Type)
		}

		if isNestedStruct(f.Type) {
			children, err := c.introspect(f.Type)
			if err != nil {
				return nil, fmt.Errorf("in field %s: %w", f.Name, err)
			}
			d.Nested = true
			d.Fields = children
			if err := noteLeafKeys(seen, d, f.Name); err != nil {
				return nil, err
			}
			fields = append(fields, d)
			continue
		}

		if err := noteLeafKeys(seen, d, f.Name); err != nil {
			return nil, err
		}

		if def, ok := f.Tag.Lookup("default"); ok {
			dv := reflect.New(f.Type).Elem()
			if err := coerceRaw(dv, f.Type, def); err != nil {
				return nil, fmt.Errorf("%w: field %s has bad default %q: %v", ErrSchema, f.Name, def, err)
			}
			d.HasDefault = true
			d.Default = dv
		} else if f.Tag.Get("optional") == "true" {
			d.HasDefault = true
			d.Default = reflect.Zero(f.Type)
		}

		fields = append(fields, d)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no settable fields", ErrSchema, t)
	}
	return fields, nil
}

// noteLeafKeys records every lookup key a descriptor contributes, expanding
// nested paths, so that a top-level DATABASE_HOST and a nested
// Database.Host collide at introspection instead of silently reading the
// same provider key. Matching is case-insensitive by default, so
// uniqueness is too.
func noteLeafKeys(seen map[string]string, d FieldDescriptor, name string) error {
	for _, leaf := range leafKeys([]FieldDescriptor{d}, "") {
		folded := strings.ToLower(leaf)
		if prev, dup := seen[folded]; dup {
			return fmt.Errorf("%w: fields %s and %s both resolve to key %q", ErrSchema, prev, name, leaf)
		}
		seen[folded] = name
	}
	return nil
}

// isNestedStruct reports whether t is a recursively-introspected sub-schema,
// as opposed to a leaf struct handled by a hook or a built-in rule.
func isNestedStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	if t == timeType || t == secretType {
		return false
	}
	if t.Implements(validatableType) || reflect.PointerTo(t).Implements(validatableType) {
		return false
	}
	return true
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	secretType      = reflect.TypeOf(Secret{})
	validatableType = reflect.TypeOf((*Validatable)(nil)).Elem()
	encodableType   = reflect.TypeOf((*Encodable)(nil)).Elem()
)

// defaultCache backs loads that do not inject their own cache.
var defaultCache = NewSchemaCache()

// ClearCache drops the process-wide schema-descriptor cache. Intended for
// test isolation; provider caches are cleared separately via Invalidate.
func ClearCache() {
	defaultCache.Clear()
}
