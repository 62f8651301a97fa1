package confstruct

// Provider is a source of raw configuration values.
type Provider interface {
	// GetValue returns the raw value for key and whether the key was present.
	// A present-but-empty value reports true.
	GetValue(key string) (any, bool)
	// CaseSensitive reports whether keys must match exactly.
	CaseSensitive() bool
	// Prefix is prepended (with an underscore) to every key before lookup.
	Prefix() string
}

// Snapshotter is implemented by providers that can hand over all of their
// values at once. The loader strongly prefers this path: it takes a single
// snapshot per load call and serves every field lookup from it.
type Snapshotter interface {
	GetAll() (map[string]any, error)
}

// Invalidator is implemented by providers that cache their backing data.
// Invalidate drops the cache so the next lookup re-reads the source.
type Invalidator interface {
	Invalidate()
}

// Validator is implemented by config structs that validate themselves
// after loading.
type Validator interface {
	Validate() error
}

// Validatable is implemented by field types that validate and construct
// themselves from a raw provider value. The returned Result says whether the
// hook produced a finished instance or a primitive still needing built-in
// coercion.
type Validatable interface {
	ValidateValue(raw any) (Result, error)
}

// Encodable is implemented by field types that control their own
// serialized form.
type Encodable interface {
	EncodeValue() any
}

// Result is the tagged outcome of a ValidateValue hook.
type Result struct {
	value    any
	instance bool
}

// RawValue marks v as a primitive that still needs built-in coercion into
// the declared field type.
func RawValue(v any) Result { return Result{value: v} }

// Instance marks v as a fully constructed value of the declared field type,
// used as-is with no further coercion.
func Instance(v any) Result { return Result{value: v, instance: true} }
