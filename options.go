package confstruct

import "log/slog"

// Option configures a load call.
type Option func(*options)

type options struct {
	providers     []Provider
	cache         *SchemaCache
	strict        bool
	logger        *slog.Logger
	validator     func(any) error
	tagValidation bool
}

// WithProvider adds a configuration provider. Later providers override
// earlier ones key by key.
func WithProvider(p Provider) Option {
	return func(o *options) {
		o.providers = append(o.providers, p)
	}
}

// WithSchemaCache uses c instead of the process-wide descriptor cache,
// giving the cache an explicit, injectable lifetime.
func WithSchemaCache(c *SchemaCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithStrict rejects provider snapshots containing keys that match no
// declared field.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithLogger enables load tracing. Secret values are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithValidator sets a custom validation function run against the populated
// config.
func WithValidator(fn func(any) error) Option {
	return func(o *options) {
		o.validator = fn
	}
}

// WithTagValidation validates the populated config against its
// `validate:"..."` struct tags using go-playground/validator.
func WithTagValidation() Option {
	return func(o *options) {
		o.tagValidation = true
	}
}
