// Package confstruct provides type-safe configuration loading from pluggable sources.
//
// A configuration schema is a plain struct. Field names map to
// SCREAMING_SNAKE_CASE lookup keys, and struct tags control defaults and
// masking:
//
//	type Config struct {
//	    Port        int    `default:"8080"`
//	    DatabaseURL string
//	    APIKey      confstruct.Secret
//	}
//
//	cfg, err := confstruct.Load[Config]()
//
// The field "DatabaseURL" loads from the key "DATABASE_URL". Matching is
// case-insensitive by default. Fields without a default tag are required:
// loading fails if no provider supplies them. Tag a field `optional:"true"`
// to fall back to its zero value instead.
//
// # Providers
//
// Values come from providers, layered last-wins:
//
//   - Env()            - process environment (snapshotted per provider)
//   - Dotenv(path)     - dotenv-style file
//   - JSONFile(path)   - JSON file, nested objects flattened
//   - YAMLFile(path)   - YAML file
//   - TOMLFile(path)   - TOML file
//   - Map(values)      - explicit key-value map
//
// Providers take options: WithPrefix("APP") namespaces every key under
// APP_, WithCaseSensitive() disables case folding.
//
//	cfg, err := confstruct.Load[Config](
//	    confstruct.WithProvider(confstruct.Dotenv(".env")),
//	    confstruct.WithProvider(confstruct.Env(confstruct.WithPrefix("APP"))),
//	)
//
// # Coercion
//
// Built-in rules cover strings, integers, floats, booleans, time.Duration,
// time.Time (RFC 3339), and slices (CSV from textual sources, native lists
// from structured ones). Boolean parsing is deliberately lenient: "true",
// "1", "yes" and "on" (any case) are true, anything else is false.
//
// Field types can take over their own construction by implementing
// Validatable; values control their serialized form via Encodable.
//
// # Secrets
//
// Secret stores a sensitive string. It prints, logs, and encodes as "***";
// the payload is only reachable through Value(). Plain string fields tagged
// `secret:"true"` are masked in Print output.
//
// # Errors
//
// Every failing field from one load is reported at once through a single
// *AggregateError; match individual causes with errors.Is against
// ErrMissingField, ErrCoercion, ErrValidation, ErrUnknownField,
// ErrUnsupportedType, and ErrSchema.
//
// # Strict mode
//
// WithStrict() rejects provider snapshots containing keys that match no
// declared field. Combine it with a provider prefix when reading the
// process environment, otherwise every unrelated variable is
// an unknown key.
package confstruct
