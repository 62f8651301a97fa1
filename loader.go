package confstruct

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Load populates a fresh instance of T from the configured providers,
// resolving, coercing, and validating every declared field. Without an
// explicit provider the process environment is used.
//
// All field failures from one call are collected into a single
// *AggregateError; a failed load produces no usable instance.
func Load[T any](opts ...Option) (*T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.providers) == 0 {
		o.providers = []Provider{Env()}
	}
	cache := o.cache
	if cache == nil {
		cache = defaultCache
	}

	var cfg T
	t := reflect.TypeOf(cfg)

	// Schema problems are fatal and never aggregated.
	fields, err := cache.Descriptors(t)
	if err != nil {
		return nil, err
	}

	st := &loadState{logger: o.logger}
	for _, p := range o.providers {
		r, err := newResolver(p)
		if err != nil {
			return nil, fmt.Errorf("confstruct: provider snapshot: %w", err)
		}
		st.resolvers = append(st.resolvers, r)
	}

	var errs []*FieldError
	st.populate(reflect.ValueOf(&cfg).Elem(), fields, "", &errs)

	if o.strict {
		st.checkUnknown(fields, &errs)
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}

	if o.tagValidation {
		if errs := validateTags(&cfg); len(errs) > 0 {
			return nil, &AggregateError{Errors: errs}
		}
	}
	if o.validator != nil {
		if err := o.validator(&cfg); err != nil {
			return nil, &AggregateError{Errors: []*FieldError{
				{Field: "config", Err: fmt.Errorf("%w: %v", ErrValidation, err)},
			}}
		}
	}
	if v, ok := any(&cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &AggregateError{Errors: []*FieldError{
				{Field: "config", Err: fmt.Errorf("%w: %v", ErrValidation, err)},
			}}
		}
	}

	if o.logger != nil {
		o.logger.Info("configuration loaded", "type", t.String(), "fields", len(fields))
	}
	return &cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](opts ...Option) *T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// loadState carries the per-call resolvers; the loader itself holds no
// persistent state across calls.
type loadState struct {
	resolvers []*resolver
	logger    *slog.Logger
}

// lookup asks the providers in reverse registration order so that later
// providers override earlier ones.
func (st *loadState) lookup(key string) (any, bool) {
	for i := len(st.resolvers) - 1; i >= 0; i-- {
		if v, ok := st.resolvers[i].lookup(key); ok {
			return v, true
		}
	}
	return nil, false
}

// populate walks the descriptors in declaration order, resolving and
// coercing each field. Failures are collected, not returned early, so a
// single bad load reports every broken field.
func (st *loadState) populate(v reflect.Value, fields []FieldDescriptor, path string, errs *[]*FieldError) {
	for _, d := range fields {
		fv := v.Field(d.Index)
		key := path + d.Key

		if d.Nested {
			st.populate(fv, d.Fields, key+"_", errs)
			continue
		}

		raw, ok := st.lookup(key)
		if !ok {
			if d.HasDefault {
				fv.Set(d.Default)
				st.trace(key, d, "default")
				continue
			}
			*errs = append(*errs, &FieldError{Field: key, Err: ErrMissingField})
			continue
		}

		if err := coerceRaw(fv, d.Type, raw); err != nil {
			*errs = append(*errs, &FieldError{Field: key, Err: err})
			continue
		}
		st.trace(key, d, "provider")
	}
}

func (st *loadState) trace(key string, d FieldDescriptor, source string) {
	if st.logger == nil {
		return
	}
	if d.Secret {
		st.logger.Debug("field resolved", "key", key, "source", source, "value", secretMask)
		return
	}
	st.logger.Debug("field resolved", "key", key, "source", source)
}

// checkUnknown compares each provider snapshot against the declared field
// keys and reports every unmatched key.
func (st *loadState) checkUnknown(fields []FieldDescriptor, errs *[]*FieldError) {
	leaves := leafKeys(fields, "")
	for _, r := range st.resolvers {
		declared := make(map[string]bool, len(leaves))
		for _, k := range leaves {
			declared[r.normalize(r.fullKey(k))] = true
		}
		for _, k := range r.unknownKeys(declared) {
			*errs = append(*errs, &FieldError{Field: k, Err: ErrUnknownField})
		}
	}
}

// leafKeys expands the descriptor tree into the full set of lookup keys.
func leafKeys(fields []FieldDescriptor, path string) []string {
	var keys []string
	for _, d := range fields {
		if d.Nested {
			keys = append(keys, leafKeys(d.Fields, path+d.Key+"_")...)
			continue
		}
		keys = append(keys, path+d.Key)
	}
	return keys
}
