package confstruct

import "strings"

// resolver serves field lookups against one provider for the duration of a
// single load call. When the provider supports a snapshot, it is taken
// exactly once here and every lookup is served from it; the provider is
// never re-invoked per field.
type resolver struct {
	provider Provider
	raw      map[string]any // snapshot under original keys, nil without a batch path
	index    map[string]any // snapshot under normalized keys
	folded   bool
}

func newResolver(p Provider) (*resolver, error) {
	r := &resolver{provider: p, folded: !p.CaseSensitive()}
	if s, ok := p.(Snapshotter); ok {
		all, err := s.GetAll()
		if err != nil {
			return nil, err
		}
		r.raw = all
		r.index = make(map[string]any, len(all))
		for k, v := range all {
			r.index[r.normalize(k)] = v
		}
	}
	return r, nil
}

func (r *resolver) normalize(key string) string {
	if r.folded {
		return strings.ToLower(key)
	}
	return key
}

// fullKey prepends the provider's prefix to a field key.
func (r *resolver) fullKey(key string) string {
	if pfx := r.provider.Prefix(); pfx != "" {
		return pfx + "_" + key
	}
	return key
}

// lookup returns the raw value for a field key. Absence is distinct from a
// present-but-empty value.
func (r *resolver) lookup(key string) (any, bool) {
	full := r.fullKey(key)
	if r.index != nil {
		v, ok := r.index[r.normalize(full)]
		return v, ok
	}
	if v, ok := r.provider.GetValue(full); ok {
		return v, true
	}
	if r.folded {
		// No batch path: probe the common casings one key at a time.
		for _, probe := range []string{strings.ToUpper(full), strings.ToLower(full)} {
			if probe == full {
				continue
			}
			if v, ok := r.provider.GetValue(probe); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// unknownKeys returns the snapshot keys that match the provider's prefix but
// none of the declared field keys. declared holds normalized full keys.
// Providers without a batch path cannot be strict-checked and report none.
func (r *resolver) unknownKeys(declared map[string]bool) []string {
	if r.raw == nil {
		return nil
	}
	pfx := r.provider.Prefix()
	var unknown []string
	for k := range r.raw {
		if pfx != "" && !strings.HasPrefix(r.normalize(k), r.normalize(pfx+"_")) {
			continue
		}
		if !declared[r.normalize(k)] {
			unknown = append(unknown, k)
		}
	}
	return unknown
}
