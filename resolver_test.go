package confstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kvProvider answers single-key lookups only, with no batch path, forcing
// the resolver onto per-key probing.
type kvProvider struct {
	providerOptions
	values map[string]string
}

func (p *kvProvider) GetValue(key string) (any, bool) {
	v, ok := p.values[key]
	if !ok {
		return nil, false
	}
	return v, true
}

func TestResolver_ProbesWithoutSnapshot(t *testing.T) {
	type Config struct {
		Port  int
		Empty string
	}

	p := &kvProvider{values: map[string]string{
		"port":  "8000", // only findable through the case-folded probe
		"EMPTY": "",
	}}

	cfg, err := Load[Config](WithProvider(p))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "", cfg.Empty, "present-but-empty is not absent")
}

func TestResolver_ProbeRespectsCaseSensitivity(t *testing.T) {
	type Config struct {
		Port int
	}

	p := &kvProvider{
		providerOptions: providerOptions{caseSensitive: true},
		values:          map[string]string{"port": "8000"},
	}

	_, err := Load[Config](WithProvider(p))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)

	p = &kvProvider{
		providerOptions: providerOptions{caseSensitive: true},
		values:          map[string]string{"PORT": "8000"},
	}

	cfg, err := Load[Config](WithProvider(p))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
}

func TestResolver_ProbeMissing(t *testing.T) {
	type Config struct {
		Port int
	}

	p := &kvProvider{values: map[string]string{}}

	_, err := Load[Config](WithProvider(p))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
}
