package confstruct

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderOption configures a built-in provider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	prefix        string
	caseSensitive bool
}

func (o providerOptions) CaseSensitive() bool { return o.caseSensitive }
func (o providerOptions) Prefix() string      { return o.prefix }

// WithPrefix sets a key prefix. Example: WithPrefix("APP") makes the field
// key PORT look up APP_PORT. The prefix keeps the caller's casing; the
// default case-insensitive matching folds it like any other key, while a
// WithCaseSensitive provider matches it exactly.
func WithPrefix(prefix string) ProviderOption {
	return func(o *providerOptions) {
		o.prefix = strings.TrimSuffix(prefix, "_")
	}
}

// WithCaseSensitive makes key matching exact instead of the default
// case-insensitive folding.
func WithCaseSensitive() ProviderOption {
	return func(o *providerOptions) {
		o.caseSensitive = true
	}
}

func buildProviderOptions(opts []ProviderOption) providerOptions {
	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ============================================================================
// Environment Provider
// ============================================================================

type envProvider struct {
	providerOptions
	mu   sync.Mutex
	snap map[string]any
}

// Env returns a provider that reads from environment variables. The
// environment is snapshotted on first use; Invalidate drops the snapshot.
func Env(opts ...ProviderOption) Provider {
	return &envProvider{providerOptions: buildProviderOptions(opts)}
}

func (p *envProvider) GetAll() (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		p.snap = make(map[string]any)
		for _, env := range os.Environ() {
			if i := strings.Index(env, "="); i >= 0 {
				p.snap[env[:i]] = env[i+1:]
			}
		}
	}
	return p.snap, nil
}

func (p *envProvider) GetValue(key string) (any, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil, false
	}
	return v, true
}

func (p *envProvider) Invalidate() {
	p.mu.Lock()
	p.snap = nil
	p.mu.Unlock()
}

// ============================================================================
// File Providers
// ============================================================================

// fileCache holds parsed file contents keyed by absolute path, shared across
// provider instances for the process lifetime.
var fileCache sync.Map

// ClearFileCache drops every cached parsed file. Individual providers can
// instead Invalidate just their own entry.
func ClearFileCache() {
	fileCache.Range(func(k, _ any) bool {
		fileCache.Delete(k)
		return true
	})
}

type fileProvider struct {
	providerOptions
	path   string
	data   []byte // literal source when path is empty
	decode func([]byte) (map[string]any, error)

	mu     sync.Mutex
	values map[string]any
}

func (p *fileProvider) GetAll() (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values != nil {
		return p.values, nil
	}

	if p.path != "" {
		if cached, ok := fileCache.Load(p.path); ok {
			p.values = cached.(map[string]any)
			return p.values, nil
		}
	}

	data := p.data
	if p.path != "" {
		b, err := os.ReadFile(p.path)
		if err != nil {
			if os.IsNotExist(err) {
				// A missing config file is an empty source, not an error.
				p.values = map[string]any{}
				return p.values, nil
			}
			return nil, err
		}
		data = b
	}

	values, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.path, err)
	}
	p.values = values
	if p.path != "" {
		fileCache.Store(p.path, values)
	}
	return values, nil
}

func (p *fileProvider) GetValue(key string) (any, bool) {
	all, err := p.GetAll()
	if err != nil {
		return nil, false
	}
	v, ok := all[key]
	return v, ok
}

func (p *fileProvider) Invalidate() {
	p.mu.Lock()
	p.values = nil
	p.mu.Unlock()
	if p.path != "" {
		fileCache.Delete(p.path)
	}
}

func newFileProvider(path string, decode func([]byte) (map[string]any, error), opts []ProviderOption) Provider {
	abs, _ := filepath.Abs(path)
	return &fileProvider{
		providerOptions: buildProviderOptions(opts),
		path:            abs,
		decode:          decode,
	}
}

// JSONFile returns a provider backed by a JSON file. Nested objects flatten
// into underscore-joined keys; parsed contents are cached per path.
func JSONFile(path string, opts ...ProviderOption) Provider {
	return newFileProvider(path, decodeJSON, opts)
}

// JSONBytes returns a provider backed by literal JSON data.
func JSONBytes(data []byte, opts ...ProviderOption) Provider {
	return &fileProvider{
		providerOptions: buildProviderOptions(opts),
		data:            data,
		decode:          decodeJSON,
	}
}

// YAMLFile returns a provider backed by a YAML file.
func YAMLFile(path string, opts ...ProviderOption) Provider {
	return newFileProvider(path, decodeYAML, opts)
}

// TOMLFile returns a provider backed by a TOML file.
func TOMLFile(path string, opts ...ProviderOption) Provider {
	return newFileProvider(path, decodeTOML, opts)
}

// Dotenv returns a provider backed by a dotenv-style file.
func Dotenv(path string, opts ...ProviderOption) Provider {
	return newFileProvider(path, decodeDotenv, opts)
}

func decodeJSON(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	values := make(map[string]any)
	flattenMap("", raw, values)
	return values, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	values := make(map[string]any)
	flattenMap("", raw, values)
	return values, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	values := make(map[string]any)
	flattenMap("", raw, values)
	return values, nil
}

func decodeDotenv(data []byte) (map[string]any, error) {
	parsed, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(parsed))
	for k, v := range parsed {
		values[k] = v
	}
	return values, nil
}

// flattenMap flattens nested maps into underscore-joined SCREAMING_SNAKE
// keys, preserving value types. Slices stay intact for the coercion engine.
func flattenMap(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := toScreamingSnake(k)
		if prefix != "" {
			key = prefix + "_" + key
		}

		switch val := v.(type) {
		case map[string]any:
			flattenMap(key, val, out)
		default:
			out[key] = val
		}
	}
}

// ============================================================================
// Map Provider
// ============================================================================

type mapProvider struct {
	providerOptions
	values map[string]any
}

// Map returns a provider serving a literal key-value map, mainly useful in
// tests.
func Map(values map[string]any, opts ...ProviderOption) Provider {
	return &mapProvider{providerOptions: buildProviderOptions(opts), values: values}
}

func (p *mapProvider) GetAll() (map[string]any, error) {
	return p.values, nil
}

func (p *mapProvider) GetValue(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}
