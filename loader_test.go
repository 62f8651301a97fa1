package confstruct

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv sets environment variables for the duration of a test.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	type Config struct {
		Port    int           `default:"8080"`
		Host    string        `default:"localhost"`
		Debug   bool          `default:"false"`
		Timeout time.Duration `default:"30s"`
	}

	cfg, err := Load[Config](WithProvider(Map(nil)))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_Env(t *testing.T) {
	setEnv(t, map[string]string{"PORT": "3000", "DEBUG": "true"})

	type Config struct {
		Port  int  `default:"8080"`
		Debug bool `default:"false"`
	}

	cfg, err := Load[Config]()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingRequired(t *testing.T) {
	type Config struct {
		DatabaseURL string
	}

	_, err := Load[Config](WithProvider(Map(nil)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_PresentButEmpty(t *testing.T) {
	type Config struct {
		Name string
	}

	// An empty value is present, not absent.
	cfg, err := Load[Config](WithProvider(Map(map[string]any{"NAME": ""})))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Name)
}

func TestLoad_Optional(t *testing.T) {
	type Config struct {
		Note string `optional:"true"`
	}

	cfg, err := Load[Config](WithProvider(Map(nil)))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Note)
}

func TestLoad_Nested(t *testing.T) {
	type Config struct {
		Database struct {
			Host string `default:"localhost"`
			Port int    `default:"3306"`
		}
	}

	cfg, err := Load[Config](WithProvider(Map(map[string]any{
		"DATABASE_HOST": "db.example.com",
		"DATABASE_PORT": "5432",
	})))
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_CaseInsensitiveByDefault(t *testing.T) {
	type Config struct {
		Port int
		Host string
	}

	cfg, err := Load[Config](WithProvider(Map(map[string]any{
		"port": "8000",
		"hOsT": "example.com",
	})))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "example.com", cfg.Host)
}

func TestLoad_CaseSensitive(t *testing.T) {
	type Config struct {
		Port int
	}

	_, err := Load[Config](WithProvider(Map(
		map[string]any{"port": "8000"},
		WithCaseSensitive(),
	)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)

	cfg, err := Load[Config](WithProvider(Map(
		map[string]any{"PORT": "8000"},
		WithCaseSensitive(),
	)))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
}

func TestLoad_ProviderPrefix(t *testing.T) {
	setEnv(t, map[string]string{"APP_PORT": "9000"})

	type Config struct {
		Port int `default:"8080"`
	}

	cfg, err := Load[Config](WithProvider(Env(WithPrefix("APP"))))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_ProviderLayering(t *testing.T) {
	type Config struct {
		Port int
		Host string
	}

	// Later providers win key by key.
	cfg, err := Load[Config](
		WithProvider(Map(map[string]any{"PORT": "5000", "HOST": "0.0.0.0"})),
		WithProvider(Map(map[string]any{"PORT": "6000"})),
	)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
}

func TestLoad_Strict(t *testing.T) {
	type Config struct {
		Port int
	}

	values := map[string]any{"PORT": "8000", "LEGACY_FLAG": "1"}

	_, err := Load[Config](WithProvider(Map(values)), WithStrict())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "LEGACY_FLAG")

	cfg, err := Load[Config](WithProvider(Map(values)))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
}

func TestLoad_StrictWithPrefix(t *testing.T) {
	type Config struct {
		Port int
	}

	// Keys outside the provider prefix are not the schema's business.
	cfg, err := Load[Config](
		WithProvider(Map(map[string]any{"APP_PORT": "8000", "OTHER_THING": "x"}, WithPrefix("APP"))),
		WithStrict(),
	)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)

	_, err = Load[Config](
		WithProvider(Map(map[string]any{"APP_PORT": "8000", "APP_EXTRA": "x"}, WithPrefix("APP"))),
		WithStrict(),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestLoad_AggregatesAllFailures(t *testing.T) {
	type Config struct {
		Port    int
		Ratio   float64
		Missing string
	}

	_, err := Load[Config](WithProvider(Map(map[string]any{
		"PORT":  "not-a-number",
		"RATIO": "also-bad",
	})))
	require.Error(t, err)

	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 3)
	assert.ErrorIs(t, err, ErrCoercion)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestLoad_ValidatorFunc(t *testing.T) {
	type Config struct {
		Port int `default:"80"`
	}

	_, err := Load[Config](
		WithProvider(Map(nil)),
		WithValidator(func(cfg any) error {
			if cfg.(*Config).Port < 1024 {
				return fmt.Errorf("port %d is privileged", cfg.(*Config).Port)
			}
			return nil
		}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

type validatableConfig struct {
	Port int `default:"80"`
}

func (c *validatableConfig) Validate() error {
	if c.Port < 1024 {
		return errors.New("privileged port")
	}
	return nil
}

func TestLoad_ValidatorInterface(t *testing.T) {
	_, err := Load[validatableConfig](WithProvider(Map(nil)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoad_TagValidation(t *testing.T) {
	type Config struct {
		Port int `default:"80" validate:"gte=1024"`
	}

	_, err := Load[Config](WithProvider(Map(nil)), WithTagValidation())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "PORT")

	cfg, err := Load[Config](
		WithProvider(Map(map[string]any{"PORT": "8000"})),
		WithTagValidation(),
	)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
}

func TestLoad_Logger(t *testing.T) {
	type Config struct {
		Port  int `default:"8080"`
		Token Secret
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Load[Config](
		WithProvider(Map(map[string]any{"TOKEN": "top-secret-token"})),
		WithLogger(logger),
	)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "configuration loaded")
	assert.NotContains(t, out, "top-secret-token")
}

func TestMustLoad_Panics(t *testing.T) {
	type Config struct {
		Required string
	}

	assert.Panics(t, func() {
		MustLoad[Config](WithProvider(Map(nil)))
	})
}

func TestLoad_Duration(t *testing.T) {
	setEnv(t, map[string]string{"TIMEOUT": "5m30s"})

	type Config struct {
		Timeout time.Duration `default:"30s"`
	}

	cfg, err := Load[Config]()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute+30*time.Second, cfg.Timeout)
}

func TestLoad_Slice(t *testing.T) {
	setEnv(t, map[string]string{"HOSTS": "host1, host2,host3"})

	type Config struct {
		Hosts []string
	}

	cfg, err := Load[Config]()
	require.NoError(t, err)
	assert.Equal(t, []string{"host1", "host2", "host3"}, cfg.Hosts)
}

func TestLoad_DefaultProviderIsEnv(t *testing.T) {
	key := "CONFSTRUCT_DEFAULT_PROVIDER_PROBE"
	t.Setenv(key, "42")

	type Config struct {
		ConfstructDefaultProviderProbe int
	}

	cfg, err := Load[Config]()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.ConfstructDefaultProviderProbe)
}
