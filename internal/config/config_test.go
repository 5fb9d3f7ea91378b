package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv(CatalogEnv, "")
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(cfg.Catalog.Source, "data.json"))
	assert.Equal(t, 30, cfg.Catalog.TimeoutSeconds)
	assert.Equal(t, 20, cfg.Quotas.Random)
	assert.Equal(t, 50, cfg.Quotas.Category)
	assert.Equal(t, "127.0.0.1:8080", cfg.API.Bind)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, strings.HasPrefix(cfg.Store.Path, "~"))
}

func TestLoadReadsSections(t *testing.T) {
	t.Setenv(CatalogEnv, "")
	path := writeConfig(t, `
[catalog]
source = "https://example.com/data.json"
watch = true

[store]
path = "/tmp/links.db"

[quotas]
random = 5
favorites = 7

[api]
bind = ":9000"
allowed_origins = ["http://localhost:3000"]

[logging]
level = "DEBUG"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/data.json", cfg.Catalog.Source)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, "/tmp/links.db", cfg.Store.Path)
	assert.Equal(t, 5, cfg.Quotas.Random)
	assert.Equal(t, 7, cfg.Quotas.Favorites)
	assert.Equal(t, 50, cfg.Quotas.Subclass)
	assert.Equal(t, ":9000", cfg.API.Bind)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	q := cfg.SelectionQuotas()
	assert.Equal(t, 5, q.Random)
	assert.Equal(t, 7, q.Favorites)
}

func TestEnvProvidesCatalogSource(t *testing.T) {
	t.Setenv(CatalogEnv, "https://env.example/data.json")
	path := writeConfig(t, "[quotas]\nrandom = 1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/data.json", cfg.Catalog.Source)
}

func TestFileSourceWinsOverEnv(t *testing.T) {
	t.Setenv(CatalogEnv, "https://env.example/data.json")
	path := writeConfig(t, "[catalog]\nsource = \"https://file.example/data.json\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example/data.json", cfg.Catalog.Source)
}

func TestExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"negative quota": "[quotas]\nsubclass = -1\n",
		"bad format":     "[logging]\nformat = \"xml\"\n",
		"blank bind":     "[api]\nbind = \" \"\n",
		"bad toml":       "[quotas\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), got)

	got, err = expandPath("/abs/../abs/z")
	require.NoError(t, err)
	assert.Equal(t, "/abs/z", got)
}

func TestSampleRoundTrips(t *testing.T) {
	cfg := Default()
	out, err := cfg.Sample()
	require.NoError(t, err)
	assert.Contains(t, out, "[quotas]")
	assert.Contains(t, out, "random = 20")
}
