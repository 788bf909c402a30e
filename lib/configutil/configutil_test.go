package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type nested struct {
	MaxAttempts int     `json:"max_attempts"`
	Multiplier  float64 `json:"multiplier"`
}

type config struct {
	SourceURL string `json:"source_url"`
	Listen    string `json:"listen"`
	Retry     nested `json:"retry"`
}

func write(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aags.json5")

	_, err := ReadConfig[config](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	write(t, path, `{
		// comments and trailing commas are allowed
		source_url: "https://eecsis.mit.edu/degree_requirements.html",
		listen: ":8080",
		retry: { max_attempts: 3, multiplier: 2 },
	}`)
	write(t, filepath.Join(dir, "aags.local.json5"), `{ listen: ":9090", retry: { max_attempts: 5 } }`)

	cfg, err := ReadConfig[config](path)
	require.NoError(t, err)
	require.Equal(t, config{
		SourceURL: "https://eecsis.mit.edu/degree_requirements.html",
		Listen:    ":9090",
		Retry:     nested{MaxAttempts: 5, Multiplier: 2},
	}, cfg)
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aags.json5")
	write(t, path, `{ listen: `)

	_, err := ReadConfig[config](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestLoad(t *testing.T) {
	defaults := config{
		SourceURL: "https://example.com",
		Listen:    ":8080",
		Retry:     nested{MaxAttempts: 3, Multiplier: 2},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json5")
	write(t, path, `{ listen: ":7000", retry: { max_attempts: 1 } }`)

	cfg, err := Load(path, "aags.json5", defaults)
	require.NoError(t, err)
	require.Equal(t, config{
		SourceURL: "https://example.com",
		Listen:    ":7000",
		Retry:     nested{MaxAttempts: 1, Multiplier: 2},
	}, cfg)

	_, err = Load(filepath.Join(dir, "missing.json5"), "aags.json5", defaults)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nestedDir := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nestedDir, 0700))
	write(t, filepath.Join(root, "aags.json5"), `{ listen: ":1234" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nestedDir))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, path, err := ReadRecursively[config]("aags.json5")
	require.NoError(t, err)
	require.Equal(t, ":1234", cfg.Listen)
	require.Equal(t, "aags.json5", filepath.Base(path))
}
