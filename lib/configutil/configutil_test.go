package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string   `json:"base_url"`
	Timeout  int      `json:"timeout"`
	Keywords []string `json:"keywords"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		base_url: "https://example.com/",
		timeout: 30,
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ timeout: 5 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/", cfg.BaseUrl)
	require.Equal(t, 5, cfg.Timeout)

	_, err = ReadConfig[testConfig](filepath.Join(dir, "missing.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigWithDefaults(t *testing.T) {
	dir := t.TempDir()
	defaults := testConfig{
		BaseUrl:  "https://default.example/",
		Timeout:  30,
		Keywords: []string{"invalid"},
	}

	cfg, err := ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	writeFile(t, filepath.Join(dir, "config.json5"), `{ keywords: ["wrong"] }`)
	cfg, err = ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "https://default.example/", cfg.BaseUrl)
	require.Equal(t, 30, cfg.Timeout)
	require.Equal(t, []string{"wrong"}, cfg.Keywords)
}
