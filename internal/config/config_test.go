package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultListingURL, cfg.ListingURL)
	assert.Equal(t, DefaultLayoutVersion, cfg.LayoutVersion)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join(cfg.DataDir, DefaultDatasetName+".xlsx"), cfg.DatasetPath())

	layout := cfg.Layout()
	assert.Equal(t, 3, layout.Page)
	assert.Len(t, layout.Regions, 5)
	assert.True(t, layout.Header)
	assert.Equal(t, "NÚMERO\rDE CASOS", layout.CountColumn)

	positional := cfg.Layouts["v1-positional"]
	assert.False(t, positional.Header)
	assert.Equal(t, layout.Regions, positional.Regions)
}

func TestDefaultLayoutsAreIndependentCopies(t *testing.T) {
	a := DefaultLayouts()
	a["v1"].Regions[0].Top = 0

	b := DefaultLayouts()
	assert.NotEqual(t, 0.0, b["v1"].Regions[0].Top)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
listing_url: https://example.org/reports
reports_dir: `+filepath.Join(dir, "reports")+`
data_dir: `+dir+`
dataset_name: concelhos
http_timeout: 5s
layout_version: v2
layouts:
  v2:
    page: 4
    header: false
    regions:
      - {top: 10, left: 10, bottom: 100, right: 50}
      - {top: 10, left: 60, bottom: 100, right: 110}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/reports", cfg.ListingURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join(dir, "concelhos.xlsx"), cfg.DatasetPath())
	assert.Equal(t, 4, cfg.Layout().Page)
	assert.Len(t, cfg.Layout().Regions, 2)

	// Built-in layouts survive alongside the file's.
	assert.Contains(t, cfg.Layouts, "v1")
	assert.Contains(t, cfg.Layouts, "v2")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
listing_url: https://example.org/reports
data_dir: `+dir+`
`)
	t.Setenv("DGS_LISTING_URL", "https://mirror.example.org/list")
	t.Setenv("DGS_HTTP_TIMEOUT", "45s")
	t.Setenv("DGS_LAYOUT_VERSION", "v1-positional")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mirror.example.org/list", cfg.ListingURL)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.Layout().Header)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "reports_dir: ~/dgs/reports\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "dgs", "reports"), cfg.ReportsDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"relative listing url", func(c *Config) { c.ListingURL = "/relatorios" }, ErrNoListingURL},
		{"ftp listing url", func(c *Config) { c.ListingURL = "ftp://example.org" }, ErrNoListingURL},
		{"no reports dir", func(c *Config) { c.ReportsDir = "" }, ErrNoReportsDir},
		{"no dataset name", func(c *Config) { c.DatasetName = "" }, ErrNoDataset},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, ErrInvalidTimeout},
		{"unknown layout", func(c *Config) { c.LayoutVersion = "v9" }, ErrUnknownLayout},
		{"no regions", func(c *Config) {
			c.Layouts["empty"] = Layout{Page: 3}
			c.LayoutVersion = "empty"
		}, ErrInvalidLayout},
		{"inverted region", func(c *Config) {
			c.Layouts["bad"] = Layout{Page: 3, Regions: []Region{{Top: 100, Left: 0, Bottom: 50, Right: 10}}}
			c.LayoutVersion = "bad"
		}, ErrInvalidLayout},
		{"header without labels", func(c *Config) {
			c.Layouts["hdr"] = Layout{Page: 3, Header: true, Regions: []Region{{Top: 0, Left: 0, Bottom: 50, Right: 10}}}
			c.LayoutVersion = "hdr"
		}, ErrInvalidLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestRegionContains(t *testing.T) {
	r := Region{Top: 10, Left: 20, Bottom: 30, Right: 40}

	assert.True(t, r.Contains(20, 10))
	assert.True(t, r.Contains(40, 30))
	assert.True(t, r.Contains(25, 15))
	assert.False(t, r.Contains(19.9, 15))
	assert.False(t, r.Contains(25, 30.1))
}
