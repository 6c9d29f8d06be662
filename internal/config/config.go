package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is used for XDG directory names.
	AppName = "dgs-reports"

	// DefaultListingURL is the DGS page listing the daily situation reports.
	DefaultListingURL = "https://covid19.min-saude.pt/relatorio-de-situacao"

	// DefaultDatasetName is the workbook file name, without extension.
	DefaultDatasetName = "time_series_covid19_portugal_confirmados_concelhos"

	// DefaultUserAgent identifies the pipeline in HTTP requests.
	DefaultUserAgent = "dgs-reports/1.0 (github.com/pfrederiksen/dgs-reports)"

	// DefaultHTTPTimeout bounds each listing and report download.
	DefaultHTTPTimeout = 30 * time.Second

	// EnvPrefix is the prefix of environment overrides (DGS_LISTING_URL, ...).
	EnvPrefix = "DGS"

	// LocalConfigFile is looked up in the working directory when no XDG config exists.
	LocalConfigFile = "dgs-reports.yaml"
)

// Config holds every setting of a pipeline run.
type Config struct {
	// ListingURL is the page whose anchors link to the daily reports.
	ListingURL string `yaml:"listing_url" envconfig:"LISTING_URL"`

	// ReportsDir receives the downloaded PDF and the extracted CSV.
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`

	// DataDir and DatasetName locate the persisted workbook:
	// <DataDir>/<DatasetName>.xlsx
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	DatasetName string `yaml:"dataset_name" envconfig:"DATASET_NAME"`

	// DatasetSheet selects the worksheet; empty means the first visible sheet.
	DatasetSheet string `yaml:"dataset_sheet" envconfig:"DATASET_SHEET"`

	LayoutVersion string            `yaml:"layout_version" envconfig:"LAYOUT_VERSION"`
	Layouts       map[string]Layout `yaml:"layouts" ignored:"true"`

	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	UserAgent   string        `yaml:"user_agent" envconfig:"USER_AGENT"`

	// HistoryPath is the sqlite run journal. Empty disables the journal.
	HistoryPath string `yaml:"history_path" envconfig:"HISTORY_PATH"`

	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	base := filepath.Join(xdg.DataHome, AppName)
	return &Config{
		ListingURL:    DefaultListingURL,
		ReportsDir:    filepath.Join(base, "reports"),
		DataDir:       base,
		DatasetName:   DefaultDatasetName,
		LayoutVersion: DefaultLayoutVersion,
		Layouts:       DefaultLayouts(),
		HTTPTimeout:   DefaultHTTPTimeout,
		UserAgent:     DefaultUserAgent,
		HistoryPath:   filepath.Join(base, "history.db"),
		LogLevel:      "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (or the
// first one found by FindConfigFile when path is empty), a .env file in the
// working directory and DGS_* environment variables, in that order of precedence
// (later wins). The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading config from env: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the first existing config file among
// $XDG_CONFIG_HOME/dgs-reports/config.yaml (and the XDG search dirs) and
// ./dgs-reports.yaml, or "" when none exists.
func FindConfigFile() string {
	if p, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml")); err == nil {
		return p
	}
	if _, err := os.Stat(LocalConfigFile); err == nil {
		return LocalConfigFile
	}
	return ""
}

// loadFile overlays the YAML file onto c. Layouts from the file are added to
// (or replace) the built-in layouts by name.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return err
	}

	layouts := c.Layouts
	c.Layouts = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		c.Layouts = layouts
		return err
	}
	for name, l := range c.Layouts {
		layouts[name] = l
	}
	c.Layouts = layouts

	return nil
}

// expandPaths expands a leading ~/ in every path setting.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.ReportsDir, &c.DataDir, &c.HistoryPath} {
		if !strings.HasPrefix(*p, "~/") {
			continue
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		*p = filepath.Join(home, (*p)[2:])
	}
	return nil
}

// Validate checks the configuration for values that would make a run fail
// before it starts.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ListingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrNoListingURL
	}
	if c.ReportsDir == "" {
		return ErrNoReportsDir
	}
	if c.DataDir == "" || c.DatasetName == "" {
		return ErrNoDataset
	}
	if c.HTTPTimeout <= 0 {
		return ErrInvalidTimeout
	}
	layout, ok := c.Layouts[c.LayoutVersion]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, c.LayoutVersion)
	}
	return layout.validate()
}

// Layout returns the active page layout.
func (c *Config) Layout() Layout {
	return c.Layouts[c.LayoutVersion]
}

// DatasetPath returns the path of the persisted workbook.
func (c *Config) DatasetPath() string {
	return filepath.Join(c.DataDir, c.DatasetName+".xlsx")
}
