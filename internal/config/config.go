package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/gridstore/gridstore/pkg/naming"
)

// Configuration represents the complete dataset configuration.
type Configuration struct {
	Global     GlobalConfig     `yaml:"global"`
	Naming     NamingConfig     `yaml:"naming"`
	Cells      CellConfig       `yaml:"cells"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// GlobalConfig represents settings shared across components.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	// Mode is the default open mode for datasets: r, w, or a.
	Mode string `yaml:"mode"`
}

// NamingConfig describes how reference timestamps map to file paths. It is
// the serialized form of a naming.Template.
type NamingConfig struct {
	Root string `yaml:"root"`
	// Subpaths are time layouts, one folder level each, e.g. ["2006", "01"].
	Subpaths []string `yaml:"subpaths"`
	// Filename contains one {datetime} placeholder.
	Filename string `yaml:"filename"`
	// TimeFormat is the Go reference layout substituted for the placeholder.
	TimeFormat string `yaml:"time_format"`
	// Placeholder overrides the default "datetime" token.
	Placeholder string `yaml:"placeholder"`
	// Step is the temporal resolution of the dataset slots.
	Step time.Duration `yaml:"step"`
	// Exact marks filename templates matching names exactly; otherwise the
	// rendered name is treated as a glob pattern.
	Exact bool `yaml:"exact"`
}

// CellConfig describes cell-partitioned time series storage.
type CellConfig struct {
	// Path is the directory holding the cell files.
	Path string `yaml:"path"`
	// NameFormat renders a cell id into a file name, e.g. "%04d".
	NameFormat string `yaml:"name_format"`
}

// MonitoringConfig represents metrics and logging settings.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig represents metrics settings.
type MetricsConfig struct {
	Enabled   bool              `yaml:"enabled"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel: "INFO",
			Mode:     "r",
		},
		Naming: NamingConfig{
			Subpaths:   []string{"2006"},
			Filename:   "dataset_{datetime}.dat",
			TimeFormat: "2006-01-02",
			Step:       24 * time.Hour,
			Exact:      true,
		},
		Cells: CellConfig{
			NameFormat: "%04d",
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{
				Enabled:   true,
				Namespace: "gridstore",
			},
		},
	}
}

// Template converts the naming section into a runtime template.
func (n NamingConfig) Template() (*naming.Template, error) {
	tmpl := &naming.Template{
		Root:        n.Root,
		Subpaths:    n.Subpaths,
		Filename:    n.Filename,
		TimeFormat:  n.TimeFormat,
		Placeholder: n.Placeholder,
		Step:        n.Step,
		Exact:       n.Exact,
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv overlays configuration from GRIDSTORE_* environment
// variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("GRIDSTORE_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("GRIDSTORE_LOG_FILE"); val != "" {
		c.Global.LogFile = val
	}
	if val := os.Getenv("GRIDSTORE_MODE"); val != "" {
		c.Global.Mode = val
	}

	if val := os.Getenv("GRIDSTORE_ROOT"); val != "" {
		c.Naming.Root = val
	}
	if val := os.Getenv("GRIDSTORE_SUBPATHS"); val != "" {
		c.Naming.Subpaths = strings.Split(val, ",")
	}
	if val := os.Getenv("GRIDSTORE_FILENAME"); val != "" {
		c.Naming.Filename = val
	}
	if val := os.Getenv("GRIDSTORE_TIME_FORMAT"); val != "" {
		c.Naming.TimeFormat = val
	}
	if val := os.Getenv("GRIDSTORE_STEP"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Naming.Step = d
		}
	}
	if val := os.Getenv("GRIDSTORE_EXACT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Naming.Exact = b
		}
	}

	if val := os.Getenv("GRIDSTORE_CELL_PATH"); val != "" {
		c.Cells.Path = val
	}
	if val := os.Getenv("GRIDSTORE_CELL_NAME_FORMAT"); val != "" {
		c.Cells.NameFormat = val
	}

	if val := os.Getenv("GRIDSTORE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Monitoring.Metrics.Enabled = b
		}
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Configuration) Validate() error {
	switch c.Global.Mode {
	case "r", "w", "a":
	default:
		return fmt.Errorf("invalid mode: %q (must be r, w, or a)", c.Global.Mode)
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if c.Global.LogLevel == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if _, err := c.Naming.Template(); err != nil {
		return fmt.Errorf("invalid naming section: %w", err)
	}

	if c.Cells.Path != "" && !strings.Contains(c.Cells.NameFormat, "%") {
		return fmt.Errorf("cell name_format %q has no verb", c.Cells.NameFormat)
	}

	return nil
}
