// internal/config/config.go
//
// This package handles configuration and the .careerpath directory structure.
// The client keeps no durable workflow state; the directory only holds the
// config file, logs, and exported reports.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/careerpath/internal/logging"
)

const (
	// AppDir is the name of the directory we create in the working directory
	AppDir = ".careerpath"

	// DefaultBaseURL is where the career guidance service listens in development.
	DefaultBaseURL = "http://localhost:8000"

	defaultDownloadDir = "downloads"
	defaultLogLevel    = "info"
)

const defaultProjectConfigYAML = `# careerpath configuration
version: 1

# Career guidance service. CAREERPATH_API_URL overrides base_url.
api:
  base_url: http://localhost:8000
  # Extra headers sent with every request.
  headers: {}

# Where exported PDF reports are written. Relative paths resolve against
# the directory careerpath was started from.
downloads:
  dir: downloads

logging:
  level: info
`

// APIConfig describes the remote service.
type APIConfig struct {
	BaseURL string            `yaml:"base_url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DownloadsConfig describes where exports land.
type DownloadsConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .careerpath/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	Downloads DownloadsConfig `yaml:"downloads"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Config holds the runtime configuration for careerpath.
type Config struct {
	// ProjectDir is the directory careerpath was started from
	ProjectDir string

	// AppProjectDir is ProjectDir/.careerpath
	AppProjectDir string

	Project ProjectConfig
}

// InitAppDir creates the .careerpath directory structure in the given directory.
//
// Structure created:
// .careerpath/
// ├── config.yaml
// └── logs/
func InitAppDir(projectDir string) error {
	appDir := filepath.Join(projectDir, AppDir)
	if err := os.MkdirAll(filepath.Join(appDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure app dir: %w", err)
	}
	return ensureProjectConfig(filepath.Join(appDir, "config.yaml"))
}

// NewConfig loads the project config and applies environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		AppProjectDir: filepath.Join(projectDir, AppDir),
		Project:       defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.normalize(projectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.AppProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.AppProjectDir, "config.yaml")
}

// BaseURL returns the configured service address.
func (c *Config) BaseURL() string {
	return c.Project.API.BaseURL
}

// Headers returns a copy of the static request headers.
func (c *Config) Headers() map[string]string {
	out := make(map[string]string, len(c.Project.API.Headers))
	for k, v := range c.Project.API.Headers {
		out[k] = v
	}
	return out
}

// DownloadDir returns the absolute directory for exported reports.
func (c *Config) DownloadDir() string {
	return c.Project.Downloads.Dir
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.Project.Logging.Level
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		API:       APIConfig{BaseURL: DefaultBaseURL, Headers: map[string]string{}},
		Downloads: DownloadsConfig{Dir: defaultDownloadDir},
		Logging:   LoggingConfig{Level: defaultLogLevel},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.API.BaseURL) == "" {
		pc.API.BaseURL = DefaultBaseURL
	}
	if pc.API.Headers == nil {
		pc.API.Headers = map[string]string{}
	}
	if strings.TrimSpace(pc.Downloads.Dir) == "" {
		pc.Downloads.Dir = defaultDownloadDir
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("CAREERPATH_API_URL")); value != "" {
		pc.API.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv("CAREERPATH_DOWNLOAD_DIR")); value != "" {
		pc.Downloads.Dir = value
	}
	if value := strings.TrimSpace(os.Getenv("CAREERPATH_LOG_LEVEL")); value != "" {
		pc.Logging.Level = value
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.Downloads.Dir = resolvePath(base, pc.Downloads.Dir)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	for key, value := range pc.API.Headers {
		trimmed := strings.TrimSpace(key)
		if trimmed != key {
			delete(pc.API.Headers, key)
		}
		if trimmed != "" {
			pc.API.Headers[trimmed] = strings.TrimSpace(value)
		}
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	u, err := url.Parse(pc.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", pc.API.BaseURL)
	}
	if _, err := logging.ParseLevel(pc.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
