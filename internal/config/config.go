// internal/config/config.go
//
// This package handles configuration and the .dcs directory structure.
// A project opts in by running `dcs init`, which creates .dcs/ in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DCSDir is the name of the directory we create in each project
	DCSDir = ".dcs"

	// MasterEnv overrides the configured master document path.
	MasterEnv = "DCS_MASTER"

	defaultMaster          = "README-Master.md"
	defaultRegistrySection = "Document Registry"
	defaultDocumentGlob    = "**/*.md"
	defaultLogLevel        = "warn"
)

const defaultProjectConfigYAML = `# dcs project configuration
version: 1

# Master document holding the Document Registry table, relative to the project root.
master: README-Master.md

# Heading that introduces the registry table.
registry_section: Document Registry

# Strict mode also compares front-matter depends_on/affects with the registry
# and validates every block against the metadata schema.
strict: false

# Globs (doublestar syntax) of documents that should be registered. Matches
# with no registry row are reported as warnings by "dcs check".
documents:
  - "**/*.md"
exclude:
  - ".dcs/**"
  - "node_modules/**"

logs:
  level: warn
  # file: .dcs/logs/dcs.log
`

// LogsConfig controls the diagnostic log.
type LogsConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// ProjectConfig models .dcs/config.yaml.
type ProjectConfig struct {
	Version         int        `yaml:"version"`
	Master          string     `yaml:"master"`
	RegistrySection string     `yaml:"registry_section"`
	Strict          bool       `yaml:"strict"`
	Documents       []string   `yaml:"documents,omitempty"`
	Exclude         []string   `yaml:"exclude,omitempty"`
	Logs            LogsConfig `yaml:"logs"`
}

// Config holds the runtime configuration for one invocation.
type Config struct {
	// ProjectDir is the root every registry path is resolved against
	ProjectDir string

	// DCSProjectDir is ProjectDir/.dcs
	DCSProjectDir string

	Project ProjectConfig
}

// InitDCSDir creates the .dcs directory structure in the given project
// directory and writes a default config.yaml unless one exists.
//
// Structure created:
// .dcs/
// ├── config.yaml
// └── logs/         <- dcs.log diagnostics and the updates.log journal
func InitDCSDir(projectDir string) error {
	dcsDir := filepath.Join(projectDir, DCSDir)
	if err := os.MkdirAll(filepath.Join(dcsDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(dcsDir, "config.yaml"))
}

// NewConfig creates a new Config for projectDir. A missing config file means
// defaults; a broken one is an error.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir:    abs,
		DCSProjectDir: filepath.Join(abs, DCSDir),
		Project:       defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if master := strings.TrimSpace(os.Getenv(MasterEnv)); master != "" {
		cfg.Project.Master = master
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DCSProjectDir, "logs")
}

// LogFile returns the diagnostic log path, or "" when file logging is off.
func (c *Config) LogFile() string {
	file := strings.TrimSpace(c.Project.Logs.File)
	if file == "" {
		return ""
	}
	return resolvePath(c.ProjectDir, file)
}

// UpdatesLogPath returns the journal of metadata updates.
func (c *Config) UpdatesLogPath() string {
	return filepath.Join(c.LogsDir(), "updates.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DCSProjectDir, "config.yaml")
}

// MasterPath returns the absolute path of the master document.
func (c *Config) MasterPath() string {
	return resolvePath(c.ProjectDir, c.Project.Master)
}

// SetMaster overrides the master document for this run.
func (c *Config) SetMaster(path string) {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		c.Project.Master = trimmed
	}
}

// RegistrySection returns the heading that introduces the registry table.
func (c *Config) RegistrySection() string {
	return c.Project.RegistrySection
}

// Strict reports whether strict checks are enabled.
func (c *Config) Strict() bool {
	return c.Project.Strict
}

// DocumentPatterns returns the globs of documents expected in the registry.
func (c *Config) DocumentPatterns() []string {
	return append([]string(nil), c.Project.Documents...)
}

// ExcludePatterns returns the globs skipped by the unregistered scan.
func (c *Config) ExcludePatterns() []string {
	return append([]string(nil), c.Project.Exclude...)
}

// LogLevel returns the configured console log level.
func (c *Config) LogLevel() string {
	return c.Project.Logs.Level
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

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Master) == "" {
		pc.Master = defaultMaster
	}
	if strings.TrimSpace(pc.RegistrySection) == "" {
		pc.RegistrySection = defaultRegistrySection
	}
	if len(pc.Documents) == 0 {
		pc.Documents = []string{defaultDocumentGlob}
	}
	if strings.TrimSpace(pc.Logs.Level) == "" {
		pc.Logs.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Master = filepath.ToSlash(strings.TrimSpace(pc.Master))
	pc.RegistrySection = strings.TrimSpace(pc.RegistrySection)
	pc.Documents = cleanPatterns(pc.Documents)
	pc.Exclude = cleanPatterns(pc.Exclude)
	pc.Logs.Level = strings.ToLower(strings.TrimSpace(pc.Logs.Level))
	pc.Logs.File = strings.TrimSpace(pc.Logs.File)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Master == "" {
		return fmt.Errorf("master is required")
	}
	switch pc.Logs.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logs.level must be one of debug, info, warn, error")
	}
	for i, pattern := range pc.Documents {
		if strings.HasPrefix(pattern, "/") {
			return fmt.Errorf("documents[%d]: pattern must be relative to the project root", i)
		}
	}
	return nil
}

func cleanPatterns(values []string) []string {
	var out []string
	for _, v := range values {
		v = filepath.ToSlash(strings.TrimSpace(v))
		if v == "" || contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, filepath.FromSlash(trimmed)))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
