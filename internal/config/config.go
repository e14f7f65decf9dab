package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for cs.
type Config struct {
	BaseDir string      `toml:"base_dir"`
	LogDir  string      `toml:"log_dir"`
	User    UserConfig  `toml:"user"`
	Git     GitConfig   `toml:"git"`
	Cache   CacheConfig `toml:"cache"`
}

// UserConfig is the author identity bound to every commit. Mutating
// operations fail until both fields are set.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// GitConfig holds version-control settings.
type GitConfig struct {
	Binary string `toml:"binary"` // git executable, defaults to "git"
	LFS    bool   `toml:"lfs"`    // track binary payloads with git-lfs
}

// CacheConfig controls the codec's in-memory file cache. The cache is an
// optimization over the working tree and assumes this process is the sole
// writer; disable it when another process edits the same projects.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// ProjectsDir returns the directory all project repositories live under.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.BaseDir, "projects")
}

// NewConfig creates a new Config with the provided base directory and
// defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Git:     GitConfig{Binary: "git", LFS: true},
		Cache:   CacheConfig{Enabled: true},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the
// provided Config. Fails when one already exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
