package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the working directory.
const FileName = "docindex.yaml"

// Serve configures the HTTP search service.
type Serve struct {
	Addr string `yaml:"addr,omitempty"`
}

// Config is the in-memory representation of docindex.yaml.
type Config struct {
	Sources        []string `yaml:"sources"`
	Excludes       []string `yaml:"excludes,omitempty"`
	Manifests      []string `yaml:"manifests,omitempty"`
	OutputDir      string   `yaml:"output_dir"`
	URLPrefix      string   `yaml:"url_prefix"`
	ShortOwners    bool     `yaml:"short_owners,omitempty"`
	IncludePrivate bool     `yaml:"include_private,omitempty"`
	Concepts       string   `yaml:"concepts,omitempty"`
	LogLevel       string   `yaml:"log_level,omitempty"`
	Serve          Serve    `yaml:"serve,omitempty"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// Environment keys that override the file.
const (
	EnvOutputDir = "DOCINDEX_OUTPUT_DIR"
	EnvURLPrefix = "DOCINDEX_URL_PREFIX"
	EnvLogLevel  = "DOCINDEX_LOG_LEVEL"
	EnvServeAddr = "DOCINDEX_SERVE_ADDR"
)

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration written by docindex init.
func DefaultConfig() *Config {
	return &Config{
		Sources: []string{"include"},
		Excludes: []string{
			".git/",
			"build/",
			"third_party/",
			"*.tmp",
			"*.bak",
			"*~",
		},
		OutputDir: filepath.Join("doc", "html", "search"),
		URLPrefix: "../",
		LogLevel:  "info",
		Serve:     Serve{Addr: "127.0.0.1:8088"},
	}
}

// Load reads and parses the config at path, then applies environment
// overrides from the process and from the .env next to it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.Dir = abs
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig
// rooted at the file's directory. found reports whether the file existed.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	cfg = DefaultConfig()
	if cfg.Dir, err = filepath.Abs(filepath.Dir(path)); err != nil {
		return nil, false, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, false, err
	}
	return cfg, false, cfg.Validate()
}

// Save marshals cfg and writes it to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel; empty means info.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Path resolves p against the config directory, expanding ~.
func (c *Config) Path(p string) string {
	if exp, err := ExpandPath(p); err == nil {
		p = exp
	}
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// SourcePaths returns Sources resolved against the config directory.
func (c *Config) SourcePaths() []string {
	out := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		out = append(out, c.Path(s))
	}
	return out
}

func (c *Config) applyEnv() error {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{EnvOutputDir, &c.OutputDir},
		{EnvURLPrefix, &c.URLPrefix},
		{EnvLogLevel, &c.LogLevel},
		{EnvServeAddr, &c.Serve.Addr},
	} {
		v, err := GetConfigValue(c.Dir, o.key)
		if err != nil {
			return err
		}
		if v != "" {
			*o.dst = v
		}
	}
	return nil
}
