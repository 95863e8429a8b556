// Package config loads beanctl settings from .beans.yaml, .env files and
// BEANS_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
)

// FileNames are searched, in order, in each directory walked by Find.
var FileNames = []string{".beans.yaml", ".beans.yml"}

// Config is the tool configuration.
type Config struct {
	Logging   logger.LoggingConfig  `yaml:"logging"`
	Metrics   metrics.MetricsConfig `yaml:"metrics"`
	Resources ResourcesConfig       `yaml:"resources"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// ResourcesConfig configures how definition documents are located.
type ResourcesConfig struct {
	Roots       []string      `yaml:"roots"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
}

// DefaultConfig returns the defaults applied before any source is read.
func DefaultConfig() *Config {
	m := metrics.DefaultConfig()
	m.Enabled = false
	return &Config{
		Logging: logger.LoggingConfig{Level: "info", Format: "console"},
		Metrics: m,
		Resources: ResourcesConfig{
			Roots:       []string{"."},
			HTTPTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration. An explicit path must exist; without one
// the working directory and its parents are searched for a config file,
// and finding none is not an error. envFiles default to ".env".
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		dir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = Find(dir)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find walks from dir towards the filesystem root and returns the first
// config file found, or "".
func Find(dir string) string {
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// loadEnvFiles loads existing env files without overriding variables
// already set in the process environment.
func loadEnvFiles(files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := lookup("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BEANS_METRICS_ENABLED: %w", err)
		}
		c.Metrics.Enabled = b
	}
	if v, ok := lookup("RESOURCE_ROOTS"); ok {
		c.Resources.Roots = filepath.SplitList(v)
	}
	if v, ok := lookup("HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BEANS_HTTP_TIMEOUT: %w", err)
		}
		c.Resources.HTTPTimeout = d
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		c.Resources.RedisAddr = v
	}
	if v, ok := lookup("REDIS_PREFIX"); ok {
		c.Resources.RedisPrefix = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv("BEANS_" + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
