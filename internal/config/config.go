// Package config loads the command line tool's YAML configuration.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the file leaves the binaries unset.
const (
	VerifytaEnv = "VERIFYTA_PATH"
	TracerEnv   = "UPPAAL_TRACER_PATH"
)

type Config struct {
	VerifytaPath  string `yaml:"verifyta_path"`
	TracerPath    string `yaml:"tracer_path"`
	WorkDir       string `yaml:"work_dir"`
	KeepFiles     bool   `yaml:"keep_files"`
	VerifyOptions string `yaml:"verify_options"`
	LogLevel      string `yaml:"log_level"`
	Parallelism   int    `yaml:"parallelism"`
	MetricsFile   string `yaml:"metrics_file"`
}

// Load reads the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.VerifytaPath == "" {
		c.VerifytaPath = os.Getenv(VerifytaEnv)
	}
	if c.TracerPath == "" {
		c.TracerPath = os.Getenv(TracerEnv)
	}
	if c.VerifyOptions == "" {
		c.VerifyOptions = "-t 1"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}
}

// Validate checks the values after defaults and command line overrides
// were applied.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	for _, opt := range c.VerifyArgs() {
		if opt == "-f" || opt == "-X" {
			return fmt.Errorf("verify_options: %s is managed by the tool", opt)
		}
	}
	return nil
}

// Level is the parsed log level.
func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

// VerifyArgs splits VerifyOptions into verifyta arguments.
func (c *Config) VerifyArgs() []string {
	return strings.Fields(c.VerifyOptions)
}
