package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/ldc/internal/sink"
)

const (
	envConfig      = "LDC_CONFIG"
	envModelsDir   = "LDC_MODELS_DIR"
	envOutDir      = "LDC_OUT_DIR"
	envS3Endpoint  = "LDC_S3_ENDPOINT"
	envS3Region    = "LDC_S3_REGION"
	envS3AccessKey = "LDC_S3_ACCESS_KEY"
	envS3SecretKey = "LDC_S3_SECRET_KEY"
	envS3UseSSL    = "LDC_S3_USE_SSL"
)

// Config represents the ldc configuration file (~/.config/ldc/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Compile defaults
	Style       string `yaml:"style"`
	HeaderName  string `yaml:"header_name"`
	ModelFormat string `yaml:"model_format"`
	OutputDir   string `yaml:"output_dir"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ModelsDir     string `yaml:"models_dir"`
	ServerAddress string `yaml:"server_address"`
	CacheSize     *int   `yaml:"cache_size"`

	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    *bool  `yaml:"use_ssl"`
}

// fileConfig is what the root Before hook loaded; commands read it for the
// settings that have no root-level flag.
var fileConfig Config

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ldc", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config; a
// malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig applies config file defaults to the flag variables whose
// flags were not explicitly set.
func applyConfig(c *cli.Command, cfg Config) {
	fileConfig = cfg
	if cfg.Style != "" && !c.IsSet("style") {
		styleName = cfg.Style
	}
	if cfg.HeaderName != "" && !c.IsSet("header-name") {
		headerName = cfg.HeaderName
	}
	if cfg.ModelFormat != "" && !c.IsSet("format") {
		modelFormat = cfg.ModelFormat
	}
	if cfg.OutputDir != "" && !c.IsSet("output-dir") {
		outputDir = cfg.OutputDir
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, cacheSize *int64) {
	if cfg.ModelsDir != "" && !c.IsSet("models-path") {
		modelsPath = cfg.ModelsDir
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.CacheSize != nil && !c.IsSet("cache-size") {
		*cacheSize = int64(*cfg.CacheSize)
	}
}

// s3Config merges the config file with LDC_S3_* variables; the environment
// wins.
func s3Config(cfg Config) (sink.S3Config, error) {
	out := sink.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    true,
	}
	if cfg.S3.UseSSL != nil {
		out.UseSSL = *cfg.S3.UseSSL
	}
	for env, dst := range map[string]*string{
		envS3Endpoint:  &out.Endpoint,
		envS3Region:    &out.Region,
		envS3AccessKey: &out.AccessKey,
		envS3SecretKey: &out.SecretKey,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	if v := strings.TrimSpace(os.Getenv(envS3UseSSL)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return sink.S3Config{}, fmt.Errorf("%s: %w", envS3UseSSL, err)
		}
		out.UseSSL = b
	}
	return out, nil
}
