// Package config loads the application settings. Values come from built-in
// defaults, then an optional TOML file, then a .env file and finally the
// process environment, later sources winning.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	BackendSanity = "sanity"
	BackendBadger = "badger"

	EnvProduction = "production"
)

var ErrConfParamMissing = errors.New("configuration parameter missing")

type Config struct {
	Env      string `toml:"env"`
	HTTPAddr string `toml:"httpAddr"`
	LogLevel string `toml:"logLevel"`

	StoreBackend string `toml:"storeBackend"`
	BadgerPath   string `toml:"badgerPath"`

	ProjectID string `toml:"projectId"`
	Dataset   string `toml:"dataset"`
	Token     string `toml:"token"`
	UseCDN    bool   `toml:"useCdn"`

	RevalidateSeconds int `toml:"revalidateSeconds"`

	KafkaAddr  string `toml:"kafkaAddr"`
	KafkaTopic string `toml:"kafkaTopic"`
}

func Default() *Config {
	return &Config{
		Env:               "development",
		HTTPAddr:          ":3000",
		LogLevel:          "info",
		StoreBackend:      BackendSanity,
		BadgerPath:        "data/badger",
		RevalidateSeconds: 60,
		KafkaTopic:        "comments",
	}
}

// Load builds the configuration. Either path may be empty; a missing .env
// file is not an error, a missing TOML file is.
func Load(configPath, envPath string) (*Config, error) {
	cfg := Default()

	cdnFromFile := false
	if configPath != "" {
		md, err := toml.DecodeFile(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cdnFromFile = md.IsDefined("useCdn")
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			log.Warnf("[config] unknown keys in %s: %v", configPath, undecoded)
		}
	}

	env := environment{}
	if envPath != "" {
		fileVars, err := godotenv.Read(envPath)
		switch {
		case err == nil:
			env.file = fileVars
		case errors.Is(err, fs.ErrNotExist):
			log.Debugf("[config] no env file at %s", envPath)
		default:
			return nil, fmt.Errorf("failed to read env file %s: %w", envPath, err)
		}
	}

	if err := cfg.applyEnv(env, cdnFromFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// environment resolves variables from the process first and the .env file second.
type environment struct {
	file map[string]string
}

func (e environment) get(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	for _, key := range keys {
		if v := e.file[key]; v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) applyEnv(env environment, cdnFromFile bool) error {
	setString := func(dst *string, keys ...string) {
		if v := env.get(keys...); v != "" {
			*dst = v
		}
	}

	setString(&c.Env, "APP_ENV")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.StoreBackend, "STORE_BACKEND")
	setString(&c.BadgerPath, "BADGER_PATH")
	setString(&c.ProjectID, "SANITY_PROJECT_ID", "NEXT_PUBLIC_SANITY_PROJECT_ID")
	setString(&c.Dataset, "SANITY_DATASET", "NEXT_PUBLIC_SANITY_DATASET")
	setString(&c.Token, "SANITY_API_TOKEN")
	setString(&c.KafkaAddr, "KAFKA_ADDR")
	setString(&c.KafkaTopic, "KAFKA_TOPIC")

	// Reads go through the CDN in production unless stated otherwise
	if !cdnFromFile {
		c.UseCDN = c.Env == EnvProduction
	}
	if v := env.get("SANITY_USE_CDN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SANITY_USE_CDN %q: %w", v, err)
		}
		c.UseCDN = b
	}

	if v := env.get("REVALIDATE_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REVALIDATE_SECONDS %q: %w", v, err)
		}
		c.RevalidateSeconds = n
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSanity:
		if c.ProjectID == "" {
			return fmt.Errorf("%w: SANITY_PROJECT_ID", ErrConfParamMissing)
		}
		if c.Dataset == "" {
			return fmt.Errorf("%w: SANITY_DATASET", ErrConfParamMissing)
		}
		if c.Token == "" {
			log.Warn("[config] SANITY_API_TOKEN is not set, comment submissions will be rejected by the store")
		}
	case BackendBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("%w: BADGER_PATH", ErrConfParamMissing)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.RevalidateSeconds <= 0 {
		return fmt.Errorf("revalidate interval must be positive, got %d", c.RevalidateSeconds)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !strings.Contains(c.HTTPAddr, ":") {
		return fmt.Errorf("http address %q has no port, e.g. ':3000'", c.HTTPAddr)
	}
	return nil
}

// Revalidate is the page revalidation interval.
func (c *Config) Revalidate() time.Duration {
	return time.Duration(c.RevalidateSeconds) * time.Second
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (c *Config) KafkaEnabled() bool {
	return c.KafkaAddr != "" && c.KafkaTopic != ""
}

func (c *Config) String() string {
	token := ""
	if c.Token != "" {
		token = "****"
	}
	return fmt.Sprintf("env=%s addr=%s log=%s backend=%s badger=%s project=%s dataset=%s token=%s cdn=%t revalidate=%ds kafka=%s/%s",
		c.Env, c.HTTPAddr, c.LogLevel, c.StoreBackend, c.BadgerPath, c.ProjectID, c.Dataset, token, c.UseCDN,
		c.RevalidateSeconds, c.KafkaAddr, c.KafkaTopic)
}
