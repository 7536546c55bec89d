// Package config loads storefront settings from an optional YAML file, a
// .env file and FETCCH_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/poller"
)

// Environment variable names.
const (
	EnvAPIURL          = "FETCCH_API_URL"
	EnvSecretKey       = "FETCCH_SECRET_KEY"
	EnvTimeout         = "FETCCH_TIMEOUT"
	EnvReceiver        = "FETCCH_RECEIVER"
	EnvLabel           = "FETCCH_LABEL"
	EnvPrice           = "FETCCH_PRICE"
	EnvChains          = "FETCCH_CHAINS"
	EnvPollInterval    = "FETCCH_POLL_INTERVAL"
	EnvPollMaxAttempts = "FETCCH_POLL_MAX_ATTEMPTS"
	EnvPollTimeout     = "FETCCH_POLL_TIMEOUT"
	EnvAddr            = "FETCCH_ADDR"
	EnvLogLevel        = "FETCCH_LOG_LEVEL"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		// SecretKey is only read from the environment.
		SecretKey string        `yaml:"-"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Store struct {
		Receiver string `yaml:"receiver"`
		Label    string `yaml:"label"`
		Price    string `yaml:"price"`
		Chains   []int  `yaml:"chains"`
	} `yaml:"store"`
	Poll struct {
		Interval    time.Duration `yaml:"interval"`
		MaxAttempts int           `yaml:"max_attempts"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"poll"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	cfg := Config{}
	cfg.API.BaseURL = "https://sandbox-api.fetcch.xyz"
	cfg.API.Timeout = 30 * time.Second
	cfg.Store.Receiver = "wag@fetcch"
	cfg.Store.Label = "Alpha Black shirt"
	cfg.Store.Price = "0.00000196"
	cfg.Poll.Interval = poller.DefaultConfig.Interval
	cfg.Server.Addr = ":8080"
	cfg.Log.Level = "info"
	return cfg
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then with the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvAPIURL, &c.API.BaseURL)
	str(EnvSecretKey, &c.API.SecretKey)
	str(EnvReceiver, &c.Store.Receiver)
	str(EnvLabel, &c.Store.Label)
	str(EnvPrice, &c.Store.Price)
	str(EnvAddr, &c.Server.Addr)
	str(EnvLogLevel, &c.Log.Level)

	if err := dur(EnvTimeout, &c.API.Timeout); err != nil {
		return err
	}
	if err := dur(EnvPollInterval, &c.Poll.Interval); err != nil {
		return err
	}
	if err := dur(EnvPollTimeout, &c.Poll.Timeout); err != nil {
		return err
	}

	if v, ok := lookup(EnvPollMaxAttempts); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPollMaxAttempts, err)
		}
		c.Poll.MaxAttempts = n
	}

	if v, ok := lookup(EnvChains); ok && v != "" {
		ids, err := cast.ToIntSliceE(strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvChains, err)
		}
		c.Store.Chains = ids
	}

	return nil
}

// Validate reports configuration that cannot serve payment requests.
func (c Config) Validate() error {
	if c.API.SecretKey == "" {
		return fmt.Errorf("%w: set %s", fetcch.ErrMissingSecret, EnvSecretKey)
	}
	if c.API.Timeout < 0 || c.Poll.Interval < 0 || c.Poll.Timeout < 0 || c.Poll.MaxAttempts < 0 {
		return errors.New("config: durations and attempts must not be negative")
	}
	if _, err := c.Price(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Chains(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Price returns the configured reference price.
func (c Config) Price() (decimal.Decimal, error) {
	return fetcch.ParsePrice(c.Store.Price)
}

// Chains returns the configured chains in order, or the full registry when
// none are listed.
func (c Config) Chains() ([]fetcch.ChainDescriptor, error) {
	if len(c.Store.Chains) == 0 {
		return fetcch.Chains(), nil
	}
	out := make([]fetcch.ChainDescriptor, 0, len(c.Store.Chains))
	for _, id := range c.Store.Chains {
		chain, err := fetcch.ChainByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, chain)
	}
	return out, nil
}

// PollConfig returns the settlement polling configuration.
func (c Config) PollConfig() poller.Config {
	return poller.Config{
		Interval:    c.Poll.Interval,
		MaxAttempts: c.Poll.MaxAttempts,
		Timeout:     c.Poll.Timeout,
	}
}
