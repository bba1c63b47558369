// Package config loads huddle settings.
//
// Values are layered, later sources winning: built-in defaults, the YAML
// file, a .env file, HUDDLE_* environment variables, and finally command
// line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/utils"
)

// KeyringDatabase as the database value selects the connection string
// stored in the OS keyring.
const KeyringDatabase = "keyring"

const envPrefix = "HUDDLE_"

type Config struct {
	// Database is a SQLite file path, a postgres:// URL, or "keyring".
	Database string `yaml:"database"`
	Addr     string `yaml:"addr"`
	// Timezone decides which calendar day "today" is. IANA name or "Local".
	Timezone string `yaml:"timezone"`

	TokenSecret string `yaml:"token_secret"`
	TokenIssuer string `yaml:"token_issuer"`

	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
	AMQPURL       string `yaml:"amqp_url"`

	Debug       bool     `yaml:"debug"`
	DataDir     string   `yaml:"data_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:     constants.DefaultAddr,
		Timezone: "Local",
		DataDir:  filepath.Join(xdg.DataHome, constants.AppName),
	}
}

// Load builds the configuration from an optional YAML file and the process
// environment. A missing .env file is not an error; a missing YAML file that
// was asked for is.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.finalize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB":             &c.Database,
		"ADDR":           &c.Addr,
		"TIMEZONE":       &c.Timezone,
		"TOKEN_SECRET":   &c.TokenSecret,
		"TOKEN_ISSUER":   &c.TokenIssuer,
		"WEBHOOK_URL":    &c.WebhookURL,
		"WEBHOOK_SECRET": &c.WebhookSecret,
		"AMQP_URL":       &c.AMQPURL,
		"DATA_DIR":       &c.DataDir,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(envPrefix + "DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG %q: %w", envPrefix, v, err)
		}
		c.Debug = b
	}

	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	return nil
}

// finalize fills values derived from others.
func (c *Config) finalize() {
	if c.Database == "" {
		c.Database = filepath.Join(c.DataDir, constants.AppName+".db")
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr cannot be empty")
	}
	if c.WebhookURL != "" && c.AMQPURL != "" {
		return errors.New("configure at most one of webhook_url and amqp_url")
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// IsPostgres reports whether dsn addresses a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// ResolveDatabase returns the connection target, consulting get when the
// database is stored in the keyring.
func (c *Config) ResolveDatabase(get func() (string, error)) (string, error) {
	if c.Database != KeyringDatabase {
		return c.Database, nil
	}
	dsn, err := get()
	if err != nil {
		return "", fmt.Errorf("failed to read database connection from keyring: %w", err)
	}
	return dsn, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
