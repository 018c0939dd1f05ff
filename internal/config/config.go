// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads holoauth configuration from defaults, a YAML file,
// the environment, and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nested keys: HOLOAUTH_TOKENS__ACCESS_TTL sets
// tokens.access_ttl.
const EnvPrefix = "HOLOAUTH_"

// DatabaseURLEnv is consulted when database.url is not otherwise set.
const DatabaseURLEnv = "DATABASE_URL"

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Mail drivers.
const (
	MailNoop  = "noop"
	MailKafka = "kafka"
)

// Config is the complete service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Tokens   TokensConfig   `koanf:"tokens"`
	Mail     MailConfig     `koanf:"mail"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the metrics and health listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig selects and configures the user and session store.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	ConnectDelay    time.Duration `koanf:"connect_delay"`
}

// TokensConfig holds token lifetimes and the RSA key pairs. Keys are PEM,
// raw or base64-encoded.
type TokensConfig struct {
	AccessTTL         time.Duration `koanf:"access_ttl"`
	RefreshTTL        time.Duration `koanf:"refresh_ttl"`
	AccessPrivateKey  string        `koanf:"access_private_key"`
	AccessPublicKey   string        `koanf:"access_public_key"`
	RefreshPrivateKey string        `koanf:"refresh_private_key"`
	RefreshPublicKey  string        `koanf:"refresh_public_key"`
}

// MailConfig selects the email collaborator.
type MailConfig struct {
	Driver string      `koanf:"driver"`
	From   string      `koanf:"from"`
	Kafka  KafkaConfig `koanf:"kafka"`
}

// KafkaConfig configures the Kafka mail publisher.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// defaults are loaded before any other source.
var defaults = map[string]any{
	"http.addr":                 ":8080",
	"http.shutdown_timeout":     "10s",
	"metrics.addr":              "127.0.0.1:9100",
	"log.format":                "json",
	"log.level":                 "info",
	"database.driver":           DriverPostgres,
	"database.connect_attempts": 5,
	"database.connect_delay":    "500ms",
	"tokens.access_ttl":         "15m",
	"tokens.refresh_ttl":        "168h",
	"mail.driver":               MailNoop,
	"mail.from":                 "no-reply@holoauth.local",
	"mail.kafka.topic":          "holoauth.mail",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"metrics-addr":    "metrics.addr",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"database-driver": "database.driver",
	"database-url":    "database.url",
	"mail-driver":     "mail.driver",
}

// LoadOptions names the sources Load reads.
type LoadOptions struct {
	// File is an optional YAML file.
	File string
	// EnvFile is loaded into the process environment first. A missing file
	// is ignored. Defaults to ".env".
	EnvFile string
	// Flags contributes the flags registered by RegisterFlags that were set
	// on the command line.
	Flags *pflag.FlagSet
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("http-addr", "", "API listen address")
	flags.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("database-driver", "", "user and session store (postgres or memory)")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("mail-driver", "", "email collaborator (noop or kafka)")
}

// Load builds a Config. It does not validate it.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("source", "dotenv").
			With("file", envFile).
			Wrap(err)
	}

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").With("key", key).Wrap(err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("file", opts.File).
				Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}
	if k.String("database.url") == "" {
		if url := os.Getenv(DatabaseURLEnv); url != "" {
			if err := k.Set("database.url", url); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
			}
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	cfg.Mail.Kafka.Brokers = splitList(cfg.Mail.Kafka.Brokers)
	return &cfg, nil
}

// splitList expands comma-separated entries, as set from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// envKey maps HOLOAUTH_MAIL__KAFKA__BROKERS to mail.kafka.brokers.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
