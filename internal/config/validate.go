// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/logging"
)

// Validate checks the whole configuration as needed by the serve command.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return invalid("http.shutdown_timeout", "http.shutdown_timeout must be positive")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Tokens.Validate(); err != nil {
		return err
	}
	return c.Mail.Validate()
}

// Validate checks the log format and level.
func (l LogConfig) Validate() error {
	if l.Format != "json" && l.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", l.Format)
	}
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "log.level").Wrap(err)
	}
	return nil
}

// Validate checks the store selection. The postgres driver needs a URL.
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.URL == "" {
			return invalid("database.url", "database.url (or %s) is required for the postgres driver", DatabaseURLEnv)
		}
	case DriverMemory:
	default:
		return invalid("database.driver", "database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, d.Driver)
	}
	if d.ConnectAttempts < 1 {
		return invalid("database.connect_attempts", "database.connect_attempts must be at least 1")
	}
	if d.ConnectDelay <= 0 {
		return invalid("database.connect_delay", "database.connect_delay must be positive")
	}
	return nil
}

// Validate checks that lifetimes are positive and all four keys are set.
// Key material is parsed later, by the token package.
func (t TokensConfig) Validate() error {
	if t.AccessTTL <= 0 {
		return invalid("tokens.access_ttl", "tokens.access_ttl must be positive")
	}
	if t.RefreshTTL <= 0 {
		return invalid("tokens.refresh_ttl", "tokens.refresh_ttl must be positive")
	}
	keys := []struct {
		name  string
		value string
	}{
		{"tokens.access_private_key", t.AccessPrivateKey},
		{"tokens.access_public_key", t.AccessPublicKey},
		{"tokens.refresh_private_key", t.RefreshPrivateKey},
		{"tokens.refresh_public_key", t.RefreshPublicKey},
	}
	for _, k := range keys {
		if k.value == "" {
			return invalid(k.name, "%s is required (see 'holoauth keys generate')", k.name)
		}
	}
	return nil
}

// Validate checks the mail driver and its settings.
func (m MailConfig) Validate() error {
	switch m.Driver {
	case MailNoop:
		return nil
	case MailKafka:
		if len(m.Kafka.Brokers) == 0 {
			return invalid("mail.kafka.brokers", "mail.kafka.brokers is required for the kafka driver")
		}
		if m.Kafka.Topic == "" {
			return invalid("mail.kafka.topic", "mail.kafka.topic is required for the kafka driver")
		}
		if m.From == "" {
			return invalid("mail.from", "mail.from is required for the kafka driver")
		}
		return nil
	default:
		return invalid("mail.driver", "mail.driver must be %q or %q, got %q", MailNoop, MailKafka, m.Driver)
	}
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}
