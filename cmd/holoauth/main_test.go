// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "keys", "sessions"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"config", "http-addr", "metrics-addr", "log-format", "log-level", "database-driver", "database-url", "mail-driver"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestLoadConfig_UsesXDGConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("HOLOAUTH_LOG__FORMAT", "")
	require.NoError(t, os.Unsetenv("HOLOAUTH_LOG__FORMAT"))

	dir := filepath.Join(base, "holoauth")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  format: text\n"), 0o600))

	cmd := NewRootCmd()
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Log.Format)

	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("log:\n  format: json\n"), 0o600))
	require.NoError(t, cmd.ParseFlags([]string{"--config", explicit}))

	cfg, err = loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}
