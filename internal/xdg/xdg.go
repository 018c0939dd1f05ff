// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg resolves XDG Base Directory paths for holoauth.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName = "holoauth"

	// ConfigFileName is the file looked up in ConfigDir when no --config
	// flag is given.
	ConfigFileName = "config.yaml"
)

// ConfigDir returns the XDG config directory for holoauth.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// FindConfigFile returns the path of the default config file, or "" when
// it does not exist.
func FindConfigFile() (string, error) {
	path := filepath.Join(ConfigDir(), ConfigFileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_FILE_STAT_FAILED").With("path", path).Wrap(err)
	}
	if info.IsDir() {
		return "", oops.Code("CONFIG_FILE_STAT_FAILED").With("path", path).Errorf("%s is a directory", path)
	}
	return path, nil
}
