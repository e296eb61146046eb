// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for dockpin configuration and settings.

package config

import (
	"os"
	"path/filepath"
)

const (
	configName = "dockpin.json"
	storeName  = "settings.db"
)

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "dockpin"), nil
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configName), nil
}

// StorePathOrDefault resolves the settings database location: the
// configured override if set, else the default next to the config file.
func (c Config) StorePathOrDefault() (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, storeName), nil
}
