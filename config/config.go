// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: On-disk configuration for the dockpin engine and its tools.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/framegrace/dockpin/dock"
)

// Config is the persisted configuration. Zero or missing fields fall back
// to the defaults, so a hand-edited file only needs the keys it changes.
type Config struct {
	// PluginID scopes the settings rows in the shared store.
	PluginID string `json:"plugin_id"`

	PanelMark   string `json:"panel_mark"`
	UpperMark   string `json:"upper_mark"`
	ContentMark string `json:"content_mark"`

	// ControlHeight is the pixel height reserved for the drag handle row.
	ControlHeight float64 `json:"control_height"`

	CooldownMs      int `json:"cooldown_ms"`
	AuditIntervalMs int `json:"audit_interval_ms"`
	AbsenceDelayMs  int `json:"absence_delay_ms"`

	// StorePath overrides the settings database location.
	StorePath string `json:"store_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PluginID:        "dockpin",
		PanelMark:       dock.DefaultPanelMark,
		UpperMark:       dock.DefaultUpperMark,
		ContentMark:     dock.DefaultContentMark,
		ControlHeight:   dock.DefaultControlHeight,
		CooldownMs:      int(dock.DefaultCooldown / time.Millisecond),
		AuditIntervalMs: int(dock.DefaultAuditInterval / time.Millisecond),
		AbsenceDelayMs:  int(dock.DefaultAbsenceDelay / time.Millisecond),
	}
}

// Load reads the config at path. A missing file yields the defaults; a
// present file is decoded over them, so partial files work.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// fillDefaults replaces zero fields with the built-in values.
func (c *Config) fillDefaults() {
	d := Default()
	if c.PluginID == "" {
		c.PluginID = d.PluginID
	}
	if c.PanelMark == "" {
		c.PanelMark = d.PanelMark
	}
	if c.UpperMark == "" {
		c.UpperMark = d.UpperMark
	}
	if c.ContentMark == "" {
		c.ContentMark = d.ContentMark
	}
	if c.ControlHeight <= 0 {
		c.ControlHeight = d.ControlHeight
	}
	if c.CooldownMs <= 0 {
		c.CooldownMs = d.CooldownMs
	}
	if c.AuditIntervalMs <= 0 {
		c.AuditIntervalMs = d.AuditIntervalMs
	}
	if c.AbsenceDelayMs <= 0 {
		c.AbsenceDelayMs = d.AbsenceDelayMs
	}
}

// Options converts the config into engine options.
func (c Config) Options() dock.Options {
	return dock.Options{
		PanelMark:     c.PanelMark,
		UpperMark:     c.UpperMark,
		ContentMark:   c.ContentMark,
		ControlHeight: c.ControlHeight,
		Cooldown:      time.Duration(c.CooldownMs) * time.Millisecond,
		AuditInterval: time.Duration(c.AuditIntervalMs) * time.Millisecond,
		AbsenceDelay:  time.Duration(c.AbsenceDelayMs) * time.Millisecond,
	}
}
