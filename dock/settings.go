// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/settings.go
// Summary: Loads and saves the mode flag and proportion pair.
// Usage: Read once at start; written on every toggle and drag move.

package dock

import (
	"encoding/json"
	"log"
)

const (
	settingsKeyMode        = "mode"
	settingsKeyProportions = "proportions"
)

// modeSetting is the persisted wire form of the mode flag.
type modeSetting struct {
	Docked bool `json:"docked"`
}

// loadSettings reads both persisted values, falling back to defaults on
// missing keys, corrupt payloads or storage errors. Persistence trouble is
// never fatal, the engine just starts from its defaults.
func loadSettings(store Storage) (Mode, Proportions) {
	mode := ModeOriginal
	props := DefaultProportions()
	if store == nil {
		return mode, props
	}

	if raw, err := store.Get(settingsKeyMode); err != nil {
		log.Printf("Engine: failed to load mode: %v", err)
	} else if raw != nil {
		var ms modeSetting
		if err := json.Unmarshal(raw, &ms); err != nil {
			log.Printf("Engine: corrupt mode setting, using default: %v", err)
		} else if ms.Docked {
			mode = ModeDocked
		}
	}

	if raw, err := store.Get(settingsKeyProportions); err != nil {
		log.Printf("Engine: failed to load proportions: %v", err)
	} else if raw != nil {
		var p Proportions
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Printf("Engine: corrupt proportions, using defaults: %v", err)
		} else if p.Valid() {
			props = p
		} else {
			log.Printf("Engine: persisted proportions %.3f/%.3f invalid, using defaults", p.Upper, p.Lower)
		}
	}

	return mode, props
}

func saveMode(store Storage, mode Mode) error {
	if store == nil {
		return nil
	}
	return store.Set(settingsKeyMode, modeSetting{Docked: mode == ModeDocked})
}

func saveProportions(store Storage, p Proportions) error {
	if store == nil {
		return nil
	}
	return store.Set(settingsKeyProportions, p)
}
