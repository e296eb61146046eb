// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/mode.go
// Summary: Layout mode enum driving all placement and styling decisions.

package dock

// Mode selects which of the two layouts the engine enforces.
type Mode int

const (
	// ModeOriginal leaves the panel where the host put it and removes
	// every override the engine may have written.
	ModeOriginal Mode = iota
	// ModeDocked pins the panel below the upper region and sizes both
	// from the proportion pair.
	ModeDocked
)

func (m Mode) String() string {
	switch m {
	case ModeDocked:
		return "docked"
	case ModeOriginal:
		return "original"
	default:
		return "unknown"
	}
}
