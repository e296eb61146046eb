// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/proportions.go
// Summary: The persisted vertical split between upper region and panel.
// Usage: Mutated only by the drag controller; read by every reconciliation pass.

package dock

import "math"

const (
	// MinFraction is the smallest share either region may hold.
	MinFraction = 0.05
	// MaxFraction is the complement of MinFraction.
	MaxFraction = 1.0 - MinFraction

	// sumTolerance is how far the pair's sum may drift from 1.0.
	sumTolerance = 0.001
)

// Proportions is the vertical split of the available height. Upper and Lower
// each lie in [MinFraction, MaxFraction] and sum to 1.0 within sumTolerance.
type Proportions struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// DefaultProportions is the even split used until the user drags.
func DefaultProportions() Proportions {
	return Proportions{Upper: 0.5, Lower: 0.5}
}

// Valid reports whether the pair satisfies the range and sum invariants.
func (p Proportions) Valid() bool {
	if p.Upper < MinFraction || p.Upper > MaxFraction {
		return false
	}
	if p.Lower < MinFraction || p.Lower > MaxFraction {
		return false
	}
	return math.Abs(p.Upper+p.Lower-1.0) <= sumTolerance
}

// SplitAt derives a valid pair from a raw upper fraction, typically
// (pointerY - upperTop) / availableHeight during a drag. Both halves are
// clamped independently, the sum is rebalanced, and the result is rounded to
// three decimal places before being persisted.
func SplitAt(upperFraction float64) Proportions {
	u := clampFraction(upperFraction)
	l := clampFraction(1.0 - upperFraction)
	u, l = rebalance(u, l)
	return Proportions{Upper: round3(u), Lower: round3(l)}
}

// rebalance restores sum≈1.0 after clamping. The deviation is always split
// equally between both fractions, even when only one side was clamped, so
// the untouched side can land slightly past its bound.
func rebalance(u, l float64) (float64, float64) {
	d := u + l - 1.0
	if math.Abs(d) <= sumTolerance {
		return u, l
	}
	return u - d/2, l - d/2
}

func clampFraction(v float64) float64 {
	if v < MinFraction {
		return MinFraction
	}
	if v > MaxFraction {
		return MaxFraction
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
