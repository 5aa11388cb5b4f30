// Package flair maps a volunteer's gamma to their progression flair.
package flair

import (
	"fmt"

	"transcribot/internal/core"
)

// Tier thresholds, highest first. The flair text carries the live gamma
// count; the css class styles the tier color.
var tiers = []struct {
	min  int
	name string
	css  string
}{
	{1000, "Jade", "grafeas-jade"},
	{500, "Diamond", "grafeas-diamond"},
	{250, "Golden", "grafeas-golden"},
	{100, "Purple", "grafeas-purple"},
	{50, "Teal", "grafeas-teal"},
	{25, "Green", "grafeas-green"},
	{1, "Initiate", "grafeas"},
}

type Tiers struct{}

var _ core.FlairTiers = Tiers{}

func (Tiers) Tier(gamma int) (string, string) {
	for _, t := range tiers {
		if gamma >= t.min {
			return fmt.Sprintf("%d Γ - %s", gamma, t.name), t.css
		}
	}
	return "0 Γ - Volunteer", "grafeas"
}
