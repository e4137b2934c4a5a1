package tui

import (
	"github.com/agnivade/levenshtein"
	"github.com/gdamore/tcell/v2"
	"github.com/jakopako/gopick/internal/types"
	"github.com/jakopako/gopick/internal/utils"
)

// recordColors computes a color for each record based on the accumulated
// levenshtein distance of its selector from the selector of the first record.
// Records captured from structurally close elements get similar colors.
func recordColors(records []types.Record) []tcell.Color {
	colors := make([]tcell.Color, len(records))
	if len(records) == 0 {
		return colors
	}
	distances := make([]float64, len(records))
	for i := 1; i < len(records); i++ {
		distances[i] = distances[i-1] + float64(levenshtein.ComputeDistance(records[i-1].Selector, records[i].Selector))
	}
	// scale to 1 and map to rgb
	maxDist := distances[len(distances)-1] * 1.2
	s := 0.73
	v := 0.96
	for i, d := range distances {
		h := 0.0
		if maxDist > 0 {
			h = d / maxDist
		}
		r, g, b := utils.HSVToRGB(h, s, v)
		colors[i] = tcell.NewRGBColor(r, g, b)
	}
	return colors
}
