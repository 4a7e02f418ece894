// Package trend classifies ordered numeric series.
package trend

import "github.com/AngelCh415/PPC_GO/internal/models"

// MinPoints is the shortest series that can carry a direction.
const MinPoints = 3

// Classify reports growing or declining only when every step of the whole
// series moves strictly in that direction.
func Classify(series []float64) models.Trend {
	if len(series) < MinPoints {
		return models.TrendStable
	}
	growing, declining := true, true
	for i := 1; i < len(series); i++ {
		if series[i] >= series[i-1] {
			declining = false
		}
		if series[i] <= series[i-1] {
			growing = false
		}
	}
	switch {
	case growing:
		return models.TrendGrowing
	case declining:
		return models.TrendDeclining
	}
	return models.TrendStable
}

// HasDeclineRun reports whether the series contains MinPoints consecutive
// strictly decreasing values anywhere.
func HasDeclineRun(series []float64) bool {
	if len(series) < MinPoints {
		return false
	}
	run := 0
	for i := 1; i < len(series); i++ {
		if series[i] < series[i-1] {
			run++
			if run >= MinPoints-1 {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}
