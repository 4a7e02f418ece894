package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelCh415/PPC_GO/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   models.Trend
	}{
		{"declining", []float64{10, 8, 6}, models.TrendDeclining},
		{"growing", []float64{2, 4, 6}, models.TrendGrowing},
		{"flat", []float64{5, 5, 5}, models.TrendStable},
		{"mixed", []float64{5, 7, 6, 8}, models.TrendStable},
		{"flat step breaks growth", []float64{1, 2, 2, 3}, models.TrendStable},
		{"long decline", []float64{9, 7, 5, 3, 1}, models.TrendDeclining},
		{"two points", []float64{10, 1}, models.TrendStable},
		{"one point", []float64{3}, models.TrendStable},
		{"empty", nil, models.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.series))
		})
	}
}

func TestHasDeclineRun(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   bool
	}{
		{"whole series", []float64{10, 8, 6}, true},
		{"run at the end", []float64{4, 9, 7, 5}, true},
		{"run in the middle", []float64{1, 9, 7, 5, 6, 8}, true},
		{"interrupted", []float64{10, 8, 9, 7, 8}, false},
		{"flat step resets", []float64{10, 8, 8, 6}, false},
		{"growing", []float64{1, 2, 3}, false},
		{"too short", []float64{10, 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasDeclineRun(tt.series))
		})
	}
}

func TestDeclineRunIsWeakerThanClassify(t *testing.T) {
	s := []float64{3, 10, 8, 6}
	assert.Equal(t, models.TrendStable, Classify(s))
	assert.True(t, HasDeclineRun(s))
}
