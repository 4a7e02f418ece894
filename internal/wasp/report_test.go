package wasp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/PPC_GO/internal/models"
)

var settings = models.Settings{ACOSTarget: 25, ACOSThreshold: 40, ClickThreshold: 10}

func ppcRec(action models.Action, spend, sales float64, orders int) models.Recommendation {
	return models.Recommendation{
		Keyword: "kw",
		Action:  action,
		Spend:   models.Ptr(spend),
		Sales:   models.Ptr(sales),
		Orders:  models.Ptr(orders),
		Source:  models.SourcePPC,
	}
}

func byID(r models.WASPReport) map[string]models.WASPCategory {
	out := map[string]models.WASPCategory{}
	for _, c := range r.Categories {
		out[c.ID] = c
	}
	return out
}

func TestComputeFixedOrder(t *testing.T) {
	r := Compute(nil, settings)
	require.Len(t, r.Categories, 3)
	assert.Equal(t, CategoryZeroConversion, r.Categories[0].ID)
	assert.Equal(t, CategoryHighACOS, r.Categories[1].ID)
	assert.Equal(t, CategoryOrganic, r.Categories[2].ID)
	for _, c := range r.Categories {
		assert.Equal(t, models.SeverityLow, c.Severity)
	}
	assert.Zero(t, r.WastePercentage)
	assert.Zero(t, r.TotalAdSpend)
}

func TestComputeZeroConversionOnly(t *testing.T) {
	recs := []models.Recommendation{
		ppcRec(models.ActionNegate, 10, 0, 0),
		ppcRec(models.ActionNoChange, 30, 100, 3),
	}
	r := Compute(recs, settings)
	cats := byID(r)

	assert.Equal(t, 1, cats[CategoryZeroConversion].KeywordCount)
	assert.Equal(t, 10.0, cats[CategoryZeroConversion].EstimatedWaste)
	assert.Equal(t, models.SeverityHigh, cats[CategoryZeroConversion].Severity)
	assert.Zero(t, cats[CategoryHighACOS].EstimatedWaste)
	assert.Zero(t, cats[CategoryOrganic].EstimatedWaste)
	assert.Equal(t, 10.0, r.TotalWastedSpend)
	assert.Equal(t, 40.0, r.TotalAdSpend)
	assert.InDelta(t, 25.0, r.WastePercentage, 1e-9)
}

func TestComputeHighACOSWaste(t *testing.T) {
	recs := []models.Recommendation{
		// 100 sales at a 25% target justify 25 of the 60 spent
		ppcRec(models.ActionLowerBid, 60, 100, 4),
		// already under what sales justify: clamps to zero
		ppcRec(models.ActionLowerBid, 20, 100, 4),
	}
	r := Compute(recs, settings)
	c := byID(r)[CategoryHighACOS]
	assert.Equal(t, 2, c.KeywordCount)
	assert.InDelta(t, 80.0, c.TotalSpend, 1e-9)
	assert.InDelta(t, 35.0, c.EstimatedWaste, 1e-9)
	assert.Equal(t, models.SeverityMedium, c.Severity)
	assert.Contains(t, c.Description, "25% target")
}

func TestComputeOrganicCannibalization(t *testing.T) {
	top := ppcRec(models.ActionNoChange, 15, 80, 2)
	top.OrganicRank = models.Ptr(3)
	low := ppcRec(models.ActionNoChange, 15, 80, 2)
	low.OrganicRank = models.Ptr(4)
	free := ppcRec(models.ActionNoChange, 0, 0, 0)
	free.OrganicRank = models.Ptr(1)

	c := byID(Compute([]models.Recommendation{top, low, free}, settings))[CategoryOrganic]
	assert.Equal(t, 1, c.KeywordCount)
	assert.Equal(t, 15.0, c.EstimatedWaste)
	assert.Equal(t, models.SeverityMedium, c.Severity)
}

func TestComputeCountsOverlapTwice(t *testing.T) {
	rec := ppcRec(models.ActionNegate, 10, 0, 0)
	rec.OrganicRank = models.Ptr(1)
	r := Compute([]models.Recommendation{rec}, settings)
	assert.Equal(t, 20.0, r.TotalWastedSpend)
	assert.Equal(t, 10.0, r.TotalAdSpend)
	assert.InDelta(t, 200.0, r.WastePercentage, 1e-9)
}

func TestComputeIgnoresSQPOnly(t *testing.T) {
	rec := models.Recommendation{Keyword: "sqp", Action: models.ActionStartAds, Source: models.SourceSQP}
	r := Compute([]models.Recommendation{rec}, settings)
	assert.Zero(t, r.TotalWastedSpend)
	for _, c := range r.Categories {
		assert.Zero(t, c.KeywordCount)
	}
}
