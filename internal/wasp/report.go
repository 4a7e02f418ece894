// Package wasp buckets recommendation spend into wasted-ad-spend categories.
package wasp

import (
	"fmt"

	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/utils"
)

const (
	CategoryZeroConversion = "zero-conversion"
	CategoryHighACOS       = "high-acos"
	CategoryOrganic        = "organic-cannibalization"

	// OrganicTopRank is the worst organic position still treated as cannibalized.
	OrganicTopRank = 3
)

// Compute builds the three fixed categories. They overlap: one keyword can
// count towards several, so total waste may exceed recoverable spend.
func Compute(recs []models.Recommendation, s models.Settings) models.WASPReport {
	var totalAdSpend float64
	var zero, high, organic bucket

	for _, r := range recs {
		spend := value(r.Spend)
		totalAdSpend += spend

		if r.Orders != nil && *r.Orders == 0 && spend > 0 {
			zero.add(spend, spend)
		}
		if r.Action == models.ActionLowerBid {
			justified := value(r.Sales) * s.ACOSTarget / 100
			high.add(spend, max(0, spend-justified))
		}
		if r.OrganicRank != nil && *r.OrganicRank <= OrganicTopRank && spend > 0 {
			organic.add(spend, spend)
		}
	}

	categories := []models.WASPCategory{
		{
			ID:          CategoryZeroConversion,
			Label:       "Zero-Conversion Spend",
			Description: "Keywords with ad spend but zero orders. Budget spent with no return.",
			Severity:    severity(zero.waste > 0, models.SeverityHigh),
		},
		{
			ID:          CategoryHighACOS,
			Label:       "High-ACOS Keywords",
			Description: fmt.Sprintf("Keywords with ACOS above your %g%% target. Overspending relative to sales.", s.ACOSTarget),
			Severity:    severity(high.waste > 0, models.SeverityMedium),
		},
		{
			ID:    CategoryOrganic,
			Label: "Organic Cannibalization",
			Description: "Keywords already ranking in the top 3 organically where ads are also running. " +
				"You may be paying for clicks you'd get for free.",
			Severity: severity(organic.count > 0, models.SeverityMedium),
		},
	}
	for i, b := range []bucket{zero, high, organic} {
		categories[i].KeywordCount = b.count
		categories[i].TotalSpend = b.spend
		categories[i].EstimatedWaste = b.waste
	}

	total := zero.waste + high.waste + organic.waste
	return models.WASPReport{
		Categories:       categories,
		TotalWastedSpend: total,
		TotalAdSpend:     totalAdSpend,
		WastePercentage:  100 * utils.SafeDiv(total, totalAdSpend),
	}
}

type bucket struct {
	count int
	spend float64
	waste float64
}

func (b *bucket) add(spend, waste float64) {
	b.count++
	b.spend += spend
	b.waste += waste
}

func severity(flagged bool, level models.Severity) models.Severity {
	if flagged {
		return level
	}
	return models.SeverityLow
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
