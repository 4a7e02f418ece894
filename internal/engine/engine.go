// Package engine turns aggregated keyword and search-query records into one
// Recommendation per keyword. Every function here is pure.
package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/AngelCh415/PPC_GO/internal/models"
)

var now = time.Now

// Input bundles what a single analysis run consumes. Organic is optional
// and keyed by lowercase search term.
type Input struct {
	Keywords []models.AggregatedKeyword
	Queries  []models.AggregatedQuery
	Organic  map[string]models.OrganicRank
	Settings models.Settings
}

// Run does not validate in.Settings; callers must reject inverted thresholds.
func Run(in Input) models.AnalysisResult {
	// later entries win on a lowercase collision
	ppcIdx := make(map[string]models.AggregatedKeyword, len(in.Keywords))
	var keys []string
	for _, kw := range in.Keywords {
		k := strings.ToLower(kw.Keyword)
		if _, ok := ppcIdx[k]; !ok {
			keys = append(keys, k)
		}
		ppcIdx[k] = kw
	}
	sqpIdx := make(map[string]models.AggregatedQuery, len(in.Queries))
	for _, q := range in.Queries {
		k := strings.ToLower(q.SearchQuery)
		_, inPPC := ppcIdx[k]
		_, inSQP := sqpIdx[k]
		if !inPPC && !inSQP {
			keys = append(keys, k)
		}
		sqpIdx[k] = q
	}

	recs := make([]models.Recommendation, 0, len(keys))
	for _, k := range keys {
		var ppc *models.AggregatedKeyword
		var sqp *models.AggregatedQuery
		if v, ok := ppcIdx[k]; ok {
			ppc = &v
		}
		if v, ok := sqpIdx[k]; ok {
			sqp = &v
		}
		rec := recommend(ppc, sqp, ppcIdx, in.Settings)
		if org, ok := in.Organic[k]; ok {
			rec.OrganicRank = org.Rank
			rec.OrganicSearchVolume = models.Ptr(org.SearchVolume)
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		si, sj := deref(recs[i].Spend), deref(recs[j].Spend)
		if si != sj {
			return si > sj
		}
		return deref(recs[i].AvgSearchVolume) > deref(recs[j].AvgSearchVolume)
	})

	return models.AnalysisResult{
		Recommendations: recs,
		Summary:         Summarize(recs),
		TotalKeywords:   len(keys),
		AnalyzedAt:      now(),
		Settings:        in.Settings,
	}
}

func recommend(ppc *models.AggregatedKeyword, sqp *models.AggregatedQuery, ppcIdx map[string]models.AggregatedKeyword, s models.Settings) models.Recommendation {
	rec := models.Recommendation{
		Action:     models.ActionNoChange,
		MatchType:  models.MatchExact,
		Campaigns:  []string{},
		TrendFlags: []models.Action{},
	}

	switch {
	case ppc != nil && sqp != nil:
		rec.Source = models.SourceBoth
	case ppc != nil:
		rec.Source = models.SourcePPC
	default:
		rec.Source = models.SourceSQP
	}

	if ppc != nil {
		v, insufficient := CheckSufficiency(*ppc, s)
		if !insufficient {
			v = EvaluateACOS(*ppc, s)
		}
		rec.Action, rec.SuggestedBid, rec.Reason = v.Action, v.SuggestedBid, v.Reason

		rec.Keyword = ppc.Keyword
		rec.MatchType = ppc.MatchType
		rec.Campaigns = append([]string{}, ppc.Campaigns...)
		rec.CurrentACOS = models.Ptr(ppc.ACOS)
		rec.CurrentBid = models.Ptr(ppc.Bid)
		rec.Clicks = models.Ptr(ppc.Clicks)
		rec.Spend = models.Ptr(ppc.Spend)
		rec.Sales = models.Ptr(ppc.Sales)
		rec.Orders = models.Ptr(ppc.Orders)
		rec.ConversionRate = models.Ptr(ppc.ConversionRate)
	}

	if sqp != nil {
		if ppc == nil {
			_, hasKeyword := ppcIdx[strings.ToLower(sqp.SearchQuery)]
			ok, reason := CheckOpportunity(*sqp, hasKeyword)
			rec.Action = models.ActionNoChange
			if ok {
				rec.Action = models.ActionStartAds
			}
			rec.Reason = reason
			rec.Keyword = sqp.SearchQuery
		}
		rec.TrendFlags = TrendFlags(*sqp)

		rec.AvgSearchVolume = models.Ptr(sqp.AvgSearchVolume)
		rec.AvgClickShareAsin = models.Ptr(sqp.AvgClickShareAsin)
		rec.AvgPurchaseShareAsin = models.Ptr(sqp.AvgPurchaseShareAsin)
		rec.ClickToPurchaseAsin = models.Ptr(sqp.AvgClickToPurchaseAsin)
		rec.ClickToPurchaseTotal = models.Ptr(sqp.AvgClickToPurchaseTotal)
	}
	return rec
}

// Summarize counts each primary action plus every trend flag occurrence.
func Summarize(recs []models.Recommendation) map[models.Action]int {
	out := make(map[models.Action]int, len(models.Actions))
	for _, a := range models.Actions {
		out[a] = 0
	}
	for _, r := range recs {
		out[r.Action]++
		for _, f := range r.TrendFlags {
			out[f]++
		}
	}
	return out
}

func deref[T int | float64](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}
