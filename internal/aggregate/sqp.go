package aggregate

import (
	"sort"
	"strings"

	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/trend"
	"github.com/AngelCh415/PPC_GO/internal/utils"
)

type queryKey struct {
	text string
	asin string
}

// Queries merges weekly search-query rows into one AggregatedQuery per
// (lowercase query, asin), sorted by average search volume descending.
func Queries(batches [][]models.SearchQueryRow) []models.AggregatedQuery {
	groups := make(map[queryKey][]models.SearchQueryRow)
	var order []queryKey

	for _, batch := range batches {
		for _, r := range batch {
			k := queryKey{text: strings.ToLower(r.SearchQuery), asin: r.Asin}
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], r)
		}
	}

	out := make([]models.AggregatedQuery, 0, len(order))
	for _, k := range order {
		out = append(out, aggregateWeeks(groups[k]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgSearchVolume > out[j].AvgSearchVolume })
	return out
}

func aggregateWeeks(rows []models.SearchQueryRow) models.AggregatedQuery {
	weeks := make([]models.SearchQueryRow, len(rows))
	copy(weeks, rows)
	// YYYY-MM-DD labels sort chronologically as strings
	sort.SliceStable(weeks, func(i, j int) bool { return weeks[i].ReportingWeek < weeks[j].ReportingWeek })

	var vol, clickShare, purchaseShare, ctpTotal, ctpAsin float64
	clickSeries := make([]float64, 0, len(weeks))
	purchaseSeries := make([]float64, 0, len(weeks))
	for _, w := range weeks {
		vol += w.SearchQueryVolume
		clickShare += w.ClickShareAsin
		purchaseShare += w.PurchaseShareAsin
		ctpTotal += w.ClickToPurchaseTotal
		ctpAsin += w.ClickToPurchaseAsin
		clickSeries = append(clickSeries, w.ClickShareAsin)
		purchaseSeries = append(purchaseSeries, w.PurchaseShareAsin)
	}
	n := float64(len(weeks))

	return models.AggregatedQuery{
		SearchQuery:             weeks[0].SearchQuery,
		Asin:                    weeks[0].Asin,
		Weeks:                   weeks,
		AvgSearchVolume:         utils.SafeDiv(vol, n),
		AvgClickShareAsin:       utils.SafeDiv(clickShare, n),
		AvgPurchaseShareAsin:    utils.SafeDiv(purchaseShare, n),
		AvgClickToPurchaseTotal: utils.SafeDiv(ctpTotal, n),
		AvgClickToPurchaseAsin:  utils.SafeDiv(ctpAsin, n),
		ClickShareTrend:         trend.Classify(clickSeries),
		PurchaseShareTrend:      trend.Classify(purchaseSeries),
	}
}
