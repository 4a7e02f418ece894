// Package aggregate fuses repeated report rows into one record per keyword
// or search query. Rates are always recomputed from summed volumes.
package aggregate

import (
	"sort"
	"strings"

	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/utils"
)

type keywordKey struct {
	text  string
	match models.MatchType
}

type keywordAgg struct {
	out       models.AggregatedKeyword
	campaigns map[string]struct{}
}

// Keywords merges every batch into one AggregatedKeyword per
// (lowercase keyword, match type), sorted by spend descending.
func Keywords(batches [][]models.KeywordRow) []models.AggregatedKeyword {
	groups := make(map[keywordKey]*keywordAgg)
	var order []keywordKey

	for _, batch := range batches {
		for _, r := range batch {
			k := keywordKey{text: strings.ToLower(r.Keyword), match: r.MatchType}
			g, ok := groups[k]
			if !ok {
				g = &keywordAgg{
					out:       models.AggregatedKeyword{Keyword: r.Keyword, MatchType: r.MatchType, Bid: r.Bid},
					campaigns: map[string]struct{}{},
				}
				groups[k] = g
				order = append(order, k)
			}
			if _, seen := g.campaigns[r.CampaignName]; !seen {
				g.campaigns[r.CampaignName] = struct{}{}
				g.out.Campaigns = append(g.out.Campaigns, r.CampaignName)
			}
			// a lowered bid may be a stale snapshot; a raise is usually deliberate
			if r.Bid > g.out.Bid {
				g.out.Bid = r.Bid
			}
			g.out.Impressions += r.Impressions
			g.out.Clicks += r.Clicks
			g.out.Spend += r.Spend
			g.out.Sales += r.Sales
			g.out.Orders += r.Orders
		}
	}

	out := make([]models.AggregatedKeyword, 0, len(order))
	for _, k := range order {
		a := groups[k].out
		a.ACOS = 100 * utils.SafeDiv(a.Spend, a.Sales)
		a.CPC = utils.SafeDiv(a.Spend, float64(a.Clicks))
		a.ConversionRate = 100 * utils.SafeDiv(float64(a.Orders), float64(a.Clicks))
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spend > out[j].Spend })
	return out
}
