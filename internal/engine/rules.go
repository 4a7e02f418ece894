package engine

import (
	"fmt"

	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/trend"
	"github.com/AngelCh415/PPC_GO/internal/utils"
)

// Verdict is the outcome of a primary rule.
type Verdict struct {
	Action       models.Action
	SuggestedBid *float64
	Reason       string
}

// CheckSufficiency returns a verdict only when the keyword has too few
// clicks to be judged; the boolean is false when the data is sufficient.
func CheckSufficiency(kw models.AggregatedKeyword, s models.Settings) (Verdict, bool) {
	if kw.Clicks < s.ClickThreshold {
		return Verdict{
			Action: models.ActionInsufficientData,
			Reason: fmt.Sprintf("Only %d clicks (threshold: %d). Need more data.", kw.Clicks, s.ClickThreshold),
		}, true
	}
	return Verdict{}, false
}

// EvaluateACOS assumes sufficiency already passed. The branches are checked
// in priority order.
func EvaluateACOS(kw models.AggregatedKeyword, s models.Settings) Verdict {
	switch {
	case kw.Orders == 0:
		return Verdict{
			Action: models.ActionNegate,
			Reason: fmt.Sprintf("No conversions after %d clicks. Consider negating.", kw.Clicks),
		}
	case kw.ACOS == 0:
		return Verdict{
			Action:       models.ActionIncreaseBid,
			SuggestedBid: models.Ptr(utils.RoundCents(kw.Bid * 1.2)),
			Reason:       fmt.Sprintf("ACOS is 0%% with %d orders. Increasing bid to capture more volume.", kw.Orders),
		}
	case kw.ACOS < s.ACOSTarget:
		return Verdict{
			Action:       models.ActionIncreaseBid,
			SuggestedBid: models.Ptr(utils.RoundCents(kw.CPC * utils.SafeDiv(s.ACOSTarget, kw.ACOS))),
			Reason:       fmt.Sprintf("ACOS %.1f%% is below target %g%%. Room to increase bid.", kw.ACOS, s.ACOSTarget),
		}
	case kw.ACOS <= s.ACOSThreshold:
		return Verdict{
			Action: models.ActionNoChange,
			Reason: fmt.Sprintf("ACOS %.1f%% within acceptable range (%g%%-%g%%).", kw.ACOS, s.ACOSTarget, s.ACOSThreshold),
		}
	default:
		return Verdict{
			Action:       models.ActionLowerBid,
			SuggestedBid: models.Ptr(utils.RoundCents(kw.CPC * utils.SafeDiv(s.ACOSThreshold, kw.ACOS))),
			Reason:       fmt.Sprintf("ACOS %.1f%% exceeds threshold %g%%. Lower bid to reduce spend.", kw.ACOS, s.ACOSThreshold),
		}
	}
}

// CheckOpportunity reports whether a search query with no running keyword
// converts better for the product than for the market as a whole.
func CheckOpportunity(q models.AggregatedQuery, hasKeyword bool) (bool, string) {
	if !hasKeyword && q.AvgClickToPurchaseAsin > q.AvgClickToPurchaseTotal {
		return true, fmt.Sprintf("No active ads. ASIN conversion (%.1f%%) exceeds market (%.1f%%).",
			q.AvgClickToPurchaseAsin, q.AvgClickToPurchaseTotal)
	}
	if hasKeyword {
		return false, "Already running ads for this query."
	}
	return false, fmt.Sprintf("ASIN conversion (%.1f%%) does not exceed market (%.1f%%).",
		q.AvgClickToPurchaseAsin, q.AvgClickToPurchaseTotal)
}

// TrendFlags inspects the weekly series of a query for short decline runs.
// Falling click share points at the listing preview, falling purchase share
// at the detail page.
func TrendFlags(q models.AggregatedQuery) []models.Action {
	flags := []models.Action{}
	if len(q.Weeks) < trend.MinPoints {
		return flags
	}
	clicks := make([]float64, len(q.Weeks))
	purchases := make([]float64, len(q.Weeks))
	for i, w := range q.Weeks {
		clicks[i] = w.ClickShareAsin
		purchases[i] = w.PurchaseShareAsin
	}
	if trend.HasDeclineRun(clicks) {
		flags = append(flags, models.ActionReviewPreview)
	}
	if trend.HasDeclineRun(purchases) {
		flags = append(flags, models.ActionReviewDetailPage)
	}
	return flags
}
