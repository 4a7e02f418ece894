package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type MatchType string

const (
	MatchBroad  MatchType = "Broad"
	MatchPhrase MatchType = "Phrase"
	MatchExact  MatchType = "Exact"
)

// KeywordRow is one line of a sponsored-products keyword report.
type KeywordRow struct {
	CampaignName   string    `json:"campaign_name"`
	AdGroupName    string    `json:"ad_group_name"`
	Keyword        string    `json:"keyword"`
	MatchType      MatchType `json:"match_type"`
	State          string    `json:"state"`
	Bid            float64   `json:"bid"`
	Impressions    int       `json:"impressions"`
	Clicks         int       `json:"clicks"`
	Spend          float64   `json:"spend"`
	Sales          float64   `json:"sales"`
	Orders         int       `json:"orders"`
	ACOS           float64   `json:"acos"`
	CPC            float64   `json:"cpc"`
	ConversionRate float64   `json:"conversion_rate"`
}

// AggregatedKeyword is the fused view of every row sharing a keyword
// (case-insensitive) and match type. Rates are recomputed from the sums.
type AggregatedKeyword struct {
	Keyword        string    `json:"keyword"`
	MatchType      MatchType `json:"match_type"`
	Campaigns      []string  `json:"campaigns"`
	Bid            float64   `json:"bid"`
	Impressions    int       `json:"impressions"`
	Clicks         int       `json:"clicks"`
	Spend          float64   `json:"spend"`
	Sales          float64   `json:"sales"`
	Orders         int       `json:"orders"`
	ACOS           float64   `json:"acos"`
	CPC            float64   `json:"cpc"`
	ConversionRate float64   `json:"conversion_rate"`
}

// SearchQueryRow is one week of search-query-performance data for a product.
type SearchQueryRow struct {
	SearchQuery          string  `json:"search_query"`
	SearchQueryVolume    float64 `json:"search_query_volume"`
	SearchQueryScore     float64 `json:"search_query_score"`
	ClickShareTotal      float64 `json:"click_share_total"`
	ClickShareAsin       float64 `json:"click_share_asin"`
	CartAddShareTotal    float64 `json:"cart_add_share_total"`
	CartAddShareAsin     float64 `json:"cart_add_share_asin"`
	PurchaseShareTotal   float64 `json:"purchase_share_total"`
	PurchaseShareAsin    float64 `json:"purchase_share_asin"`
	ClickToCartTotal     float64 `json:"click_to_cart_total"`
	ClickToCartAsin      float64 `json:"click_to_cart_asin"`
	ClickToPurchaseTotal float64 `json:"click_to_purchase_total"`
	ClickToPurchaseAsin  float64 `json:"click_to_purchase_asin"`
	ReportingWeek        string  `json:"reporting_week"`
	Asin                 string  `json:"asin"`
}

type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// AggregatedQuery groups the weekly rows of one (query, asin) pair.
// Weeks is sorted ascending by ReportingWeek.
type AggregatedQuery struct {
	SearchQuery             string           `json:"search_query"`
	Asin                    string           `json:"asin"`
	Weeks                   []SearchQueryRow `json:"weeks"`
	AvgSearchVolume         float64          `json:"avg_search_volume"`
	AvgClickShareAsin       float64          `json:"avg_click_share_asin"`
	AvgPurchaseShareAsin    float64          `json:"avg_purchase_share_asin"`
	AvgClickToPurchaseTotal float64          `json:"avg_click_to_purchase_total"`
	AvgClickToPurchaseAsin  float64          `json:"avg_click_to_purchase_asin"`
	ClickShareTrend         Trend            `json:"click_share_trend"`
	PurchaseShareTrend      Trend            `json:"purchase_share_trend"`
}

// OrganicRankRow is what the organic-ranking parser hands over.
type OrganicRankRow struct {
	SearchTerm   string   `json:"search_term"`
	MedianRank   *float64 `json:"median_rank"`
	LatestRank   *float64 `json:"latest_rank"`
	SearchVolume float64  `json:"search_volume"`
}

type OrganicRank struct {
	Rank         *int    `json:"rank"`
	SearchVolume float64 `json:"search_volume"`
}

// IndexOrganic keys organic rows by lowercase search term. The latest rank
// wins over the median when both are present.
func IndexOrganic(rows []OrganicRankRow) map[string]OrganicRank {
	out := make(map[string]OrganicRank, len(rows))
	for _, r := range rows {
		term := strings.ToLower(strings.TrimSpace(r.SearchTerm))
		if term == "" {
			continue
		}
		src := r.LatestRank
		if src == nil {
			src = r.MedianRank
		}
		var rank *int
		if src != nil {
			v := int(math.Round(*src))
			rank = &v
		}
		out[term] = OrganicRank{Rank: rank, SearchVolume: r.SearchVolume}
	}
	return out
}

var (
	ErrInvertedThresholds = errors.New("acos threshold is below acos target")
	ErrInvalidSettings    = errors.New("invalid analysis settings")
)

type Settings struct {
	ACOSTarget     float64 `json:"acos_target" yaml:"acos_target"`
	ACOSThreshold  float64 `json:"acos_threshold" yaml:"acos_threshold"`
	ClickThreshold int     `json:"click_threshold" yaml:"click_threshold"`
}

func DefaultSettings() Settings {
	return Settings{ACOSTarget: 25, ACOSThreshold: 40, ClickThreshold: 10}
}

// Validate checks the precondition the rules engine relies on but never
// enforces itself.
func (s Settings) Validate() error {
	if s.ACOSThreshold < s.ACOSTarget {
		return fmt.Errorf("%w: target=%.2f threshold=%.2f", ErrInvertedThresholds, s.ACOSTarget, s.ACOSThreshold)
	}
	if s.ACOSTarget < 0 || s.ClickThreshold < 0 {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidSettings)
	}
	return nil
}

type Action string

const (
	ActionIncreaseBid      Action = "INCREASE_BID"
	ActionLowerBid         Action = "LOWER_BID"
	ActionNegate           Action = "NEGATE"
	ActionNoChange         Action = "NO_CHANGE"
	ActionInsufficientData Action = "INSUFFICIENT_DATA"
	ActionStartAds         Action = "START_ADS"
	ActionReviewPreview    Action = "REVIEW_PREVIEW"
	ActionReviewDetailPage Action = "REVIEW_DETAIL_PAGE"
)

// Actions lists every action in reporting order.
var Actions = []Action{
	ActionIncreaseBid,
	ActionLowerBid,
	ActionNegate,
	ActionNoChange,
	ActionInsufficientData,
	ActionStartAds,
	ActionReviewPreview,
	ActionReviewDetailPage,
}

type Source string

const (
	SourcePPC  Source = "ppc"
	SourceSQP  Source = "sqp"
	SourceBoth Source = "both"
)

// Recommendation is the per-keyword outcome of an analysis run. Pointer
// fields are nil when the corresponding source had no data.
type Recommendation struct {
	Keyword    string    `json:"keyword"`
	MatchType  MatchType `json:"match_type"`
	Campaigns  []string  `json:"campaigns"`
	Action     Action    `json:"action"`
	TrendFlags []Action  `json:"trend_flags"`

	CurrentACOS    *float64 `json:"current_acos"`
	CurrentBid     *float64 `json:"current_bid"`
	SuggestedBid   *float64 `json:"suggested_bid"`
	Clicks         *int     `json:"clicks"`
	Spend          *float64 `json:"spend"`
	Sales          *float64 `json:"sales"`
	Orders         *int     `json:"orders"`
	ConversionRate *float64 `json:"conversion_rate"`

	AvgSearchVolume      *float64 `json:"avg_search_volume"`
	AvgClickShareAsin    *float64 `json:"avg_click_share_asin"`
	AvgPurchaseShareAsin *float64 `json:"avg_purchase_share_asin"`
	ClickToPurchaseAsin  *float64 `json:"click_to_purchase_asin"`
	ClickToPurchaseTotal *float64 `json:"click_to_purchase_total"`

	OrganicRank         *int     `json:"organic_rank"`
	OrganicSearchVolume *float64 `json:"organic_search_volume"`

	Reason string `json:"reason"`
	Source Source `json:"source"`
}

type AnalysisResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Summary         map[Action]int   `json:"summary"`
	TotalKeywords   int              `json:"total_keywords"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
	Settings        Settings         `json:"settings"`
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type WASPCategory struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	Description    string   `json:"description"`
	KeywordCount   int      `json:"keyword_count"`
	TotalSpend     float64  `json:"total_spend"`
	EstimatedWaste float64  `json:"estimated_waste"`
	Severity       Severity `json:"severity"`
}

type WASPReport struct {
	Categories       []WASPCategory `json:"categories"`
	TotalWastedSpend float64        `json:"total_wasted_spend"`
	TotalAdSpend     float64        `json:"total_ad_spend"`
	WastePercentage  float64        `json:"waste_percentage"`
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }
