package metrics

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/store"
	"github.com/AngelCh415/PPC_GO/internal/wasp"
)

// Service answers read-side queries over analysed sets.
type Service struct{ st *store.MemoryStore }

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }
func norm(s string) string                      { return strings.ToLower(strings.TrimSpace(s)) }

func csvSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

// Page is one slice of a filtered recommendation list.
type Page struct {
	Total           int                     `json:"total"`
	Limit           int                     `json:"limit"`
	Offset          int                     `json:"offset"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// QueryRecommendations filters by action (primary action or trend flag),
// source and keyword substring, preserving the analysis ordering.
func (s *Service) QueryRecommendations(setID string, v url.Values) (Page, error) {
	a, err := s.st.Analysis(setID)
	if err != nil {
		return Page{}, err
	}
	actions := csvSet(v.Get("action"))
	sources := csvSet(v.Get("source"))
	q := norm(v.Get("q"))

	rows := make([]models.Recommendation, 0, len(a.Result.Recommendations))
	for _, r := range a.Result.Recommendations {
		if len(actions) > 0 && !matchesAction(r, actions) {
			continue
		}
		if len(sources) > 0 {
			if _, ok := sources[string(r.Source)]; !ok {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Keyword), q) {
			continue
		}
		rows = append(rows, r)
	}

	limit, offset := clampLimitOffset(atoiDef(v.Get("limit"), 100), atoiDef(v.Get("offset"), 0), len(rows))
	return Page{
		Total:           len(rows),
		Limit:           limit,
		Offset:          offset,
		Recommendations: paginate(rows, limit, offset),
	}, nil
}

func matchesAction(r models.Recommendation, actions map[string]struct{}) bool {
	if _, ok := actions[norm(string(r.Action))]; ok {
		return true
	}
	for _, f := range r.TrendFlags {
		if _, ok := actions[norm(string(f))]; ok {
			return true
		}
	}
	return false
}

// Summary returns the per-action counts of the latest run.
func (s *Service) Summary(setID string) (map[models.Action]int, int, error) {
	a, err := s.st.Analysis(setID)
	if err != nil {
		return nil, 0, err
	}
	return a.Result.Summary, a.Result.TotalKeywords, nil
}

func (s *Service) Keywords(setID string, v url.Values) ([]models.AggregatedKeyword, error) {
	a, err := s.st.Analysis(setID)
	if err != nil {
		return nil, err
	}
	limit, offset := clampLimitOffset(atoiDef(v.Get("limit"), 100), atoiDef(v.Get("offset"), 0), len(a.Keywords))
	return paginate(a.Keywords, limit, offset), nil
}

func (s *Service) Queries(setID string, v url.Values) ([]models.AggregatedQuery, error) {
	a, err := s.st.Analysis(setID)
	if err != nil {
		return nil, err
	}
	limit, offset := clampLimitOffset(atoiDef(v.Get("limit"), 100), atoiDef(v.Get("offset"), 0), len(a.Queries))
	return paginate(a.Queries, limit, offset), nil
}

// WASP recomputes the waste report. acos_target, acos_threshold and
// click_threshold in v override the settings of the latest run.
func (s *Service) WASP(setID string, v url.Values) (models.WASPReport, error) {
	a, err := s.st.Analysis(setID)
	if err != nil {
		return models.WASPReport{}, err
	}
	settings := a.Result.Settings
	settings.ACOSTarget = floatDef(v.Get("acos_target"), settings.ACOSTarget)
	settings.ACOSThreshold = floatDef(v.Get("acos_threshold"), settings.ACOSThreshold)
	settings.ClickThreshold = atoiDef(v.Get("click_threshold"), settings.ClickThreshold)
	if err := settings.Validate(); err != nil {
		return models.WASPReport{}, err
	}
	return wasp.Compute(a.Result.Recommendations, settings), nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func floatDef(s string, d float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}
