package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/PPC_GO/internal/models"
)

var (
	ErrSetNotFound = errors.New("analysis set not found")
	ErrNoResult    = errors.New("analysis set has not been analyzed")
)

type Kind string

const (
	KindPPC     Kind = "ppc"
	KindSQP     Kind = "sqp"
	KindOrganic Kind = "organic"
)

// Snapshot is a copy of everything uploaded to a set.
type Snapshot struct {
	PPC     [][]models.KeywordRow
	SQP     [][]models.SearchQueryRow
	Organic []models.OrganicRankRow
}

// Analysis is the last analysis outcome kept for a set.
type Analysis struct {
	Keywords []models.AggregatedKeyword
	Queries  []models.AggregatedQuery
	Result   models.AnalysisResult
}

type set struct {
	created  time.Time
	ppc      [][]models.KeywordRow
	sqp      [][]models.SearchQueryRow
	organic  []models.OrganicRankRow
	seen     map[string]struct{} // idempotencia por batch
	analysis *Analysis
}

type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]*set
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*set)}
}

func (s *MemoryStore) CreateSet() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[id] = &set{created: time.Now().UTC(), seen: make(map[string]struct{})}
	return id
}

func (s *MemoryStore) DeleteSet(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[id]; !ok {
		return ErrSetNotFound
	}
	delete(s.sets, id)
	return nil
}

// markSeen returns false if label was already recorded for the set. An empty
// label is never deduplicated. Caller holds the lock.
func (st *set) markSeen(kind Kind, label string) bool {
	if label == "" {
		return true
	}
	key := string(kind) + "|" + label
	if _, ok := st.seen[key]; ok {
		return false
	}
	st.seen[key] = struct{}{}
	return true
}

// AddPPC appends one keyword report batch. It reports false when a batch with
// the same label was already added.
func (s *MemoryStore) AddPPC(id, label string, rows []models.KeywordRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[id]
	if !ok {
		return false, ErrSetNotFound
	}
	if !st.markSeen(KindPPC, label) {
		return false, nil
	}
	st.ppc = append(st.ppc, append([]models.KeywordRow(nil), rows...))
	return true, nil
}

func (s *MemoryStore) AddSQP(id, label string, rows []models.SearchQueryRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[id]
	if !ok {
		return false, ErrSetNotFound
	}
	if !st.markSeen(KindSQP, label) {
		return false, nil
	}
	st.sqp = append(st.sqp, append([]models.SearchQueryRow(nil), rows...))
	return true, nil
}

// SetOrganic replaces the organic ranking data of a set.
func (s *MemoryStore) SetOrganic(id string, rows []models.OrganicRankRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[id]
	if !ok {
		return ErrSetNotFound
	}
	st.organic = append([]models.OrganicRankRow(nil), rows...)
	return nil
}

// Batch is one labelled report upload.
type Batch[T any] struct {
	Label string
	Rows  []T
}

// Upload groups everything one ingest run adds to a set. Organic rows are
// only written when ReplaceOrganic is set.
type Upload struct {
	PPC            []Batch[models.KeywordRow]
	SQP            []Batch[models.SearchQueryRow]
	Organic        []models.OrganicRankRow
	ReplaceOrganic bool
}

// Committed counts what Commit kept.
type Committed struct {
	PPC     int
	SQP     int
	Skipped int
}

// Commit applies an Upload under a single lock: either the set exists and
// every batch is considered, or nothing changes.
func (s *MemoryStore) Commit(id string, u Upload) (Committed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[id]
	if !ok {
		return Committed{}, ErrSetNotFound
	}
	var c Committed
	for _, b := range u.PPC {
		if !st.markSeen(KindPPC, b.Label) {
			c.Skipped++
			continue
		}
		st.ppc = append(st.ppc, append([]models.KeywordRow(nil), b.Rows...))
		c.PPC++
	}
	for _, b := range u.SQP {
		if !st.markSeen(KindSQP, b.Label) {
			c.Skipped++
			continue
		}
		st.sqp = append(st.sqp, append([]models.SearchQueryRow(nil), b.Rows...))
		c.SQP++
	}
	if u.ReplaceOrganic {
		st.organic = append([]models.OrganicRankRow(nil), u.Organic...)
	}
	return c, nil
}

func (s *MemoryStore) Snapshot(id string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sets[id]
	if !ok {
		return Snapshot{}, ErrSetNotFound
	}
	snap := Snapshot{
		PPC:     make([][]models.KeywordRow, len(st.ppc)),
		SQP:     make([][]models.SearchQueryRow, len(st.sqp)),
		Organic: append([]models.OrganicRankRow(nil), st.organic...),
	}
	copy(snap.PPC, st.ppc)
	copy(snap.SQP, st.sqp)
	return snap, nil
}

func (s *MemoryStore) SaveAnalysis(id string, a Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[id]
	if !ok {
		return ErrSetNotFound
	}
	a = cloneAnalysis(a)
	st.analysis = &a
	return nil
}

func (s *MemoryStore) Analysis(id string) (Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sets[id]
	if !ok {
		return Analysis{}, ErrSetNotFound
	}
	if st.analysis == nil {
		return Analysis{}, ErrNoResult
	}
	return cloneAnalysis(*st.analysis), nil
}

func cloneAnalysis(a Analysis) Analysis {
	out := Analysis{
		Keywords: make([]models.AggregatedKeyword, len(a.Keywords)),
		Queries:  make([]models.AggregatedQuery, len(a.Queries)),
		Result:   a.Result,
	}
	for i, kw := range a.Keywords {
		kw.Campaigns = append([]string(nil), kw.Campaigns...)
		out.Keywords[i] = kw
	}
	for i, q := range a.Queries {
		q.Weeks = append([]models.SearchQueryRow(nil), q.Weeks...)
		out.Queries[i] = q
	}
	if a.Result.Recommendations != nil {
		out.Result.Recommendations = make([]models.Recommendation, len(a.Result.Recommendations))
		for i, r := range a.Result.Recommendations {
			out.Result.Recommendations[i] = cloneRecommendation(r)
		}
	}
	if a.Result.Summary != nil {
		out.Result.Summary = make(map[models.Action]int, len(a.Result.Summary))
		for k, v := range a.Result.Summary {
			out.Result.Summary[k] = v
		}
	}
	return out
}

func cloneRecommendation(r models.Recommendation) models.Recommendation {
	r.Campaigns = append([]string{}, r.Campaigns...)
	r.TrendFlags = append([]models.Action{}, r.TrendFlags...)
	r.CurrentACOS = clonePtr(r.CurrentACOS)
	r.CurrentBid = clonePtr(r.CurrentBid)
	r.SuggestedBid = clonePtr(r.SuggestedBid)
	r.Clicks = clonePtr(r.Clicks)
	r.Spend = clonePtr(r.Spend)
	r.Sales = clonePtr(r.Sales)
	r.Orders = clonePtr(r.Orders)
	r.ConversionRate = clonePtr(r.ConversionRate)
	r.AvgSearchVolume = clonePtr(r.AvgSearchVolume)
	r.AvgClickShareAsin = clonePtr(r.AvgClickShareAsin)
	r.AvgPurchaseShareAsin = clonePtr(r.AvgPurchaseShareAsin)
	r.ClickToPurchaseAsin = clonePtr(r.ClickToPurchaseAsin)
	r.ClickToPurchaseTotal = clonePtr(r.ClickToPurchaseTotal)
	r.OrganicRank = clonePtr(r.OrganicRank)
	r.OrganicSearchVolume = clonePtr(r.OrganicSearchVolume)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Sets lists set ids older than the given cutoff; a zero cutoff lists all.
func (s *MemoryStore) Sets(olderThan time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sets))
	for id, st := range s.sets {
		if olderThan.IsZero() || st.created.Before(olderThan) {
			out = append(out, id)
		}
	}
	return out
}
