// Package analysis runs the aggregation and rules pipeline over the
// batches stored for a set.
package analysis

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AngelCh415/PPC_GO/internal/aggregate"
	"github.com/AngelCh415/PPC_GO/internal/engine"
	"github.com/AngelCh415/PPC_GO/internal/metrics"
	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/store"
	"github.com/AngelCh415/PPC_GO/internal/wasp"
)

type Service struct {
	st       *store.MemoryStore
	log      *slog.Logger
	prom     *metrics.Collectors
	defaults models.Settings
}

func NewService(st *store.MemoryStore, log *slog.Logger, prom *metrics.Collectors, defaults models.Settings) *Service {
	return &Service{st: st, log: log, prom: prom, defaults: defaults}
}

func (s *Service) Defaults() models.Settings { return s.defaults }

// Analyze rebuilds every aggregate of the set from scratch and stores the
// outcome. Settings are validated here, never inside the engine.
func (s *Service) Analyze(setID string, settings models.Settings) (models.AnalysisResult, error) {
	if err := settings.Validate(); err != nil {
		return models.AnalysisResult{}, err
	}
	snap, err := s.st.Snapshot(setID)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	start := time.Now()
	kws := aggregate.Keywords(snap.PPC)
	qs := aggregate.Queries(snap.SQP)
	res := engine.Run(engine.Input{
		Keywords: kws,
		Queries:  qs,
		Organic:  models.IndexOrganic(snap.Organic),
		Settings: settings,
	})
	took := time.Since(start)

	if err := s.st.SaveAnalysis(setID, store.Analysis{Keywords: kws, Queries: qs, Result: res}); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("save analysis: %w", err)
	}

	report := wasp.Compute(res.Recommendations, settings)
	if s.prom != nil {
		s.prom.Observe(res, report, took)
	}
	s.log.Info("analysis complete",
		slog.String("set", setID),
		slog.Int("ppc_batches", len(snap.PPC)),
		slog.Int("sqp_batches", len(snap.SQP)),
		slog.Int("keywords", res.TotalKeywords),
		slog.Float64("wasted_spend", report.TotalWastedSpend),
		slog.Duration("took", took))
	return res, nil
}
