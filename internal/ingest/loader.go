package ingest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/PPC_GO/internal/config"
	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/store"
	"github.com/AngelCh415/PPC_GO/internal/utils"
	"github.com/AngelCh415/PPC_GO/internal/wasp"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

// maxParallelFetches bounds concurrent report downloads per run.
const maxParallelFetches = 4

// Loader pulls typed report batches from upstream URLs into a set and pushes
// analysis results to a signed sink.
type Loader struct {
	c       HTTPClient
	st      *store.MemoryStore
	log     *slog.Logger
	cfg     config.Config
	backoff utils.Backoff
}

func NewLoader(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config) *Loader {
	return &Loader{c: c, st: st, log: log, cfg: cfg, backoff: utils.NewBackoff(100*time.Millisecond, 2)}
}

// WithBackoff swaps the retry policy.
func (l *Loader) WithBackoff(b utils.Backoff) *Loader {
	l.backoff = b
	return l
}

// IngestStats counts what a Run added.
type IngestStats struct {
	PPCBatches  int `json:"ppc_batches"`
	SQPBatches  int `json:"sqp_batches"`
	OrganicRows int `json:"organic_rows"`
	Skipped     int `json:"skipped"`
}

// Run fetches every configured URL concurrently. Once all downloads
// succeeded the batches are committed to the set in one step, one batch per
// URL in URL order; a failed download leaves the set untouched.
func (l *Loader) Run(ctx context.Context, setID string) (IngestStats, error) {
	var stats IngestStats
	if _, err := l.st.Snapshot(setID); err != nil {
		return stats, err
	}

	ppc := make([][]models.KeywordRow, len(l.cfg.PPCURLs))
	sqp := make([][]models.SearchQueryRow, len(l.cfg.SQPURLs))
	var organic []models.OrganicRankRow

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, u := range l.cfg.PPCURLs {
		i, u := i, u
		g.Go(func() error { return GetJSONWithRetry(gctx, l.c, l.backoff, u, &ppc[i]) })
	}
	for i, u := range l.cfg.SQPURLs {
		i, u := i, u
		g.Go(func() error { return GetJSONWithRetry(gctx, l.c, l.backoff, u, &sqp[i]) })
	}
	if l.cfg.OrganicURL != "" {
		g.Go(func() error { return GetJSONWithRetry(gctx, l.c, l.backoff, l.cfg.OrganicURL, &organic) })
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	u := store.Upload{Organic: organic, ReplaceOrganic: l.cfg.OrganicURL != ""}
	for i, rows := range ppc {
		u.PPC = append(u.PPC, store.Batch[models.KeywordRow]{Label: l.cfg.PPCURLs[i], Rows: rows})
	}
	for i, rows := range sqp {
		u.SQP = append(u.SQP, store.Batch[models.SearchQueryRow]{Label: l.cfg.SQPURLs[i], Rows: rows})
	}
	c, err := l.st.Commit(setID, u)
	if err != nil {
		return stats, err
	}
	stats = IngestStats{PPCBatches: c.PPC, SQPBatches: c.SQP, Skipped: c.Skipped}
	if u.ReplaceOrganic {
		stats.OrganicRows = len(organic)
	}

	l.log.Info("ingest complete",
		slog.String("set", setID),
		slog.Int("ppc_batches", stats.PPCBatches),
		slog.Int("sqp_batches", stats.SQPBatches),
		slog.Int("organic_rows", stats.OrganicRows),
		slog.Int("skipped", stats.Skipped))
	return stats, nil
}

type exportPayload struct {
	SetID  string                `json:"set_id"`
	Result models.AnalysisResult `json:"result"`
	WASP   models.WASPReport     `json:"wasp"`
}

// Export posts the last analysis of a set to the sink. The body is signed
// with HMAC-SHA256 in X-Signature. It returns the number of recommendations sent.
func (l *Loader) Export(ctx context.Context, setID string) (int, error) {
	if l.cfg.SinkURL == "" || l.cfg.SinkSecret == "" {
		return 0, ErrSinkNotConfigured
	}
	a, err := l.st.Analysis(setID)
	if err != nil {
		return 0, err
	}
	b, err := json.Marshal(exportPayload{
		SetID:  setID,
		Result: a.Result,
		WASP:   wasp.Compute(a.Result.Recommendations, a.Result.Settings),
	})
	if err != nil {
		return 0, fmt.Errorf("encode export: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.SinkURL, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(b, l.cfg.SinkSecret))
	resp, err := l.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &StatusError{Code: resp.StatusCode}
	}
	l.log.Info("export complete", slog.String("set", setID), slog.Int("recommendations", len(a.Result.Recommendations)))
	return len(a.Result.Recommendations), nil
}

func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
