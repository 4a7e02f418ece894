package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/PPC_GO/internal/analysis"
	"github.com/AngelCh415/PPC_GO/internal/ingest"
	"github.com/AngelCh415/PPC_GO/internal/metrics"
	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/store"
	"github.com/AngelCh415/PPC_GO/internal/utils"
)

const maxBodyBytes = 32 << 20

type Deps struct {
	Log         *slog.Logger
	Store       *store.MemoryStore
	Loader      *ingest.Loader
	Analysis    *analysis.Service
	Metrics     *metrics.Service
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

type batchReq[T any] struct {
	Source string `json:"source"`
	Rows   []T    `json:"rows"`
}

func NewRouter(d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	mux.Post("/sets", func(w http.ResponseWriter, r *http.Request) {
		writeJSONStatus(w, http.StatusCreated, map[string]any{"id": d.Store.CreateSet(), "settings": d.Analysis.Defaults()})
	})

	mux.Route("/sets/{setID}", func(r chi.Router) {
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			if err := d.Store.DeleteSet(chi.URLParam(r, "setID")); err != nil {
				fail(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/ppc", func(w http.ResponseWriter, r *http.Request) {
			var body batchReq[models.KeywordRow]
			if !decode(w, r, &body) {
				return
			}
			added, err := d.Store.AddPPC(chi.URLParam(r, "setID"), body.Source, body.Rows)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, map[string]any{"added": added, "rows": len(body.Rows)})
		})

		r.Post("/sqp", func(w http.ResponseWriter, r *http.Request) {
			var body batchReq[models.SearchQueryRow]
			if !decode(w, r, &body) {
				return
			}
			added, err := d.Store.AddSQP(chi.URLParam(r, "setID"), body.Source, body.Rows)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, map[string]any{"added": added, "rows": len(body.Rows)})
		})

		r.Post("/organic", func(w http.ResponseWriter, r *http.Request) {
			var body batchReq[models.OrganicRankRow]
			if !decode(w, r, &body) {
				return
			}
			if err := d.Store.SetOrganic(chi.URLParam(r, "setID"), body.Rows); err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, map[string]any{"rows": len(body.Rows)})
		})

		r.Post("/ingest", func(w http.ResponseWriter, r *http.Request) {
			stats, err := d.Loader.Run(r.Context(), chi.URLParam(r, "setID"))
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, stats)
		})

		r.Post("/analyze", func(w http.ResponseWriter, r *http.Request) {
			settings := d.Analysis.Defaults()
			if r.ContentLength != 0 {
				if !decode(w, r, &settings) {
					return
				}
			}
			res, err := d.Analysis.Analyze(chi.URLParam(r, "setID"), settings)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, res)
		})

		r.Get("/recommendations", func(w http.ResponseWriter, r *http.Request) {
			page, err := d.Metrics.QueryRecommendations(chi.URLParam(r, "setID"), r.URL.Query())
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, page)
		})

		r.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
			summary, total, err := d.Metrics.Summary(chi.URLParam(r, "setID"))
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, map[string]any{"summary": summary, "total_keywords": total})
		})

		r.Get("/keywords", func(w http.ResponseWriter, r *http.Request) {
			rows, err := d.Metrics.Keywords(chi.URLParam(r, "setID"), r.URL.Query())
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, rows)
		})

		r.Get("/queries", func(w http.ResponseWriter, r *http.Request) {
			rows, err := d.Metrics.Queries(chi.URLParam(r, "setID"), r.URL.Query())
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, rows)
		})

		r.Get("/wasp", func(w http.ResponseWriter, r *http.Request) {
			report, err := d.Metrics.WASP(chi.URLParam(r, "setID"), r.URL.Query())
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, report)
		})

		r.Post("/export", func(w http.ResponseWriter, r *http.Request) {
			n, err := d.Loader.Export(r.Context(), chi.URLParam(r, "setID"))
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, map[string]any{"exported": n})
		})
	})

	return mux
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrNoResult):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrInvertedThresholds), errors.Is(err, models.ErrInvalidSettings):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrSinkNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, v any) { writeJSONStatus(w, http.StatusOK, v) }

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		slog.Debug("encode response", slog.String("err", err.Error()))
	}
}
