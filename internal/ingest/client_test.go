package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/utils"
)

func TestGetJSONHandles500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var rows []models.KeywordRow
	err := getJSON(context.Background(), NewHTTPClient(2*time.Second), srv.URL, &rows)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Contains(t, se.Body, "internal error")
}

func TestGetJSONHandlesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer srv.Close()

	var rows []models.KeywordRow
	err := getJSON(context.Background(), NewHTTPClient(200*time.Millisecond), srv.URL, &rows)
	assert.Error(t, err)
}

func TestGetJSONEmptyURL(t *testing.T) {
	assert.EqualError(t, getJSON(context.Background(), NewHTTPClient(time.Second), "", nil), "empty url")
}

func TestGetJSONWithRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"keyword":"garlic press","match_type":"Exact","clicks":12}]`))
	}))
	defer srv.Close()

	var rows []models.KeywordRow
	err := GetJSONWithRetry(context.Background(), NewHTTPClient(time.Second), utils.NewBackoff(time.Millisecond, 2), srv.URL, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "garlic press", rows[0].Keyword)
	assert.Equal(t, models.MatchExact, rows[0].MatchType)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGetJSONWithRetryStopsOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var rows []models.KeywordRow
	err := GetJSONWithRetry(context.Background(), NewHTTPClient(time.Second), utils.NewBackoff(time.Millisecond, 2), srv.URL, &rows)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
