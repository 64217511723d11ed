package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	renders int
}

func (f *fakeRenderer) HTML(q *Quote) (string, error) {
	f.renders++
	return fmt.Sprintf("<html>%s render %d</html>", q.Slug, f.renders), nil
}

func (f *fakeRenderer) Themes() []ThemeOption {
	return []ThemeOption{{ID: "default", Name: "Default"}}
}

func newTestHandler(t *testing.T, repo Repository) (*Handler, *fakeRenderer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := newTestService(repo, nil)
	renderer := &fakeRenderer{}
	h := NewHandler(svc, renderer, client, time.Minute, slog.Default(), nil)
	return h, renderer, mr
}

func sentQuote(t *testing.T, repo *mockRepo) Quote {
	t.Helper()
	svc := newTestService(repo, nil)
	q, err := svc.CreateAndSend(context.Background(), saveRequest())
	require.NoError(t, err)
	return *q
}

func publicRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/quotes", h.MountPublicRoutes)
	return r
}

func TestDocumentServedFromCacheUntilInvalidated(t *testing.T) {
	repo := newMockRepo()
	q := sentQuote(t, repo)
	h, renderer, _ := newTestHandler(t, repo)
	router := publicRouter(h)

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/"+q.Slug, nil))
		return rec
	}

	first := get()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), q.Slug)
	assert.Equal(t, 1, renderer.renders)

	second := get()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, renderer.renders)

	// A decision invalidates the cached page.
	body, _ := json.Marshal(DecisionRequest{ClientName: "Alex", ClientEmail: "alex@example.com"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quotes/"+q.Slug+"/accept", bytes.NewReader(body))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	third := get()
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, renderer.renders)
}

func TestDocumentUnknownSlugIs404(t *testing.T) {
	repo := newMockRepo()
	h, _, _ := newTestHandler(t, repo)
	router := publicRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecondDecisionIsConflict(t *testing.T) {
	repo := newMockRepo()
	q := sentQuote(t, repo)
	h, _, _ := newTestHandler(t, repo)
	router := publicRouter(h)

	decide := func(action string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(DecisionRequest{ClientName: "Alex", ClientEmail: "alex@example.com"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/quotes/"+q.Slug+"/"+action, bytes.NewReader(body))
		router.ServeHTTP(rec, req)
		return rec
	}

	first := decide("accept")
	require.Equal(t, http.StatusOK, first.Code)

	second := decide("reject")
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestStatusEndpoint(t *testing.T) {
	repo := newMockRepo()
	q := sentQuote(t, repo)
	h, _, _ := newTestHandler(t, repo)
	router := publicRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/"+q.Slug+"/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Decision string `json:"decision"`
		Totals   Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(DecisionPending), payload.Decision)
	assert.InDelta(t, 450.0, payload.Totals.Total, 0.001)
}

func TestStatusWithoutVersionsIs404(t *testing.T) {
	repo := newMockRepo()
	q := sentQuote(t, repo)
	stored := repo.quotes[q.ID]
	stored.Details.Versions = nil
	repo.quotes[q.ID] = stored

	h, _, _ := newTestHandler(t, repo)
	router := publicRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/"+q.Slug+"/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecisionRejectsMalformedBody(t *testing.T) {
	repo := newMockRepo()
	q := sentQuote(t, repo)
	h, _, _ := newTestHandler(t, repo)
	router := publicRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quotes/"+q.Slug+"/accept", bytes.NewReader([]byte("{")))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
