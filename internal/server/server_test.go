package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/groundcheck/internal/knowledge"
	"github.com/ppiankov/groundcheck/internal/metrics"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
	"github.com/ppiankov/groundcheck/internal/verify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T, maxBatch int) *Server {
	t.Helper()
	src := knowledge.NewStaticSource("test", map[string]string{
		"Penicillin": "Penicillin was discovered in 1928 by the Scottish scientist Alexander Fleming.",
	})
	cfg := model.DefaultConfig()
	cfg.Server.MaxBatch = maxBatch
	cfg.Server.RequestTimeout = 5 * time.Second

	v := verify.New(src)
	m := metrics.New()
	p := pipeline.NewPipeline(cfg, v, m, nil)
	return New(cfg.Server, v, p, m, nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, testServer(t, 10), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","source":"test"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestVerify_Grounded(t *testing.T) {
	body := `{"prompt":"Who discovered penicillin?","response":"Penicillin was discovered by Alexander Fleming in 1928."}`
	w := do(t, testServer(t, 10), http.MethodPost, "/v1/verify", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Grounded)
	assert.Equal(t, model.OutcomeGrounded, resp.Outcome)
	require.NotNil(t, resp.Article)
	assert.Equal(t, "Penicillin", resp.Article.Title)
	assert.Equal(t, model.TierPromptSubject, resp.Tier)
	assert.Contains(t, resp.CommonWords, "fleming")
}

func TestVerify_Unresolvable(t *testing.T) {
	body := `{"prompt":"What is the DNA?","response":"Something."}`
	w := do(t, testServer(t, 10), http.MethodPost, "/v1/verify", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Grounded)
	assert.Equal(t, model.OutcomeUnresolvable, resp.Outcome)
	assert.NotNil(t, resp.CommonWords)
	assert.Zero(t, resp.Lookups)
}

func TestVerify_BadRequests(t *testing.T) {
	s := testServer(t, 10)

	for _, body := range []string{`{`, `{"response":"x"}`, `{"prompt":""}`} {
		w := do(t, s, http.MethodPost, "/v1/verify", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestEvaluate(t *testing.T) {
	body := `{"cases":[
		{"id":"a","prompt":"Who discovered penicillin?","response":"Penicillin was discovered by Alexander Fleming."},
		{"id":"b","prompt":"Who discovered penicillin?","response":"Marie Curie.","label":"correct"}
	]}`
	w := do(t, testServer(t, 10), http.MethodPost, "/v1/evaluate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, model.LabelCorrect, report.Results[0].FinalLabel)
	assert.True(t, report.Results[1].Overridden)
	assert.Equal(t, 0, report.Summary.Hallucinated)
}

func TestEvaluate_Rejections(t *testing.T) {
	s := testServer(t, 1)

	w := do(t, s, http.MethodPost, "/v1/evaluate", `{"cases":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/v1/evaluate", `{"cases":[{"response":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/v1/evaluate", `{"cases":[{"prompt":"Japan?","label":"maybe"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/v1/evaluate", `{"cases":[{"prompt":"a"},{"prompt":"b"}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, 10)
	r := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/verify",
		bytes.NewBufferString(`{"prompt":"Who discovered penicillin?","response":"Fleming."}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `groundcheck_verdicts_total{outcome="not_grounded"} 1`)
}

func TestRequestIDPropagated(t *testing.T) {
	s := testServer(t, 10)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
