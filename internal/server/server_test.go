package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamendmarketing/reportbuilderv3/internal/db"
	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline"
	"github.com/metamendmarketing/reportbuilderv3/internal/server/ratelimit"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// MockLLMClient returns canned responses in call order
type MockLLMClient struct {
	Responses []string
	Calls     int
}

func (m *MockLLMClient) Generate(_ context.Context, _ llm.Request) (string, error) {
	m.Calls++
	if m.Calls > len(m.Responses) {
		return `{}`, nil
	}
	return m.Responses[m.Calls-1], nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

const evidenceJSON = `{"kpis": [], "wins": [{"claim": "Fixed 3 broken links", "source_ref": "notes", "confidence": "High"}], "notes": []}`

const draftJSON = `{
  "subject": "January SEO update",
  "monthly_overview": "Links were fixed. The FAQ refresh started.",
  "key_highlights": ["Fixed 3 broken links"],
  "image_captions": [{"file_name": "rankings.png", "caption": "Rankings", "suggested_section": "wins_progress"}],
  "dashthis_line": "Full numbers are on the dashboard."
}`

// mockStore is an in-memory RunStore
type mockStore struct {
	runs      map[uuid.UUID]*db.Run
	texts     map[string]string
	artifacts map[uuid.UUID]*db.Artifact
}

func newMockStore() *mockStore {
	return &mockStore{
		runs:      make(map[uuid.UUID]*db.Run),
		texts:     make(map[string]string),
		artifacts: make(map[uuid.UUID]*db.Artifact),
	}
}

func (m *mockStore) CreateRun(_ context.Context, in db.RunInput) (uuid.UUID, error) {
	id := uuid.New()
	m.runs[id] = &db.Run{ID: id, ClientName: in.ClientName, Tier: in.Tier, Status: db.RunStatusRunning, CreatedAt: time.Now()}
	return id, nil
}

func (m *mockStore) CompleteRun(_ context.Context, runID uuid.UUID, status string) error {
	m.runs[runID].Status = status
	return nil
}

func (m *mockStore) SaveArtifact(context.Context, uuid.UUID, string, string, any) error {
	return nil
}

func (m *mockStore) SaveTextArtifact(_ context.Context, runID uuid.UUID, step, _ string, text string) error {
	m.texts[runID.String()+"/"+step] = text
	return nil
}

func (m *mockStore) StartRunStep(_ context.Context, runID uuid.UUID, step, category string) (*db.RunStep, error) {
	return &db.RunStep{RunID: runID, Step: step, Category: category}, nil
}

func (m *mockStore) FinishRunStep(context.Context, uuid.UUID, string, string, *string) error {
	return nil
}

func (m *mockStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	return m.runs[runID], nil
}

func (m *mockStore) ListRuns(_ context.Context, _ db.RunFilters) ([]db.Run, error) {
	var out []db.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockStore) ListArtifacts(context.Context, uuid.UUID) ([]db.ArtifactSummary, error) {
	return nil, nil
}

func (m *mockStore) GetArtifactByID(_ context.Context, id uuid.UUID) (*db.Artifact, error) {
	return m.artifacts[id], nil
}

func (m *mockStore) GetTextArtifact(_ context.Context, runID uuid.UUID, step string) (string, error) {
	return m.texts[runID.String()+"/"+step], nil
}

func (m *mockStore) ListRunSteps(context.Context, uuid.UUID) ([]db.RunStep, error) {
	return nil, nil
}

func (m *mockStore) DeleteRun(_ context.Context, runID uuid.UUID) error {
	if _, ok := m.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
	}
	delete(m.runs, runID)
	return nil
}

func newTestServer(t *testing.T, client *MockLLMClient, store RunStore) *Server {
	t.Helper()
	if client == nil {
		client = &MockLLMClient{}
	}
	s, err := New(Config{
		Client:    client,
		Store:     store,
		RateLimit: &ratelimit.Config{Enabled: false},
	})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC) }
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["archive"])
}

func TestCreateReport(t *testing.T) {
	mock := &MockLLMClient{Responses: []string{evidenceJSON, draftJSON}}
	s := newTestServer(t, mock, nil)

	req := multipartRequest(t, "/v1/reports", map[string]string{
		"client_name": "Acme Dental",
		"notes":       "Fixed 3 broken links; started refreshing the FAQ page.",
		"tier":        "standard",
		"to":          "client@example.com",
	}, map[string][]byte{
		"rankings.png": []byte("\x89PNG\r\n\x1a\nfake"),
	})

	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, mock.Calls)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "January SEO update", resp.Subject)
	assert.Equal(t, []string{"img1"}, resp.ContentIDs)
	assert.Equal(t, types.SectionWinsProgress, resp.Placement["rankings.png"])
	assert.Contains(t, resp.HTML, "cid:img1")
	assert.Contains(t, string(resp.EML), "To: <client@example.com>")
	require.NotNil(t, resp.Evidence)
	assert.Len(t, resp.Evidence.Wins, 1)
}

func TestCreateReport_Validation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"missing notes", map[string]string{"client_name": "Acme"}, "notes"},
		{"bad date", map[string]string{"notes": "n", "period_start": "01/02/2026"}, "period_start"},
		{"bad recipient", map[string]string{"notes": "n", "to": "not an address"}, "to"},
		{"bad website", map[string]string{"notes": "n", "website": "not a url"}, "invalid report request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockLLMClient{}
			s := newTestServer(t, mock, nil)

			w := serve(s, multipartRequest(t, "/v1/reports", tt.fields, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
			assert.Equal(t, 0, mock.Calls)
		})
	}
}

func TestCreateReport_NotMultipart(t *testing.T) {
	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(`{"notes": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReportStream(t *testing.T) {
	mock := &MockLLMClient{Responses: []string{evidenceJSON, draftJSON}}
	s := newTestServer(t, mock, nil)

	w := serve(s, multipartRequest(t, "/v1/reports/stream", map[string]string{
		"notes": "Fixed 3 broken links.",
	}, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Equal(t, 6, strings.Count(body, "event: step\n"))
	assert.Contains(t, body, `"step":"extract_evidence"`)
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, "January SEO update")
}

func TestRender(t *testing.T) {
	mock := &MockLLMClient{}
	s := newTestServer(t, mock, nil)

	body, err := json.Marshal(RenderRequest{
		ReportFields: ReportFields{ClientName: "Acme Dental", MonthLabel: "December 2025"},
		Draft: types.Draft{
			Subject:  "Edited",
			Blockers: []string{"Waiting on CMS access"},
		},
		Screenshots: []Screenshot{{FileName: "b.png", Data: []byte("png")}, {FileName: "a.png", Data: []byte("png")}},
		Placement:   map[string]types.SectionName{"b.png": types.SectionBlockers},
		Captions:    map[string]string{"a.png": "Crawl errors"},
	})
	require.NoError(t, err)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/v1/render", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, mock.Calls)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Edited", resp.Subject)
	assert.Nil(t, resp.Evidence)
	assert.Equal(t, types.SectionBlockers, resp.Placement["b.png"])
	assert.Equal(t, types.SectionKeyHighlights, resp.Placement["a.png"])
	// Key highlights render before blockers.
	assert.Equal(t, []string{"img1", "img2"}, resp.ContentIDs)
	assert.Contains(t, resp.HTML, "Waiting on CMS access")
	assert.Contains(t, resp.HTML, "December 2025")
	assert.Contains(t, resp.HTML, "Crawl errors")
}

func TestRender_Errors(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := `{"draft": {}, "screenshots": [{"file_name": "notes.txt", "data": ""}]}`
	w = serve(s, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not an image")
}

func TestRunEndpoints_WithoutArchive(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, path := range []string{"/v1/runs", "/v1/runs/" + uuid.NewString(), "/v1/artifacts/" + uuid.NewString()} {
		w := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}

func TestRunEndpoints_WithArchive(t *testing.T) {
	store := newMockStore()
	mock := &MockLLMClient{Responses: []string{evidenceJSON, draftJSON}}
	s := newTestServer(t, mock, store)

	w := serve(s, multipartRequest(t, "/v1/reports", map[string]string{
		"client_name": "Acme Dental",
		"notes":       "Fixed 3 broken links.",
	}, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	runID := report.RunID

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Dental")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/email.eml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "message/rfc822", w.Header().Get("Content-Type"))
	assert.Equal(t, report.EML, w.Body.Bytes())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/artifacts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"artifacts":[]`)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/steps", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodDelete, "/v1/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodDelete, "/v1/runs/"+runID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunEndpoints_InvalidID(t *testing.T) {
	s := newTestServer(t, nil, newMockStore())

	for _, path := range []string{"/v1/runs/not-a-uuid", "/v1/runs/not-a-uuid/artifacts", "/v1/runs/not-a-uuid/email.eml", "/v1/artifacts/not-a-uuid"} {
		w := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w := serve(s, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=-3", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s, err := New(Config{
		Client: &MockLLMClient{},
		RateLimit: &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  100,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/v1/render", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
			},
		},
	})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	body := `{"draft": {"subject": "x"}}`
	w := serve(s, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = serve(s, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := serve(s, httptest.NewRequest(http.MethodOptions, "/v1/reports", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ErrValidation{Field: "notes", Message: "required"}, http.StatusBadRequest},
		{&pipeline.PreconditionError{Cause: fmt.Errorf("bad")}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", db.ErrRunNotFound), http.StatusNotFound},
		{ErrArchiveDisabled, http.StatusNotImplemented},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
