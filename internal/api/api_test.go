package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/middleman/internal/api"
	"github.com/edgard/middleman/internal/config"
	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/recommend"
)

const testKey = "secret"

type stubModel struct {
	text string
	err  error
}

func (m *stubModel) Complete(context.Context, []recommend.Message, recommend.CompletionOptions) (string, error) {
	return m.text, m.err
}

type testEnv struct {
	handler http.Handler
	store   database.Store
	model   *stubModel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	model := &stubModel{text: "Reply 1: Hey! Reply 2: Hi there! Reply 3: Hello friend!"}
	fetcher := recommend.NewFetcher(store, nil)
	engine := recommend.NewEngine(fetcher, model, nil)
	svc := api.NewService(store, fetcher, engine, nil)

	cfg := config.HTTPConfig{APIKey: testKey, RequestTimeout: 5 * time.Second, CORSOrigins: []string{"*"}}
	return &testEnv{
		handler: api.NewRouter(cfg, svc, discardLogger()),
		store:   store,
		model:   model,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set(api.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	for path, body := range map[string]any{
		"/creators/":       map[string]any{"id": "c1", "name": "Mia", "niches": []string{"fitness"}, "nsfw": true},
		"/fans/":           map[string]any{"id": "f1", "name": "Alex", "lifetime_spend": 120.5},
		"/system-prompts/": map[string]any{"id": "p1", "name": "default", "system_prompt": "Hi {{fan_name}}"},
	} {
		if rec := e.do(t, http.MethodPost, path, body, testKey); rec.Code != http.StatusCreated {
			t.Fatalf("POST %s = %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestHealthAndAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
	health := decode[api.HealthResponse](t, rec)
	if health.Status != "healthy" || health.Service != "middleman" {
		t.Errorf("health = %+v", health)
	}

	if rec := env.do(t, http.MethodGet, "/creators/", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /creators without key = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/creators/", nil, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /creators with wrong key = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/creators/", nil, testKey); rec.Code != http.StatusOK {
		t.Errorf("GET /creators with key = %d, want 200", rec.Code)
	}
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	rec := env.do(t, http.MethodPost, "/recommendations",
		map[string]string{"creator_id": "c1", "fan_id": "f1", "system_prompt_id": "p1"}, testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /recommendations = %d %s", rec.Code, rec.Body.String())
	}

	resp := decode[api.RecommendationResponse](t, rec)
	if len(resp.Recommendations) != 3 || resp.ChatType != "text" || resp.FanID != "f1" {
		t.Fatalf("response = %+v", resp)
	}
	wantContent := []string{"Hey!", "Hi there!", "Hello friend!"}
	wantConfidence := []float64{0.9, 0.8, 0.7}
	for i, r := range resp.Recommendations {
		if r.Content != wantContent[i] || r.Confidence != wantConfidence[i] {
			t.Errorf("recommendation %d = %+v", i, r)
		}
	}
}

func TestRecommendationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	tests := []struct {
		name     string
		body     map[string]string
		modelErr error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing fan",
			body:     map[string]string{"creator_id": "c1", "fan_id": "nope", "system_prompt_id": "p1"},
			wantCode: http.StatusNotFound,
			wantMsg:  "Fan not found",
		},
		{
			name:     "creator reported first",
			body:     map[string]string{"creator_id": "nope", "fan_id": "nope", "system_prompt_id": "nope"},
			wantCode: http.StatusNotFound,
			wantMsg:  "Creator not found",
		},
		{
			name:     "missing prompt",
			body:     map[string]string{"creator_id": "c1", "fan_id": "f1", "system_prompt_id": "nope"},
			wantCode: http.StatusNotFound,
			wantMsg:  "System prompt not found",
		},
		{
			name:     "validation",
			body:     map[string]string{"creator_id": "c1"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "model failure",
			body:     map[string]string{"creator_id": "c1", "fan_id": "f1", "system_prompt_id": "p1"},
			modelErr: errors.New("upstream unavailable"),
			wantCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.model.err = tt.modelErr
			t.Cleanup(func() { env.model.err = nil })

			rec := env.do(t, http.MethodPost, "/recommendations", tt.body, testKey)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantMsg != "" {
				body := decode[map[string]string](t, rec)
				if body["error"] != tt.wantMsg {
					t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
				}
			}
		})
	}
}

func TestRepliesAndHistory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/fan-messages",
		map[string]string{"fan_id": "f1", "creator_id": "c1", "content": "hey Mia"}, testKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /fan-messages = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/replies", map[string]any{
		"fan_id": "f1", "creator_id": "c1", "reply_content": "hi Alex!",
		"reply_id": "rec_1_123", "metadata": map[string]any{"source": "web"},
	}, testKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /replies = %d %s", rec.Code, rec.Body.String())
	}
	stored := decode[api.StoredMessageResponse](t, rec)
	if !stored.Success || stored.MessageID == "" || stored.Message != "Chat reply stored successfully" {
		t.Errorf("stored = %+v", stored)
	}

	if rec := env.do(t, http.MethodPost, "/replies", map[string]any{"fan_id": "f1"}, testKey); rec.Code != http.StatusBadRequest {
		t.Errorf("POST /replies without content = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/chat-history?creator_id=c1&fan_id=f1", nil, testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /chat-history = %d %s", rec.Code, rec.Body.String())
	}
	history := decode[api.ChatHistoryResponse](t, rec)
	if len(history.Messages) != 2 {
		t.Fatalf("history = %+v", history.Messages)
	}
	if history.Messages[0].Sender != database.SenderFan || history.Messages[1].Sender != database.SenderCreator {
		t.Errorf("history order = %s, %s", history.Messages[0].Sender, history.Messages[1].Sender)
	}
	meta := history.Messages[1].Metadata
	if meta["reply_id"] != "rec_1_123" || meta["chat_type"] != "text" || meta["source"] != "web" {
		t.Errorf("metadata = %v", meta)
	}

	if rec := env.do(t, http.MethodGet, "/chat-history?creator_id=c1", nil, testKey); rec.Code != http.StatusBadRequest {
		t.Errorf("GET /chat-history without fan_id = %d, want 400", rec.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/creators/c1", nil, testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /creators/c1 = %d", rec.Code)
	}
	if got := decode[api.CreatorResponse](t, rec); got.Creator == nil || got.Creator.Name != "Mia" {
		t.Errorf("creator = %+v", got.Creator)
	}

	if rec := env.do(t, http.MethodPost, "/creators/", map[string]any{"id": "c1", "name": "dup"}, testKey); rec.Code != http.StatusConflict {
		t.Errorf("duplicate creator = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/fans/f1", map[string]any{"lifetime_spend": 300}, testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH /fans/f1 = %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[api.FanResponse](t, rec); got.Fan.LifetimeSpend != 300 || got.Fan.Name != "Alex" {
		t.Errorf("fan = %+v", got.Fan)
	}

	if rec := env.do(t, http.MethodPatch, "/fans/f1", map[string]any{}, testKey); rec.Code != http.StatusBadRequest {
		t.Errorf("empty PATCH = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, "/fans/f1", map[string]any{"lifetime_spend": -5}, testKey); rec.Code != http.StatusBadRequest {
		t.Errorf("negative spend PATCH = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/system-prompts/missing", map[string]any{"name": "x"}, testKey)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("PATCH missing prompt = %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["error"] != "System prompt not found" {
		t.Errorf("error = %q", body["error"])
	}

	rec = env.do(t, http.MethodGet, "/fans/", nil, testKey)
	if got := decode[map[string][]database.Fan](t, rec); len(got["fans"]) != 1 {
		t.Errorf("fans = %+v", got)
	}
}
