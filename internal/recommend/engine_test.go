package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/edgard/middleman/internal/database"
)

type fakeStore struct {
	creators map[string]*database.Creator
	fans     map[string]*database.Fan
	prompts  map[string]*database.SystemPrompt
	messages []database.ChatMessage
	err      error
	calls    []string
}

func (f *fakeStore) GetCreator(_ context.Context, id string) (*database.Creator, error) {
	f.calls = append(f.calls, "creator")
	return f.creators[id], f.err
}

func (f *fakeStore) GetFan(_ context.Context, id string) (*database.Fan, error) {
	f.calls = append(f.calls, "fan")
	return f.fans[id], f.err
}

func (f *fakeStore) GetSystemPrompt(_ context.Context, id string) (*database.SystemPrompt, error) {
	f.calls = append(f.calls, "prompt")
	return f.prompts[id], f.err
}

func (f *fakeStore) GetRecentChatMessages(_ context.Context, _, _ string, limit int) ([]database.ChatMessage, error) {
	if limit < len(f.messages) {
		return f.messages[:limit], f.err
	}
	return f.messages, f.err
}

type fakeModel struct {
	text     string
	err      error
	calls    int
	messages []Message
	opts     CompletionOptions
}

func (m *fakeModel) Complete(_ context.Context, messages []Message, opts CompletionOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	return m.text, m.err
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		creators: map[string]*database.Creator{"c1": {ID: "c1", Name: "Mia", Niches: database.TagList{"fitness"}}},
		fans:     map[string]*database.Fan{"f1": {ID: "f1", Name: "Alex", LifetimeSpend: 120.5}},
		prompts:  map[string]*database.SystemPrompt{"p1": {ID: "p1", SystemPrompt: "You are {{creator_name}} talking to {{fan_name}}.\n{{chat logs}}"}},
	}
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.UTC)

func newTestEngine(store *fakeStore, model *fakeModel) *Engine {
	return NewEngine(NewFetcher(store, nil), model, nil, WithClock(func() time.Time { return fixedNow }))
}

func TestRecommendLabeledScenario(t *testing.T) {
	t.Parallel()

	model := &fakeModel{text: "Reply 1: Hey! Reply 2: Hi there! Reply 3: Hello friend!"}
	e := newTestEngine(newFakeStore(), model)

	got, err := e.Recommend(context.Background(), Request{CreatorID: "c1", FanID: "f1", SystemPromptID: "p1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	stamp := "1717243200123456789"
	want := []Recommendation{
		{ReplyID: "rec_1_" + stamp, Content: "Hey!", Confidence: 0.9, ChatType: "text"},
		{ReplyID: "rec_2_" + stamp, Content: "Hi there!", Confidence: 0.8, ChatType: "text"},
		{ReplyID: "rec_3_" + stamp, Content: "Hello friend!", Confidence: 0.7, ChatType: "text"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recommend() mismatch (-want +got):\n%s", diff)
	}
	if model.calls != 1 {
		t.Errorf("model called %d times, want 1", model.calls)
	}
	if model.opts != (CompletionOptions{Temperature: 0.8, MaxOutputTokens: 500}) {
		t.Errorf("options = %+v", model.opts)
	}
}

func TestRecommendBuildsMessages(t *testing.T) {
	t.Parallel()

	model := &fakeModel{text: "1. a\n2. b\n3. c"}
	e := newTestEngine(newFakeStore(), model)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []HistoryEntry{
		{Sender: "creator", Content: "glad you're here", CreatedAt: base.Add(time.Minute)},
		{Sender: "fan", Content: "", CreatedAt: base.Add(30 * time.Second)},
		{Sender: "fan", Content: "hi Mia", CreatedAt: base},
	}

	recs, err := e.Recommend(context.Background(), Request{
		CreatorID: "c1", FanID: "f1", SystemPromptID: "p1",
		ChatHistory: history, ChatType: "voice",
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, r := range recs {
		if r.ChatType != "voice" {
			t.Errorf("ChatType = %q, want voice", r.ChatType)
		}
	}

	if len(model.messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(model.messages))
	}
	system := model.messages[0]
	if system.Role != RoleSystem || !strings.HasPrefix(system.Content, "You are Mia talking to Alex.\n[user]: hi Mia\n[assistant]: glad you're here") {
		t.Errorf("system message = %+v", system)
	}
	if diff := cmp.Diff([]Message{
		{Role: RoleUser, Content: "hi Mia"},
		{Role: RoleAssistant, Content: "glad you're here"},
		{Role: RoleUser, Content: ReplyDirective},
	}, model.messages[1:]); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommendNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       Request
		entity    string
		message   string
		wantCalls []string
	}{
		{
			name:      "creator checked first",
			req:       Request{CreatorID: "nope", FanID: "nope", SystemPromptID: "nope"},
			entity:    EntityCreator,
			message:   "Creator not found",
			wantCalls: []string{"creator"},
		},
		{
			name:      "fan",
			req:       Request{CreatorID: "c1", FanID: "nope", SystemPromptID: "p1"},
			entity:    EntityFan,
			message:   "Fan not found",
			wantCalls: []string{"creator", "fan"},
		},
		{
			name:      "prompt",
			req:       Request{CreatorID: "c1", FanID: "f1", SystemPromptID: "nope"},
			entity:    EntitySystemPrompt,
			message:   "System prompt not found",
			wantCalls: []string{"creator", "fan", "prompt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			model := &fakeModel{text: "unused"}
			_, err := newTestEngine(store, model).Recommend(context.Background(), tt.req)

			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("Recommend() error = %v, want *NotFoundError", err)
			}
			if nf.Entity != tt.entity || err.Error() != tt.message {
				t.Errorf("NotFoundError = %+v (%q)", nf, err.Error())
			}
			if !errors.Is(err, ErrNotFound) {
				t.Error("errors.Is(err, ErrNotFound) = false")
			}
			if diff := cmp.Diff(tt.wantCalls, store.calls); diff != "" {
				t.Errorf("lookup order mismatch (-want +got):\n%s", diff)
			}
			if model.calls != 0 {
				t.Error("model should not be called when a record is missing")
			}
		})
	}
}

func TestRecommendErrors(t *testing.T) {
	t.Parallel()

	upstream := errors.New("rate limited")
	storeErr := errors.New("disk I/O error")

	tests := []struct {
		name    string
		store   func() *fakeStore
		model   *fakeModel
		req     *Request
		wantErr error
		wantMsg string
	}{
		{
			name:    "model failure",
			model:   &fakeModel{err: upstream},
			wantErr: ErrModelInvocation,
			wantMsg: "rate limited",
		},
		{
			name:    "empty model text",
			model:   &fakeModel{text: "   "},
			wantErr: ErrGenerationShortfall,
		},
		{
			name:    "missing id",
			model:   &fakeModel{},
			req:     &Request{FanID: "f1", SystemPromptID: "p1"},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "store failure",
			store: func() *fakeStore {
				s := newFakeStore()
				s.err = storeErr
				return s
			},
			model:   &fakeModel{},
			wantErr: storeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			if tt.store != nil {
				store = tt.store()
			}
			req := Request{CreatorID: "c1", FanID: "f1", SystemPromptID: "p1"}
			if tt.req != nil {
				req = *tt.req
			}

			recs, err := newTestEngine(store, tt.model).Recommend(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Recommend() error = %v, want %v", err, tt.wantErr)
			}
			if recs != nil {
				t.Errorf("Recommend() returned partial results: %v", recs)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention upstream %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRecommendShortfallFromStrategies(t *testing.T) {
	t.Parallel()

	never := []ParseStrategy{{Name: "never", Parse: func(string) ([]string, bool) { return nil, false }}}
	e := NewEngine(NewFetcher(newFakeStore(), nil), &fakeModel{text: "anything"}, nil, WithStrategies(never))

	_, err := e.Recommend(context.Background(), Request{CreatorID: "c1", FanID: "f1", SystemPromptID: "p1"})
	if !errors.Is(err, ErrGenerationShortfall) {
		t.Fatalf("Recommend() error = %v, want ErrGenerationShortfall", err)
	}
}

func TestFetcherRecentHistory(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore()
	for i := range 15 {
		store.messages = append(store.messages, database.ChatMessage{
			Sender:    database.SenderFan,
			Content:   "m",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}

	got, err := NewFetcher(store, nil).RecentHistory(context.Background(), "c1", "f1")
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(got) != RecentHistoryLimit {
		t.Fatalf("len = %d, want %d", len(got), RecentHistoryLimit)
	}
	if !got[0].CreatedAt.After(got[len(got)-1].CreatedAt) {
		t.Error("RecentHistory() should be newest first")
	}
	if got[0].Sender != "fan" || got[0].Content != "m" {
		t.Errorf("entry = %+v", got[0])
	}
}
