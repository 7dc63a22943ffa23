package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/abhishekrajdhar/ai-pashu/internal/config"
	modelchat "github.com/abhishekrajdhar/ai-pashu/internal/model/chat"
	"github.com/abhishekrajdhar/ai-pashu/internal/service/ai"
	chatservice "github.com/abhishekrajdhar/ai-pashu/internal/service/chat"
)

type fakeChatModel struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if len(in) > 0 {
		f.lastPrompt = in[len(in)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if len(in) > 0 {
		f.lastPrompt = in[len(in)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func setupRouter(t *testing.T, fake *fakeChatModel) (*chi.Mux, *chatservice.Service) {
	t.Helper()

	chatSvc := chatservice.NewService()

	var aiSvc *ai.Service
	if fake != nil {
		var err error
		aiSvc, err = ai.NewService(context.Background(), fake, config.AIConfig{})
		if err != nil {
			t.Fatalf("NewService err: %v", err)
		}
	}

	handler := New(chatSvc, aiSvc)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func postQuery(t *testing.T, r *chi.Mux, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/farmer-assistant", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)
	return resp
}

func decodeResponse(t *testing.T, resp *httptest.ResponseRecorder) queryResponse {
	t.Helper()

	var out queryResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestQueryMalformedBody(t *testing.T) {
	r, _ := setupRouter(t, &fakeChatModel{reply: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/farmer-assistant", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestQuerySplitsAnswerContext(t *testing.T) {
	fake := &fakeChatModel{reply: "Answer: Give oral rehydration salts.\nContext: Diarrhoea dehydrates calves quickly."}
	r, _ := setupRouter(t, fake)

	resp := postQuery(t, r, map[string]string{"query": "My calf has diarrhoea", "session_id": "s1"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	out := decodeResponse(t, resp)
	if out.Answer != "Give oral rehydration salts." {
		t.Fatalf("unexpected answer: %q", out.Answer)
	}
	if out.Context != "Diarrhoea dehydrates calves quickly." {
		t.Fatalf("unexpected context: %q", out.Context)
	}
	if out.Note != adviceNote {
		t.Fatalf("unexpected note: %q", out.Note)
	}
}

func TestQueryProviderFailureReturnsFallbackWith200(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("provider unavailable")}
	r, chatSvc := setupRouter(t, fake)

	resp := postQuery(t, r, map[string]string{"query": "any", "session_id": "s1"})

	if resp.Code != http.StatusOK {
		t.Fatalf("provider failures must not surface as HTTP errors, got %d", resp.Code)
	}

	out := decodeResponse(t, resp)
	if out.Answer != "Sorry, I am unable to answer your query right now." {
		t.Fatalf("unexpected fallback answer: %q", out.Answer)
	}
	if out.Context != "Try again later or consult a nearby veterinary expert." {
		t.Fatalf("unexpected fallback context: %q", out.Context)
	}

	// The fallback exchange is still recorded.
	history := chatSvc.History(context.Background(), "s1")
	if len(history) != 1 {
		t.Fatalf("expected fallback exchange to be appended, got %d", len(history))
	}
	if history[0].Answer != out.Answer {
		t.Fatalf("recorded answer mismatch: %q", history[0].Answer)
	}
}

func TestQueryNilAIServiceReturnsFallback(t *testing.T) {
	r, _ := setupRouter(t, nil)

	resp := postQuery(t, r, map[string]string{"query": "any"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := decodeResponse(t, resp)
	if out.Answer != "Sorry, I am unable to answer your query right now." {
		t.Fatalf("unexpected answer: %q", out.Answer)
	}
}

func TestQueryDefaultsSessionID(t *testing.T) {
	fake := &fakeChatModel{reply: "plain reply"}
	r, chatSvc := setupRouter(t, fake)

	postQuery(t, r, map[string]string{"query": "no session id here"})

	history := chatSvc.History(context.Background(), DefaultSessionID)
	if len(history) != 1 {
		t.Fatalf("expected exchange under default session, got %d", len(history))
	}
}

func TestQuerySessionContinuity(t *testing.T) {
	fake := &fakeChatModel{reply: "Answer: Use neem-based spray.\nContext: It is safe for livestock."}
	r, _ := setupRouter(t, fake)

	postQuery(t, r, map[string]string{"query": "How to control ticks?", "session_id": "s1"})
	postQuery(t, r, map[string]string{"query": "How often to apply?", "session_id": "s1"})

	if !strings.Contains(fake.lastPrompt, "Previous conversation:") {
		t.Fatalf("second prompt missing transcript block:\n%s", fake.lastPrompt)
	}
	if !strings.Contains(fake.lastPrompt, "Farmer: How to control ticks?\nAI: Use neem-based spray.") {
		t.Fatalf("second prompt missing prior exchange:\n%s", fake.lastPrompt)
	}
}

func TestNoteIdenticalAcrossResponses(t *testing.T) {
	okFake := &fakeChatModel{reply: "fine"}
	failFake := &fakeChatModel{err: errors.New("boom")}

	okRouter, _ := setupRouter(t, okFake)
	failRouter, _ := setupRouter(t, failFake)

	okOut := decodeResponse(t, postQuery(t, okRouter, map[string]string{"query": "a"}))
	failOut := decodeResponse(t, postQuery(t, failRouter, map[string]string{"query": "b"}))

	if okOut.Note == "" || okOut.Note != failOut.Note {
		t.Fatalf("note must be fixed across responses: %q vs %q", okOut.Note, failOut.Note)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	fake := &fakeChatModel{reply: "recorded"}
	r, _ := setupRouter(t, fake)

	postQuery(t, r, map[string]string{"query": "remember this", "session_id": "s9"})

	req := httptest.NewRequest(http.MethodGet, "/farmer-assistant/history/s9", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var exchanges []modelchat.Exchange
	if err := json.Unmarshal(resp.Body.Bytes(), &exchanges); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(exchanges) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(exchanges))
	}
	if exchanges[0].Query != "remember this" {
		t.Fatalf("unexpected query: %q", exchanges[0].Query)
	}
}
