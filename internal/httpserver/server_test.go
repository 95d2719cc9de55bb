package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/chadiek/followup-call/internal/agent"
	"github.com/chadiek/followup-call/internal/store"
)

type stubResponder struct {
	reply string
}

func (s *stubResponder) Generate(ctx context.Context, prompt string) (string, error) {
	return s.reply, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customer_database.json")
	data := `[{
		"customer_id": "CUST001",
		"name": "Alice Johnson",
		"product(s)": ["Organic Apples"],
		"order_id": "ORD1001",
		"location": "New York, NY",
		"price": 35.5,
		"paid_status": "pending",
		"payment_method": "credit_card",
		"complain": "",
		"complain_id": "",
		"status": "shipped",
		"sentiment": "",
		"review": "",
		"conversation_history": []
	}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	orch := agent.New(st, "Smith", "RichDaddy Incorporation")
	orch.SetResponder(&stubResponder{reply: "Happy to help with that."})
	return New(orch)
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_CallLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Start
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/call/start", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var started startResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if started.CustomerID != "CUST001" || !strings.Contains(started.Greeting, "Alice Johnson") {
		t.Fatalf("unexpected start payload: %+v", started)
	}

	// Double start conflicts.
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/call/start", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("double start: expected 409, got %d", w.Code)
	}

	// State reflects the active call.
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/call/state", nil))
	var st stateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.State != "awaiting_input" || st.CustomerID != "CUST001" {
		t.Fatalf("unexpected state payload: %+v", st)
	}

	// Utterance
	body := strings.NewReader(`{"text":"my order is late"}`)
	r := httptest.NewRequest(http.MethodPost, "/call/utterance", body)
	r.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("utterance: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var turn utteranceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &turn); err != nil {
		t.Fatalf("decode utterance: %v", err)
	}
	if turn.Reply != "Happy to help with that." || turn.State != "awaiting_input" {
		t.Fatalf("unexpected utterance payload: %+v", turn)
	}

	// End returns the summary result.
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/call/end", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var result agent.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode end: %v", err)
	}
	if result.Customer != "Alice Johnson" || !result.DatabaseUpdated {
		t.Fatalf("unexpected end payload: %+v", result)
	}
}

func TestServer_UtteranceWithoutCall(t *testing.T) {
	srv := newTestServer(t)
	body := strings.NewReader(`{"text":"hello"}`)
	r := httptest.NewRequest(http.MethodPost, "/call/utterance", body)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestServer_UtteranceBadRequest(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/call/utterance", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestServer_EndWithoutCall(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/call/end", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestServer_Stream(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/call/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if frame.Type != "greeting" || !strings.Contains(frame.Text, "Alice Johnson") {
		t.Fatalf("unexpected greeting frame: %+v", frame)
	}

	if err := conn.WriteJSON(inboundFrame{Type: "utterance", Text: "my order is late"}); err != nil {
		t.Fatalf("write utterance: %v", err)
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if frame.Type != "reply" || frame.Text != "Happy to help with that." {
		t.Fatalf("unexpected reply frame: %+v", frame)
	}

	if err := conn.WriteJSON(inboundFrame{Type: "utterance", Text: "goodbye"}); err != nil {
		t.Fatalf("write goodbye: %v", err)
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read farewell: %v", err)
	}
	if frame.Type != "farewell" {
		t.Fatalf("expected farewell frame, got %+v", frame)
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if frame.Type != "summary" || frame.Data == nil {
		t.Fatalf("expected summary frame, got %+v", frame)
	}
}
