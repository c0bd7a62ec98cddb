package ragflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChatClient_AskCreatesSessionWhenMissing(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer header, got %q", r.Header.Get("Authorization"))
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/sessions"):
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if body["name"] != "Spine Imaging Query" {
				t.Errorf("unexpected session name %v", body["name"])
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"id": "sess-1"},
			})
		case strings.HasSuffix(r.URL.Path, "/completions"):
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if body["session_id"] != "sess-1" {
				t.Errorf("expected session_id sess-1, got %v", body["session_id"])
			}
			if body["stream"] != false {
				t.Errorf("expected stream false, got %v", body["stream"])
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{"answer": "A"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "test-key", "chat-1")
	result, err := c.Ask(context.Background(), "What is stenosis?", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected response body")
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 backend calls, got %d: %v", len(calls), calls)
	}
	if calls[0] != "/chats/chat-1/sessions" || calls[1] != "/chats/chat-1/completions" {
		t.Errorf("calls out of order: %v", calls)
	}
}

func TestChatClient_AskReusesSession(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "k", "chat-1")
	if _, err := c.Ask(context.Background(), "q", "existing-session"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0] != "/chats/chat-1/completions" {
		t.Errorf("expected single completion call, got %v", calls)
	}
}

func TestChatClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "k", "chat-1")
	c.CompletionTimeout = 20 * time.Millisecond
	_, err := c.Ask(context.Background(), "q", "sess")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestChatClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "k", "chat-1")
	_, err := c.Ask(context.Background(), "q", "sess")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", se.Code)
	}
}

func TestChatClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewChatClient(srv.URL, "k", "chat-1")
	_, err := c.Ask(context.Background(), "q", "sess")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("expected TransportError, got %v", err)
	}
}

func TestQueryClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("query profile must not send an auth header")
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["top_k"] != float64(5) {
			t.Errorf("expected top_k 5, got %v", body["top_k"])
		}
		if body["knowledge_base_id"] != "kb-1" {
			t.Errorf("expected kb id, got %v", body["knowledge_base_id"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer":     "A",
			"sources":    []string{"s1"},
			"confidence": 0.9,
		})
	}))
	defer srv.Close()

	c := NewQueryClient(srv.URL)
	resp, err := c.Query(context.Background(), "treatment for stenosis", "kb-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "A" || resp.Confidence != 0.9 || len(resp.Sources) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestQueryClient_QueryOmitsEmptyKB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, present := body["knowledge_base_id"]; present {
			t.Error("empty kb id should be omitted from payload")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"answer": ""})
	}))
	defer srv.Close()

	if _, err := NewQueryClient(srv.URL).Query(context.Background(), "q", "", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryClient_QueryStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewQueryClient(srv.URL).Query(context.Background(), "q", "", 5)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 StatusError, got %v", err)
	}
}

func TestQueryClient_ForwardPassesThroughStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/knowledge_base" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"spine-kb"}` {
			t.Errorf("body not forwarded verbatim: %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"kb-9"}`))
	}))
	defer srv.Close()

	status, body, err := NewQueryClient(srv.URL).Forward(context.Background(), "/knowledge_base", []byte(`{"name":"spine-kb"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("expected 201 passthrough, got %d", status)
	}
	if string(body) != `{"id":"kb-9"}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestQueryClient_ForwardMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file field missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "guidelines.pdf" {
			t.Errorf("unexpected filename %s", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("content type not preserved: %s", ct)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "pdf-bytes" {
			t.Errorf("content not forwarded: %s", content)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	status, _, err := NewQueryClient(srv.URL).ForwardMultipart(
		context.Background(), "/knowledge_base/kb-1/documents",
		"guidelines.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
}

func TestQueryClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewQueryClient(srv.URL)
	c.QueryTimeout = 20 * time.Millisecond
	if _, err := c.Query(context.Background(), "q", "", 5); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}
