package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), "sk-test-key")
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestCreateChatCompletion(t *testing.T) {
	var got ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test-key" {
			t.Fatalf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		io.WriteString(w, `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`)
	})

	temp := float32(0.2)
	resp, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:       "gpt-4o",
		Temperature: &temp,
		Messages:    []ChatMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if got.Model != "gpt-4o" || len(got.Messages) != 2 || got.Temperature == nil || *got.Temperature != temp {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestAPIErrorIsRedacted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided: sk-test-key.","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	_, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4o"})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}

	if !apiErr.IsAuth() || apiErr.Code != "invalid_api_key" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}

	if strings.Contains(err.Error(), "sk-test-key") {
		t.Fatalf("credential leaked into error: %v", err)
	}
}

func TestAPIErrorWithPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "slow down")
	})

	_, err := c.CreateThread(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.IsRateLimit() || apiErr.Message != "slow down" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListMessagesDecodesContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/t1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("order") != "desc" || r.URL.Query().Get("run_id") != "run1" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("OpenAI-Beta") != assistantsBeta {
			t.Fatalf("missing beta header")
		}
		io.WriteString(w, `{"data":[{"id":"m2","role":"assistant","run_id":"run1","content":[
			{"type":"text","text":{"value":"Scaled to 2000+ partners【4:0†cv.html】","annotations":[{"type":"file_citation","text":"【4:0†cv.html】","start_index":24,"end_index":36,"file_citation":{"file_id":"f1"}}]}},
			{"type":"image_file","image_file":{"file_id":"img"}}
		]}],"has_more":false}`)
	})

	list, err := c.ListMessages(context.Background(), "t1", ListMessagesParams{RunID: "run1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(list.Data) != 1 {
		t.Fatalf("expected 1 message, got %d", len(list.Data))
	}

	msg := list.Data[0]
	if msg.Role != "assistant" || len(msg.Content) != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}

	text := msg.Content[0]
	if text.Type != "text" || text.Text == nil || len(text.Text.Annotations) != 1 {
		t.Fatalf("unexpected text part: %+v", text)
	}

	if text.Text.Annotations[0].Text != "【4:0†cv.html】" {
		t.Fatalf("unexpected annotation: %+v", text.Text.Annotations[0])
	}

	if msg.Content[1].Type != "image_file" || msg.Content[1].Text != nil {
		t.Fatalf("unexpected image part: %+v", msg.Content[1])
	}
}

func TestRunIsTerminal(t *testing.T) {
	tests := map[string]bool{
		RunQueued:         false,
		RunInProgress:     false,
		RunCancelling:     false,
		RunCompleted:      true,
		RunFailed:         true,
		RunExpired:        true,
		RunRequiresAction: true,
		RunIncomplete:     true,
	}

	for status, want := range tests {
		if got := (&Run{Status: status}).IsTerminal(); got != want {
			t.Errorf("status %s: expected terminal=%v, got %v", status, want, got)
		}
	}
}

func TestUploadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.html")
	if err := os.WriteFile(path, []byte("<p>cv</p>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("purpose") != PurposeAssistants {
			t.Fatalf("unexpected purpose %q", r.FormValue("purpose"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "cv.html" || string(body) != "<p>cv</p>" {
			t.Fatalf("unexpected upload %s: %q", header.Filename, body)
		}
		io.WriteString(w, `{"id":"file-1","filename":"cv.html","purpose":"assistants"}`)
	})

	file, err := c.UploadFile(context.Background(), path, PurposeAssistants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if file.ID != "file-1" {
		t.Fatalf("unexpected file: %+v", file)
	}
}
