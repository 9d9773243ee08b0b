package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	lastReq   *http.Request
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if stub, ok := c.responses[req.Method+" "+req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(method, path string, status int, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[method+" "+path] = responseStub{
		status: status,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		cloned := make([]string, len(values))
		copy(cloned, values)
		header[k] = cloned
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}

func newTestClient(t *testing.T, transport *captureTransport) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "key_test",
		BaseURL:    "https://runway.test/v1",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreateTaskPayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(http.MethodPost, "/v1/tasks", http.StatusOK, map[string]any{"id": "task-123"})
	client := newTestClient(t, transport)

	id, err := client.CreateTask(context.Background(), TaskRequest{Prompt: " ocean at dawn ", Duration: 5, AspectRatio: "9:16"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if id != "task-123" {
		t.Fatalf("id = %q, want task-123", id)
	}

	if got := transport.lastReq.Header.Get("Authorization"); got != "Bearer key_test" {
		t.Fatalf("authorization = %q", got)
	}
	if got := transport.lastReq.Header.Get("X-Runway-Version"); got != "2024-11-06" {
		t.Fatalf("version header = %q", got)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["model"] != "gen4_turbo" {
		t.Fatalf("model = %v", payload["model"])
	}
	if payload["promptText"] != "ocean at dawn" {
		t.Fatalf("promptText = %v", payload["promptText"])
	}
	if payload["durationSeconds"] != float64(5) {
		t.Fatalf("durationSeconds = %v", payload["durationSeconds"])
	}
	if payload["ratio"] != "720:1280" {
		t.Fatalf("ratio = %v", payload["ratio"])
	}
}

func TestCreateTaskErrorBody(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(http.MethodPost, "/v1/tasks", http.StatusBadRequest, map[string]any{"error": "not enough credits"})
	client := newTestClient(t, transport)

	_, err := client.CreateTask(context.Background(), TaskRequest{Prompt: "p", Duration: 10})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadRequest || statusErr.Message != "not enough credits" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestCreateTaskWithoutKey(t *testing.T) {
	client, _ := NewClient(Options{})
	if _, err := client.CreateTask(context.Background(), TaskRequest{Prompt: "p"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGetTaskDecodesDocument(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(http.MethodGet, "/v1/tasks/task-1", http.StatusOK, map[string]any{
		"id":       "task-1",
		"status":   "RUNNING",
		"progress": 0.42,
	})
	client := newTestClient(t, transport)

	task, err := client.GetTask(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != "RUNNING" || task.Progress != 0.42 || task.Raw == nil {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestGetTaskFailureReason(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(http.MethodGet, "/v1/tasks/task-2", http.StatusOK, map[string]any{
		"status":  "FAILED",
		"failure": "content moderation",
	})
	client := newTestClient(t, transport)

	task, err := client.GetTask(context.Background(), "task-2")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Failure != "content moderation" {
		t.Fatalf("failure = %q", task.Failure)
	}
}

func TestMeReturnsCredits(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse(http.MethodGet, "/v1/me", http.StatusOK, map[string]any{"credits": 1250})
	client := newTestClient(t, transport)

	account, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if account.Credits != 1250 || account.Raw["credits"] != float64(1250) {
		t.Fatalf("unexpected account: %+v", account)
	}
}
