package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"aivideo/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("runway: api key is required")

// Options configures the Runway client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Version        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Runway developer API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	version    string
	httpClient *http.Client
	logger     *infra.Logger
}

// TaskRequest captures the inputs of a text to video task.
type TaskRequest struct {
	Prompt      string
	Duration    int
	AspectRatio string
}

// Task is the decoded body of GET /tasks/{id}. Raw keeps the full document so
// URL extraction can look at every shape the API has used.
type Task struct {
	ID       string
	Status   string
	Progress float64
	Failure  string
	Raw      map[string]any
}

// Account is the subset of GET /me the service reports.
type Account struct {
	Credits float64        `json:"credits"`
	Raw     map[string]any `json:"-"`
}

type createTaskRequest struct {
	Model           string `json:"model"`
	PromptText      string `json:"promptText"`
	DurationSeconds int    `json:"durationSeconds"`
	Ratio           string `json:"ratio"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Runway takes pixel ratios rather than aspect labels.
var ratios = map[string]string{
	"16:9": "1280:720",
	"9:16": "720:1280",
	"1:1":  "960:960",
}

// SupportedAspectRatio reports whether ratio can be sent to Runway.
func SupportedAspectRatio(ratio string) bool {
	_, ok := ratios[ratio]
	return ok
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.dev.runwayml.com/v1"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("runway: invalid base url: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gen4_turbo"
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "2024-11-06"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		version:    version,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// CreateTask submits a generation task and returns the remote task id.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("runway: prompt is required")
	}
	ratio, ok := ratios[req.AspectRatio]
	if !ok {
		ratio = ratios["16:9"]
	}
	payload := createTaskRequest{
		Model:           c.model,
		PromptText:      prompt,
		DurationSeconds: req.Duration,
		Ratio:           ratio,
	}
	raw, err := c.do(ctx, http.MethodPost, "/tasks", payload)
	if err != nil {
		return "", err
	}
	var decoded createTaskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("runway: decode task: %w", err)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return "", errors.New("runway: empty task id")
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("task_id", decoded.ID).
		Msg("runway: task created")
	return decoded.ID, nil
}

// GetTask fetches the current state of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	raw, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("runway: decode task: %w", err)
	}
	task := &Task{ID: taskID, Raw: doc}
	if v, ok := doc["id"].(string); ok && v != "" {
		task.ID = v
	}
	if v, ok := doc["status"].(string); ok {
		task.Status = v
	}
	if v, ok := doc["progress"].(float64); ok {
		task.Progress = v
	}
	task.Failure = failureMessage(doc)
	return task, nil
}

// Me returns account information, including the remaining credits.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	raw, err := c.do(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return nil, err
	}
	var account Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("runway: decode account: %w", err)
	}
	_ = json.Unmarshal(raw, &account.Raw)
	return &account, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("runway: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("runway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-Runway-Version", c.version)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("runway: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("runway: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			if msg := firstNonEmpty(detail.Error, detail.Message); msg != "" {
				return nil, &StatusError{Code: resp.StatusCode, Message: msg}
			}
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("runway: status %d: %s", e.Code, e.Message)
}

func failureMessage(doc map[string]any) string {
	for _, key := range []string{"failure", "error", "message"} {
		if v, ok := doc[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
