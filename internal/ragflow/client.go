// Package ragflow talks to the RAGFlow backend. Two integration profiles
// exist, mirroring two independently evolved deployments: ChatClient drives
// the session + completion API with a bearer API key, QueryClient drives the
// direct /query API with no authentication. Neither supersedes the other.
//
// Every call is synchronous, carries its own timeout, and is issued at most
// once; failures are classified but never retried.
package ragflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// ErrTimeout reports that the backend did not answer within the call's
// deadline. Routes translate it to 504 where the surface distinguishes it.
var ErrTimeout = errors.New("ragflow request timed out")

// TransportError wraps connection-level failures (refused, DNS, reset).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ragflow %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx backend response with its body preserved.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ragflow returned status %d", e.Code)
}

// Default per-call timeouts; exported on the clients so tests can shorten them.
const (
	DefaultSessionTimeout    = 10 * time.Second
	DefaultCompletionTimeout = 30 * time.Second
	DefaultQueryTimeout      = 30 * time.Second
	DefaultUploadTimeout     = 60 * time.Second
)

// sessionName is the fixed name given to sessions created on behalf of the app.
const sessionName = "Spine Imaging Query"

// ChatClient implements the session + completion profile.
type ChatClient struct {
	baseURL string
	apiKey  string
	chatID  string
	client  *http.Client

	SessionTimeout    time.Duration
	CompletionTimeout time.Duration
}

// NewChatClient returns a ChatClient for the given RAGFlow API base URL
// (e.g. "http://ragflow:9380/api/v1"), API key and assistant chat id.
func NewChatClient(baseURL, apiKey, chatID string) *ChatClient {
	return &ChatClient{
		baseURL:           strings.TrimRight(baseURL, "/"),
		apiKey:            apiKey,
		chatID:            chatID,
		client:            &http.Client{},
		SessionTimeout:    DefaultSessionTimeout,
		CompletionTimeout: DefaultCompletionTimeout,
	}
}

// Ask sends a question to the assistant. When sessionID is empty a new
// session is created first and its id used, so a single Ask issues at most
// two backend calls in order: session create, then completion.
func (c *ChatClient) Ask(ctx context.Context, question, sessionID string) (map[string]interface{}, error) {
	if sessionID == "" {
		id, err := c.createSession(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = id
	}

	payload := map[string]interface{}{
		"question":   question,
		"stream":     false,
		"session_id": sessionID,
	}
	url := fmt.Sprintf("%s/chats/%s/completions", c.baseURL, c.chatID)
	return c.postJSON(ctx, url, payload, c.CompletionTimeout)
}

// createSession creates a session for the configured assistant and returns
// the backend-assigned session id from data.id.
func (c *ChatClient) createSession(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/chats/%s/sessions", c.baseURL, c.chatID)
	body, err := c.postJSON(ctx, url, map[string]interface{}{"name": sessionName}, c.SessionTimeout)
	if err != nil {
		return "", err
	}
	data, _ := body["data"].(map[string]interface{})
	id, _ := data["id"].(string)
	return id, nil
}

func (c *ChatClient) postJSON(ctx context.Context, url string, payload interface{}, timeout time.Duration) (map[string]interface{}, error) {
	var headers http.Header
	if c.apiKey != "" {
		headers = http.Header{"Authorization": {"Bearer " + c.apiKey}}
	}
	raw, err := doJSON(ctx, c.client, url, payload, headers, timeout)
	if err != nil {
		return nil, err
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return body, nil
}

// QueryClient implements the direct query profile. It sends no auth header:
// the deployment it targets sits on a private network behind this proxy.
type QueryClient struct {
	baseURL string
	client  *http.Client

	QueryTimeout  time.Duration
	UploadTimeout time.Duration
}

// NewQueryClient returns a QueryClient for the given RAGFlow API base URL
// (e.g. "http://ragflow:80/api").
func NewQueryClient(baseURL string) *QueryClient {
	return &QueryClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{},
		QueryTimeout:  DefaultQueryTimeout,
		UploadTimeout: DefaultUploadTimeout,
	}
}

// QueryResponse is the subset of the backend's answer this proxy relays.
// Absent fields decode to their zero values, matching the relayed defaults.
type QueryResponse struct {
	Answer     string        `json:"answer"`
	Sources    []interface{} `json:"sources"`
	Confidence float64       `json:"confidence"`
}

// Query runs a retrieval query. kbID is optional; topK is the route-specific
// retrieval depth.
func (c *QueryClient) Query(ctx context.Context, query, kbID string, topK int) (*QueryResponse, error) {
	payload := map[string]interface{}{
		"query": query,
		"top_k": topK,
	}
	if kbID != "" {
		payload["knowledge_base_id"] = kbID
	}

	raw, err := doJSON(ctx, c.client, c.baseURL+"/query", payload, nil, c.QueryTimeout)
	if err != nil {
		return nil, err
	}
	var resp QueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return &resp, nil
}

// Forward relays a raw JSON body to the given backend path and returns the
// upstream status and body unchanged. Non-2xx statuses are returned to the
// caller for passthrough, not converted to errors.
func (c *QueryClient) Forward(ctx context.Context, path string, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.QueryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// ForwardMultipart streams a file to the given backend path as a multipart
// form with a single "file" field, preserving the original content type.
func (c *QueryClient) ForwardMultipart(ctx context.Context, path, filename, contentType string, file io.Reader) (int, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return 0, nil, &TransportError{Op: "build multipart", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return 0, nil, &TransportError{Op: "read file", Err: err}
	}
	if err := w.Close(); err != nil {
		return 0, nil, &TransportError{Op: "build multipart", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return 0, nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req)
}

func (c *QueryClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, classify(req.Method+" "+req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: "read response", Err: err}
	}
	return resp.StatusCode, body, nil
}

// doJSON posts a JSON payload and returns the raw response body on 2xx.
// Non-2xx responses become StatusError; connection failures are classified
// into ErrTimeout or TransportError.
func doJSON(ctx context.Context, client *http.Client, url string, payload interface{}, headers http.Header, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: "encode payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify("POST "+url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}
	return body, nil
}

// classify maps a transport failure to ErrTimeout or a TransportError.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return &TransportError{Op: op, Err: err}
}
