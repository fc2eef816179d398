package gradio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// HTTPDoer describes the HTTP client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gradio: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ErrPredictionFailed is returned when the event stream reports an error event.
var ErrPredictionFailed = errors.New("gradio prediction failed")

// FileRef references a file previously uploaded to the Space.
type FileRef struct {
	Path string            `json:"path"`
	Meta map[string]string `json:"meta"`
}

func newFileRef(serverPath string) FileRef {
	return FileRef{Path: serverPath, Meta: map[string]string{"_type": "gradio.FileData"}}
}

// Client is a minimal Gradio API client.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithToken sets a bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient constructs a client for the Space at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the Space URL the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Upload sends a local file to the Space and returns a reference usable as a
// prediction argument.
func (c *Client) Upload(ctx context.Context, filePath string) (FileRef, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return FileRef{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filepath.Base(filePath))
	if err != nil {
		return FileRef{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return FileRef{}, fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return FileRef{}, fmt.Errorf("finish upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/gradio_api/upload", &body)
	if err != nil {
		return FileRef{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var paths []string
	if err := c.doJSON(req, &paths); err != nil {
		return FileRef{}, fmt.Errorf("upload %s: %w", filepath.Base(filePath), err)
	}
	if len(paths) == 0 || strings.TrimSpace(paths[0]) == "" {
		return FileRef{}, fmt.Errorf("upload %s: empty response", filepath.Base(filePath))
	}
	return newFileRef(paths[0]), nil
}

// Predict runs the named endpoint with args and returns the output values.
func (c *Client) Predict(ctx context.Context, apiName string, args ...any) ([]json.RawMessage, error) {
	endpoint := strings.Trim(strings.TrimSpace(apiName), "/")
	if endpoint == "" {
		return nil, errors.New("gradio: api name required")
	}
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(map[string]any{"data": args})
	if err != nil {
		return nil, fmt.Errorf("encode %s arguments: %w", endpoint, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/gradio_api/call/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var queued struct {
		EventID string `json:"event_id"`
	}
	if err := c.doJSON(req, &queued); err != nil {
		return nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	if queued.EventID == "" {
		return nil, fmt.Errorf("call %s: missing event id", endpoint)
	}

	req, err = c.newRequest(ctx, http.MethodGet, "/gradio_api/call/"+endpoint+"/"+queued.EventID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("stream %s: %w", endpoint, err)
	}
	data, err := readResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", endpoint, err)
	}
	return data, nil
}

// readResult consumes an event stream until the terminal event.
func readResult(r io.Reader) ([]json.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if done, out, err := finishEvent(event, data.String()); done {
				return out, err
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if done, out, err := finishEvent(event, data.String()); done {
		return out, err
	}
	return nil, errors.New("event stream ended without result")
}

func finishEvent(event, data string) (bool, []json.RawMessage, error) {
	switch event {
	case "complete":
		var out []json.RawMessage
		if err := json.Unmarshal([]byte(data), &out); err != nil {
			return true, nil, fmt.Errorf("decode result: %w", err)
		}
		return true, out, nil
	case "error":
		if data == "" || data == "null" {
			return true, nil, ErrPredictionFailed
		}
		return true, nil, fmt.Errorf("%w: %s", ErrPredictionFailed, data)
	default:
		return false, nil, nil
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("gradio: base url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build gradio request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}
