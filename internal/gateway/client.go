package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/taxonomy"
)

const maxErrorBody = 4 << 10

// Capabilities every created index must support.
var indexCapabilities = []string{"visual", "conversation"}

type client struct {
	http    *http.Client
	upload  *http.Client
	baseURL string
	apiKey  string
	engines []string
	options []string
	logger  *slog.Logger
}

// New creates an HTTP Gateway from a finalized Config.
func New(cfg *Config, logger *slog.Logger) Gateway {
	return &client{
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		upload:  &http.Client{Timeout: cfg.UploadTimeoutDuration()},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		engines: cfg.Engines,
		options: cfg.ClassifyOptions,
		logger:  logger.With("system", "gateway"),
	}
}

type engine struct {
	EngineName    string   `json:"engine_name"`
	EngineOptions []string `json:"engine_options"`
}

type createIndexRequest struct {
	IndexName string   `json:"index_name"`
	Engines   []engine `json:"engines"`
}

type idResponse struct {
	ID string `json:"_id"`
}

func (c *client) CreateIndex(ctx context.Context, namePrefix string) (string, error) {
	const op = "create index"

	body := createIndexRequest{
		IndexName: fmt.Sprintf("%s-%s", namePrefix, uuid.NewString()),
		Engines:   make([]engine, len(c.engines)),
	}
	for i, name := range c.engines {
		body.Engines[i] = engine{EngineName: name, EngineOptions: indexCapabilities}
	}

	var resp idResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/indexes", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", unavailable(op, http.StatusOK, "response missing index id")
	}

	c.logger.Info("index created", "index_id", resp.ID, "name", body.IndexName)
	return resp.ID, nil
}

func (c *client) SubmitIndexingTask(ctx context.Context, indexID string, video Upload) (string, error) {
	const op = "submit indexing task"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeTaskForm(mw, indexID, video))
	}()

	var resp idResponse
	if err := c.send(ctx, c.upload, op, http.MethodPost, "/tasks", pr, mw.FormDataContentType(), &resp); err != nil {
		pr.CloseWithError(err)
		return "", err
	}
	if resp.ID == "" {
		return "", unavailable(op, http.StatusOK, "response missing task id")
	}

	c.logger.Info("indexing task submitted", "index_id", indexID, "task_id", resp.ID, "filename", video.Filename)
	return resp.ID, nil
}

func writeTaskForm(mw *multipart.Writer, indexID string, video Upload) error {
	if err := mw.WriteField("index_id", indexID); err != nil {
		return err
	}

	contentType := video.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video_file"; filename=%q`, video.Filename))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video.Body); err != nil {
		return fmt.Errorf("stream video: %w", err)
	}
	return mw.Close()
}

type taskResponse struct {
	ID      string `json:"_id"`
	Status  string `json:"status"`
	VideoID string `json:"video_id"`
}

func (c *client) PollTask(ctx context.Context, taskID string) (TaskStatus, error) {
	const op = "poll task"

	var resp taskResponse
	if err := c.do(ctx, op, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, "", &resp); err != nil {
		return TaskStatus{}, err
	}

	status := TaskStatus{
		TaskID: taskID,
		Status: mapTaskStatus(resp.Status),
	}
	if status.Status == StatusReady {
		if resp.VideoID == "" {
			return TaskStatus{}, unavailable(op, http.StatusOK, "ready task missing video id")
		}
		status.VideoID = resp.VideoID
	}
	return status, nil
}

// mapTaskStatus normalizes provider task states. Unrecognized states are
// treated as in progress so the caller keeps polling until its deadline.
func mapTaskStatus(s string) Status {
	switch strings.ToLower(s) {
	case "pending", "validating", "queued":
		return StatusPending
	case "indexing", "processing":
		return StatusProcessing
	case "ready":
		return StatusReady
	case "failed":
		return StatusFailed
	default:
		return StatusProcessing
	}
}

type videoResponse struct {
	HLS *struct {
		VideoURL string `json:"video_url"`
	} `json:"hls"`
}

func (c *client) ResolvePlaybackURL(ctx context.Context, indexID, videoID string) (string, error) {
	path := fmt.Sprintf("/indexes/%s/videos/%s", url.PathEscape(indexID), url.PathEscape(videoID))

	var resp videoResponse
	err := c.do(ctx, "resolve playback url", http.MethodGet, path, nil, "", &resp)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Status == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}

	if resp.HLS == nil {
		return "", nil
	}
	return resp.HLS.VideoURL, nil
}

type classifyClass struct {
	Name    string   `json:"name"`
	Prompts []string `json:"prompts"`
}

type classifyRequest struct {
	IndexID      string          `json:"index_id"`
	Options      []string        `json:"options"`
	Classes      []classifyClass `json:"classes"`
	IncludeClips bool            `json:"include_clips"`
}

type classifyResponse struct {
	Data []VideoScores `json:"data"`
}

func (c *client) Classify(ctx context.Context, indexID string, classes []taxonomy.PolicyClass) ([]VideoScores, error) {
	const op = "classify"

	body := classifyRequest{
		IndexID:      indexID,
		Options:      c.options,
		Classes:      make([]classifyClass, len(classes)),
		IncludeClips: true,
	}
	for i, cls := range classes {
		body.Classes[i] = classifyClass{Name: cls.Name, Prompts: cls.Prompts}
	}

	var resp classifyResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/classify", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, rejected(op, http.StatusOK, "no videos found in the index")
	}
	return resp.Data, nil
}

type generateRequest struct {
	VideoID string `json:"video_id"`
	Prompt  string `json:"prompt"`
}

type generateResponse struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

func (c *client) GenerateAnalysis(ctx context.Context, videoID, prompt string) (string, error) {
	var resp generateResponse
	body := generateRequest{VideoID: videoID, Prompt: prompt}
	if err := c.doJSON(ctx, "generate analysis", http.MethodPost, "/generate", body, &resp); err != nil {
		return "", err
	}
	return resp.Data, nil
}

func (c *client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(data), "application/json", out)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	return c.send(ctx, c.http, op, method, path, body, contentType, out)
}

// send issues one provider request on hc. Streamed uploads use a client with
// their own timeout so large files are not cut off by the request timeout.
func (c *client) send(ctx context.Context, hc *http.Client, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return unavailable(op, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))

		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			msg = e.Message
		}

		c.logger.Warn("provider request failed", "op", op, "status", resp.StatusCode, "message", msg)
		return &ProviderError{Op: op, Status: resp.StatusCode, Message: msg, Kind: classify(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable(op, resp.StatusCode, "decode response: "+err.Error())
	}
	return nil
}
