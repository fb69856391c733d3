package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/model"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/errs"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/requestid"
)

const (
	fieldResume         = "resume"
	fieldJobDescription = "job_description"
	userAgent           = "RecruiterFirst/1.0"

	// maxResponseBody caps how much of a response is read.
	maxResponseBody = 10 << 20
)

// Analyzer scores a resume against a job description.
type Analyzer interface {
	Analyze(ctx context.Context, file *File, jobDescription string) (*model.MatchResult, error)
}

// Client implements Analyzer against the remote scoring service.
type Client struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient returns a Client posting to endpoint. A zero timeout leaves the
// request bounded only by the caller's context.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger,
	}
}

// Analyze validates the input, uploads it, and decodes the match result.
// Every failure is an *errs.AnalysisError: validation errors carry status 400
// and are returned before any request is made, server errors carry the
// response status, transport errors carry status 0 and the underlying cause.
func (c *Client) Analyze(ctx context.Context, file *File, jobDescription string) (*model.MatchResult, error) {
	result, err := c.analyze(ctx, file, jobDescription)
	if err != nil {
		ae := errs.Wrap(err)
		c.logger.Warn("resume analysis failed",
			"kind", ae.Kind.String(),
			"status", ae.StatusCode,
			"error", err,
			"request_id", requestid.FromContext(ctx),
		)
		return nil, ae
	}

	c.logger.Info("resume analysis complete",
		"file", file.Name,
		"match_score", int(result.MatchScore),
		"request_id", requestid.FromContext(ctx),
	)
	return result, nil
}

func (c *Client) analyze(ctx context.Context, file *File, jobDescription string) (*model.MatchResult, error) {
	if err := Validate(file, jobDescription); err != nil {
		return nil, err
	}

	body, contentType, err := encodeForm(file, strings.TrimSpace(jobDescription))
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	requestid.Propagate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.FromServer(resp.StatusCode, parseDetail(data))
	}

	var result model.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode match result: %w", err)
	}
	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the multipart body. The file part keeps its declared
// content type instead of the application/octet-stream CreateFormFile uses.
func encodeForm(file *File, jobDescription string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		fieldResume, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", file.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("encode resume part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("encode resume part: %w", err)
	}
	if err := w.WriteField(fieldJobDescription, jobDescription); err != nil {
		return nil, "", fmt.Errorf("encode job description: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// parseDetail extracts the human-readable message from an error body. It
// understands {"detail": "..."} and the list form FastAPI uses for request
// validation failures. Anything else yields "".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
