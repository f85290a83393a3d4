// Package backend talks to the remote generation service.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/csheth/papergen/internal/docs"
	"github.com/csheth/papergen/internal/session"
)

const (
	defaultTimeout  = 3 * time.Minute
	uploadPath      = "/upload"
	maxResponseSize = 16 << 20
)

var (
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("backend returned an error status")
	// ErrMalformed wraps bodies that are not JSON or lack a string "result".
	ErrMalformed = errors.New("backend returned a malformed response")
)

// Config describes how to reach the service.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client runs one generation or chat submission and returns the result text.
type Client interface {
	Generate(ctx context.Context, sub session.Submission) (string, error)
	Endpoint() string
}

type httpClient struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// New builds a Client. A base URL without a scheme is assumed to be https.
func New(cfg Config) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend base URL is empty")
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpClient{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
		logger: logger.Named("backend"),
	}, nil
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c *httpClient) Endpoint() string {
	return c.base + uploadPath
}

func (c *httpClient) Generate(ctx context.Context, sub session.Submission) (string, error) {
	body, contentType, err := encodeForm(sub)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("upload request failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	c.logger.Debug("upload response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
		zap.Int("bytes", len(raw)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s (%s)", ErrStatus, resp.Status, snippet(raw))
	}
	return decodeResult(raw)
}

func decodeResult(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("%w: invalid JSON (%s)", ErrMalformed, snippet(raw))
	}
	result := gjson.GetBytes(raw, "result")
	if result.Type != gjson.String {
		return "", fmt.Errorf("%w: missing result field", ErrMalformed)
	}
	return result.String(), nil
}

func encodeForm(sub session.Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for _, file := range sub.Files {
		if err := writeFile(form, file); err != nil {
			return nil, "", err
		}
	}
	fields := []struct {
		name  string
		value string
	}{
		{"mode", sub.Params.Mode.WireValue()},
		{"option", string(sub.Params.Difficulty)},
		{"language", string(sub.Params.Language)},
		{"custom_prompt", sub.Params.CustomInstructions},
	}
	for _, field := range fields {
		if err := form.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(form *multipart.Writer, file docs.SourceFile) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	contentType := file.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

func snippet(raw []byte) string {
	const limit = 200
	runes := []rune(strings.TrimSpace(string(raw)))
	if len(runes) > limit {
		return string(runes[:limit]) + "…"
	}
	return string(runes)
}
