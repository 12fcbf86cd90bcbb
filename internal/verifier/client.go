// Package verifier submits captured frames to the face verification service.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// FilesField is the multipart field every frame is attached under
const FilesField = "files"

var (
	ErrNoFrames        = errors.New("no frames to submit")
	ErrInvalidResponse = errors.New("invalid response from verification service")
)

// Config holds the configuration for the verification client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 60 * time.Second,
	}
}

// Client posts liveness captures to POST /faces/liveness/{user_id}
type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Submit sends every artifact, in order, in a single request. It is never
// retried: a transport error or non-2xx answer is ErrSubmissionFailed.
func (c *Client) Submit(ctx context.Context, userID string, artifacts []domain.FrameArtifact) (*domain.VerificationResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUserIDRequired
	}
	if len(artifacts) == 0 {
		return nil, domain.ErrSubmissionFailed.WithError(ErrNoFrames)
	}

	body, contentType, err := encodeFrames(artifacts)
	if err != nil {
		return nil, domain.ErrSubmissionFailed.WithError(err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/faces/liveness/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, domain.ErrSubmissionFailed.WithError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.ErrSubmissionFailed.WithError(fmt.Errorf("do request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrSubmissionFailed.WithError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.ErrSubmissionFailed.WithError(
			fmt.Errorf("verification service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	var result domain.VerificationResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, domain.ErrSubmissionFailed.WithError(fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	result.FramesSubmitted = len(artifacts)

	return &result, nil
}

func encodeFrames(artifacts []domain.FrameArtifact) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, artifact := range artifacts {
		contentType := artifact.ContentType
		if contentType == "" {
			contentType = domain.ContentTypeJPEG
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, FilesField, artifact.Filename()))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part: %w", err)
		}
		if _, err := part.Write(artifact.Data); err != nil {
			return nil, "", fmt.Errorf("write part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
