package verifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

func artifacts() []domain.FrameArtifact {
	at := time.UnixMilli(1700000000000)
	return []domain.FrameArtifact{
		{Challenge: "LEFT", Index: 0, CapturedAt: at, ContentType: domain.ContentTypeJPEG, Data: []byte("left-0")},
		{Challenge: "LEFT", Index: 1, CapturedAt: at.Add(400 * time.Millisecond), Data: []byte("left-1")},
		{Challenge: "RIGHT", Index: 0, CapturedAt: at.Add(800 * time.Millisecond), ContentType: domain.ContentTypeJPEG, Data: []byte("right-0")},
	}
}

func newClient(url string) *Client {
	config := DefaultConfig()
	config.BaseURL = url
	config.Timeout = 5 * time.Second
	return NewClient(config)
}

func TestClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/faces/liveness/user-42", r.URL.Path)

		reader, err := r.MultipartReader()
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var names, bodies []string
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if !assert.NoError(t, err) {
				break
			}
			assert.Equal(t, FilesField, part.FormName())
			assert.Equal(t, domain.ContentTypeJPEG, part.Header.Get("Content-Type"))
			data, _ := io.ReadAll(part)
			names = append(names, part.FileName())
			bodies = append(bodies, string(data))
		}

		assert.Equal(t, []string{
			"frame_LEFT_0_1700000000000.jpg",
			"frame_LEFT_1_1700000000400.jpg",
			"frame_RIGHT_0_1700000000800.jpg",
		}, names)
		assert.Equal(t, []string{"left-0", "left-1", "right-0"}, bodies)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"same_person_batch": true,
			"matching_ratio": 0.9,
			"average_similarity": 0.81,
			"processing_time": 1.25,
			"batch_message": "Mesma pessoa",
			"message": "ok"
		}`))
	}))
	defer server.Close()

	result, err := newClient(server.URL).Submit(context.Background(), "user-42", artifacts())

	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.True(t, result.Passed)
	assert.InDelta(t, 0.9, result.MatchingRatio, 1e-9)
	assert.InDelta(t, 0.81, result.AverageSimilarity, 1e-9)
	assert.InDelta(t, 1.25, result.ProcessingTime, 1e-9)
	assert.Equal(t, "Mesma pessoa", result.BatchMessage)
	assert.Equal(t, 3, result.FramesSubmitted)
}

func TestClient_SubmitErrorStatusInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"Nenhum rosto detectado nos frames"}`))
	}))
	defer server.Close()

	result, err := newClient(server.URL).Submit(context.Background(), "user-1", artifacts())

	require.NoError(t, err)
	assert.Equal(t, "error", result.Status)
	assert.False(t, result.Passed)
}

func TestClient_SubmitFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`},
		{"not found", http.StatusNotFound, `{"detail":"user not found"}`},
		{"invalid json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := newClient(server.URL).Submit(context.Background(), "user-1", artifacts())

			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
			assert.Equal(t, int32(1), calls.Load(), "submission is never retried")
		})
	}
}

func TestClient_SubmitTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newClient(url).Submit(context.Background(), "user-1", artifacts())

	assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
}

func TestClient_SubmitValidation(t *testing.T) {
	client := newClient("http://127.0.0.1:1")

	_, err := client.Submit(context.Background(), "", artifacts())
	assert.ErrorIs(t, err, domain.ErrUserIDRequired)

	_, err = client.Submit(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestClient_SubmitCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(server.URL).Submit(ctx, "user-1", artifacts())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
