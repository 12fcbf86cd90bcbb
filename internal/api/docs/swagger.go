package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// StartSessionRequest is the body of the start endpoint
type StartSessionRequest struct {
	UserID string `json:"user_id" example:"user-123"`
}

// VerificationResult is the decoded verification service response
type VerificationResult struct {
	Status            string  `json:"status" example:"success"`
	Passed            bool    `json:"same_person_batch" example:"true"`
	MatchingRatio     float64 `json:"matching_ratio" example:"0.9"`
	AverageSimilarity float64 `json:"average_similarity" example:"0.82"`
	ProcessingTime    float64 `json:"processing_time" example:"1.4"`
	BatchMessage      string  `json:"batch_message,omitempty" example:"18 of 20 frames matched"`
	Message           string  `json:"message,omitempty" example:""`
	FramesSubmitted   int     `json:"frames_submitted" example:"20"`
}

// SessionUpdate is one state of the liveness session
type SessionUpdate struct {
	SessionID       string              `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID          string              `json:"user_id,omitempty" example:"user-123"`
	Status          string              `json:"status" example:"capturing"`
	Present         bool                `json:"present" example:"true"`
	Centered        bool                `json:"centered" example:"true"`
	Challenge       string              `json:"challenge,omitempty" example:"LEFT"`
	ChallengeStep   int                 `json:"challenge_step" example:"1"`
	ChallengeCount  int                 `json:"challenge_count" example:"2"`
	SampleProgress  int                 `json:"sample_progress" example:"4"`
	SamplesRequired int                 `json:"samples_required" example:"10"`
	Captured        int                 `json:"captured" example:"4"`
	Hint            string              `json:"hint,omitempty" example:"move"`
	Result          *VerificationResult `json:"result,omitempty"`
	Error           string              `json:"error,omitempty" example:""`
	Timestamp       string              `json:"timestamp" example:"2026-01-01T00:00:00Z"`
}

// StreamEvent is one message on the WebSocket stream
type StreamEvent struct {
	Type      string        `json:"type" example:"liveness.update"`
	Data      SessionUpdate `json:"data"`
	Timestamp string        `json:"timestamp" example:"2026-01-01T00:00:00Z"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"USER_ID_REQUIRED"`
	Message string `json:"message" example:"A user id is required before the camera can start"`
}

// HealthResponse is returned by the health and readiness probes
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Version string            `json:"version,omitempty" example:"0.1.0"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Vivo Liveness Capture API",
		Version:     "v1.0.0",
		Description: "Drives an interactive liveness capture on the local camera and submits the challenge frames to the verification service",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/liveness/sessions - Start session
		endpoint.New(
			endpoint.POST,
			"/liveness/sessions",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Start a liveness session"),
			endpoint.WithDescription("Acquires the camera for user_id and waits for a centered face before the challenge sequence begins. Progress is streamed on /v1/ws."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(StartSessionRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionUpdate{}, "202", "Session started"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "SESSION_ACTIVE", Message: "A liveness session is already using the camera"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "USER_ID_REQUIRED", Message: "A user id is required before the camera can start"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "CAMERA_UNAVAILABLE", Message: "Camera permission denied or device unavailable"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "DETECTOR_UNAVAILABLE", Message: "No face detection backend could be initialised"}, "503", "Service Unavailable"),
			}),
		),

		// GET /v1/liveness/sessions/current - Current state
		endpoint.New(
			endpoint.GET,
			"/liveness/sessions/current",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Get the current session state"),
			endpoint.WithDescription("Returns the latest state of the current or most recent session, idle when none has run"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionUpdate{}, "200", "Current state"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			}),
		),

		// DELETE /v1/liveness/sessions/current - Stop session
		endpoint.New(
			endpoint.DELETE,
			"/liveness/sessions/current",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Stop the current session"),
			endpoint.WithDescription("Aborts the session from any state, discards captured frames and releases the camera. Idempotent."),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session stopped"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			}),
		),

		// GET /v1/ws - State stream
		endpoint.New(
			endpoint.GET,
			"/ws",
			endpoint.WithTags("Stream"),
			endpoint.WithSummary("Stream session state over WebSocket"),
			endpoint.WithDescription("Upgrades to a WebSocket that receives the current state on connect, then a liveness.update event for every change and a liveness.result event for each terminal outcome"),
			endpoint.WithParams(
				parameter.StrParam("user_id", parameter.Query, parameter.WithDescription("Only receive events for this user")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StreamEvent{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
