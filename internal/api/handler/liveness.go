package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// LivenessService is the session lifecycle the handler drives
type LivenessService interface {
	Start(ctx context.Context, userID string) (*domain.Update, error)
	Stop()
	Current() domain.Update
}

// LivenessHandler handles liveness session requests
type LivenessHandler struct {
	service LivenessService
	logger  *slog.Logger
}

func NewLivenessHandler(service LivenessService, logger *slog.Logger) *LivenessHandler {
	return &LivenessHandler{
		service: service,
		logger:  logger,
	}
}

// StartRequest body for the start endpoint
type StartRequest struct {
	UserID string `json:"user_id"`
}

// Start POST /v1/liveness/sessions - acquire the camera for a user
func (h *LivenessHandler) Start(c *fiber.Ctx) error {
	var req StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.ErrBadRequest.WithError(errors.New("invalid JSON body"))
		}
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.ErrUserIDRequired
	}

	update, err := h.service.Start(c.UserContext(), userID)
	if err != nil {
		return err
	}

	h.logger.Info("liveness session started",
		"session_id", update.SessionID,
		"user_id", userID,
	)

	return c.Status(fiber.StatusAccepted).JSON(update)
}

// Current GET /v1/liveness/sessions/current - latest session state
func (h *LivenessHandler) Current(c *fiber.Ctx) error {
	return c.JSON(h.service.Current())
}

// Stop DELETE /v1/liveness/sessions/current - abort and release the camera
func (h *LivenessHandler) Stop(c *fiber.Ctx) error {
	h.service.Stop()
	return c.SendStatus(fiber.StatusNoContent)
}
