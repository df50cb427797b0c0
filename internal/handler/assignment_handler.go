package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/service"
	"github.com/lombahub/lombahub-api/internal/utils"
)

// AssignmentHandler manages assignment endpoints.
type AssignmentHandler struct {
	service   service.AssignmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Post("", adminOnly, h.create)
	router.Post("/sweep", adminOnly, h.sweep)
	router.Post("/auto/:submissionId", adminOnly, h.assignAuto)
	router.Post("/panel/:submissionId", adminOnly, h.assignPanel)
	router.Post("/:id/respond", h.respond)
	router.Post("/:id/score", h.score)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	if actor.ID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var status *string
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status = &raw
	}

	assignments, err := h.service.ListByEvaluator(c.UserContext(), actor.ID, status)
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) sweep(c *fiber.Ctx) error {
	outcomes, err := h.service.SweepUnassigned(c.UserContext())
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "sweep completed", outcomes)
}

func (h *AssignmentHandler) assignAuto(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "submissionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.AssignAuto(c.UserContext(), submissionID)
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) assignPanel(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "submissionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	outcomes, err := h.service.AssignPanel(c.UserContext(), submissionID)
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "panel assignments ensured", outcomes)
}

func (h *AssignmentHandler) respond(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentRespondRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Respond(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "response recorded", assignment)
}

func (h *AssignmentHandler) score(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Score(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "score recorded", assignment)
}
