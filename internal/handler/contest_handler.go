package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/service"
	"github.com/lombahub/lombahub-api/internal/utils"
)

// ContestHandler exposes contest finalization and reconciliation.
type ContestHandler struct {
	finalizer  service.ContestFinalizer
	reconciler service.ReconciliationService
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewContestHandler builds a contest handler instance.
func NewContestHandler(finalizer service.ContestFinalizer, reconciler service.ReconciliationService, validator *validator.Validate, logger zerolog.Logger) *ContestHandler {
	return &ContestHandler{
		finalizer:  finalizer,
		reconciler: reconciler,
		validator:  validator,
		logger:     logger.With().Str("component", "contest_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ContestHandler) Register(contests fiber.Router, reconcile fiber.Router) {
	contests.Post("/:id/finalize", h.finalize)
	reconcile.Post("", h.reconcile)
}

func (h *ContestHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.finalizer.Finalize(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "contest finalized", result)
}

func (h *ContestHandler) reconcile(c *fiber.Ctx) error {
	var payload dto.ReconcileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	outcomes, err := h.reconciler.Run(c.UserContext(), service.ReconcileFilter{ContestID: payload.ContestID})
	if err != nil {
		return sendDomainError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "reconciliation completed", outcomes)
}
