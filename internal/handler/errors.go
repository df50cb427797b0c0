package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lombahub/lombahub-api/internal/service"
	"github.com/lombahub/lombahub-api/internal/utils"
)

// sendDomainError maps evaluation-core errors onto HTTP status codes:
// invalid input/state 400, unauthorized 403, not found 404, duplicate
// 409, anything else 500.
func sendDomainError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrNoEligibleEvaluator),
		errors.Is(err, service.ErrEmptyContest),
		isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateAssignment):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		logger.Error().Err(err).Msg("unexpected error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
