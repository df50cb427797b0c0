package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/repository"
)

// SubmissionService exposes read access to submissions together with
// their evaluation state.
type SubmissionService interface {
	Get(ctx context.Context, id uint) (dto.SubmissionDetailResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

// NewSubmissionService builds the submission read service.
func NewSubmissionService(submissions repository.SubmissionRepository, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionDetailResponse, error) {
	aggregate, err := s.submissions.GetWithAssignments(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetailResponse{}, err
	}

	derived := deriveAggregate(aggregate.Submission, aggregate.Assignments)

	return dto.NewSubmissionDetailResponse(aggregate, derived.EvaluatedCount, derived.FullyEvaluated), nil
}
