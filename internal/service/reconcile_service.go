package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/observability"
	"github.com/lombahub/lombahub-api/internal/repository"
)

const reconcileActionError = "error"

// ReconcileFilter optionally scopes a run to a single contest.
type ReconcileFilter struct {
	ContestID *uint
}

// ReconciliationService recomputes and repairs derived aggregate fields
// across submissions. It is the designated repair mechanism for drift
// left behind by partial panel fan-outs or missed aggregation; it never
// assumes exclusive access and re-reads assignment state immediately
// before each write, so it is safe to run repeatedly or alongside live
// traffic.
type ReconciliationService interface {
	Run(ctx context.Context, filter ReconcileFilter) ([]dto.ReconcileOutcome, error)
}

type reconciliationService struct {
	submissions repository.SubmissionRepository
	aggregator  ScoreAggregator
	logger      zerolog.Logger
}

// NewReconciliationService builds the reconciliation job runner.
func NewReconciliationService(submissions repository.SubmissionRepository, aggregator ScoreAggregator, logger zerolog.Logger) ReconciliationService {
	return &reconciliationService{
		submissions: submissions,
		aggregator:  aggregator,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

func (s *reconciliationService) Run(ctx context.Context, filter ReconcileFilter) ([]dto.ReconcileOutcome, error) {
	candidates, err := s.submissions.List(ctx, repository.SubmissionFilter{
		ContestID: filter.ContestID,
		Statuses:  []string{models.SubmissionStatusApproved, models.SubmissionStatusEvaluated},
	})
	if err != nil {
		return nil, err
	}

	outcomes := make([]dto.ReconcileOutcome, 0, len(candidates))
	for _, submission := range candidates {
		outcome, err := s.aggregator.Apply(ctx, submission.ID)
		if err != nil {
			s.logger.Error().Err(err).
				Uint("submission_id", submission.ID).
				Msg("reconciliation failed for submission, continuing")
			outcomes = append(outcomes, dto.ReconcileOutcome{SubmissionID: submission.ID, Action: reconcileActionError})
			observability.ReconcileActions().WithLabelValues(reconcileActionError).Inc()
			continue
		}

		outcomes = append(outcomes, dto.ReconcileOutcome{SubmissionID: submission.ID, Action: outcome.Action})
		observability.ReconcileActions().WithLabelValues(outcome.Action).Inc()
	}

	s.logger.Info().
		Int("candidates", len(candidates)).
		Msg("reconciliation run completed")

	return outcomes, nil
}
