package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/repository"
)

// ContestFinalizer performs the terminal aggregation pass over a
// contest: locks in per-submission final scores, flips the contest to
// announced and notifies each distinct submission owner once.
type ContestFinalizer interface {
	Finalize(ctx context.Context, contestID uint, actor Actor) (dto.ContestFinalizeResponse, error)
}

type contestFinalizer struct {
	contests    repository.ContestRepository
	submissions repository.SubmissionRepository
	aggregator  ScoreAggregator
	notifier    NotificationGateway
	logger      zerolog.Logger
	now         func() time.Time
}

// NewContestFinalizer builds the finalizer.
func NewContestFinalizer(
	contests repository.ContestRepository,
	submissions repository.SubmissionRepository,
	aggregator ScoreAggregator,
	notifier NotificationGateway,
	logger zerolog.Logger,
) ContestFinalizer {
	return &contestFinalizer{
		contests:    contests,
		submissions: submissions,
		aggregator:  aggregator,
		notifier:    notifier,
		logger:      logger.With().Str("component", "contest_finalizer").Logger(),
		now:         time.Now,
	}
}

// Finalize tolerates partial panels: a submission with zero evaluated
// assignments keeps a null final score and never blocks the rest. A
// failed write for one submission is logged and processing continues;
// the pass is not retried automatically.
func (s *contestFinalizer) Finalize(ctx context.Context, contestID uint, actor Actor) (dto.ContestFinalizeResponse, error) {
	tracer := otel.Tracer("github.com/lombahub/lombahub-api/internal/service/finalize")
	ctx, span := tracer.Start(ctx, "contest.finalize")
	span.SetAttributes(
		attribute.Int64("contest.id", int64(contestID)),
		attribute.Int64("contest.actor_id", int64(actor.ID)),
	)
	defer span.End()

	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContestFinalizeResponse{}, ErrContestNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "contest_lookup_failed")
		return dto.ContestFinalizeResponse{}, err
	}

	if !actor.IsAdmin() && actor.ID != contest.OwnerID {
		return dto.ContestFinalizeResponse{}, ErrUnauthorized
	}

	if contest.IsAnnounced() {
		return dto.ContestFinalizeResponse{}, ErrInvalidState
	}

	// Submissions already flipped to evaluated by live aggregation are
	// still part of the pass; only unapproved intake states are skipped.
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		ContestID: &contestID,
		Statuses:  []string{models.SubmissionStatusApproved, models.SubmissionStatusEvaluated},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_listing_failed")
		return dto.ContestFinalizeResponse{}, err
	}

	if len(submissions) == 0 {
		return dto.ContestFinalizeResponse{}, ErrEmptyContest
	}

	written := 0
	failures := 0
	owners := make(map[uint]struct{}, len(submissions))
	for _, submission := range submissions {
		owners[submission.OwnerID] = struct{}{}

		outcome, err := s.aggregator.Apply(ctx, submission.ID)
		if err != nil {
			failures++
			s.logger.Error().Err(err).
				Uint("submission_id", submission.ID).
				Msg("final score write failed, continuing with remaining submissions")
			span.RecordError(err)
			continue
		}

		if outcome.Action != ActionNoop {
			written++
		}
	}

	announcedAt := s.now()
	if err := s.contests.MarkAnnounced(ctx, contestID, announcedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "contest_transition_failed")
		return dto.ContestFinalizeResponse{}, err
	}

	// One notification per distinct owner, never one per submission.
	if s.notifier != nil {
		for ownerID := range owners {
			s.notifier.Notify(ctx, ownerID, "results",
				fmt.Sprintf("Results for %q are available.", contest.Title),
				fmt.Sprintf("/contests/%d/results", contestID))
		}
	}

	s.logger.Info().
		Uint("contest_id", contestID).
		Int("submissions", len(submissions)).
		Int("scores_written", written).
		Int("failures", failures).
		Int("owners_notified", len(owners)).
		Msg("contest finalized")

	span.SetAttributes(
		attribute.Int("contest.submissions", len(submissions)),
		attribute.Int("contest.failures", failures),
	)

	return dto.ContestFinalizeResponse{
		ContestID:            contestID,
		Status:               models.ContestStatusAnnounced,
		AnnouncedAt:          &announcedAt,
		SubmissionsProcessed: len(submissions),
		ScoresWritten:        written,
		Failures:             failures,
		OwnersNotified:       len(owners),
	}, nil
}
