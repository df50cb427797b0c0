package service

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/repository"
)

// Reconciliation / apply actions.
const (
	// ActionNoop means stored aggregates already matched the recomputed ones.
	ActionNoop = "noop"
	// ActionUpdated means the final score was rewritten.
	ActionUpdated = "updated"
	// ActionStatusFlipped means the submission newly became fully evaluated.
	ActionStatusFlipped = "status_flipped_to_evaluated"
)

// AggregateResult is the derived evaluation state for one submission.
type AggregateResult struct {
	FinalScore     *float64
	EvaluatedCount int
	ExpectedCount  int
	FullyEvaluated bool
}

// ApplyOutcome reports what Apply changed, if anything.
type ApplyOutcome struct {
	Action string
	Result AggregateResult
}

// ScoreAggregator derives a submission's final score from its evaluated
// assignments. The final score is never hand-edited; every write to it
// goes through this service or the finalizer.
type ScoreAggregator interface {
	Recompute(ctx context.Context, submissionID uint) (AggregateResult, error)
	Apply(ctx context.Context, submissionID uint) (ApplyOutcome, error)
}

type scoreAggregator struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	logger      zerolog.Logger
}

// NewScoreAggregator builds the aggregator.
func NewScoreAggregator(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, logger zerolog.Logger) ScoreAggregator {
	return &scoreAggregator{
		submissions: submissions,
		assignments: assignments,
		logger:      logger.With().Str("component", "score_aggregator").Logger(),
	}
}

// Recompute reads current assignment state and derives the final score
// and completion flag. Quality-mode submissions are complete after one
// evaluated assignment; competition-mode submissions are complete once
// every assignment created for the panel has been evaluated.
func (s *scoreAggregator) Recompute(ctx context.Context, submissionID uint) (AggregateResult, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AggregateResult{}, ErrSubmissionNotFound
		}
		return AggregateResult{}, err
	}

	assignments, err := s.assignments.ListBySubmission(ctx, submissionID)
	if err != nil {
		return AggregateResult{}, err
	}

	return deriveAggregate(submission, assignments), nil
}

func deriveAggregate(submission models.Submission, assignments []models.Assignment) AggregateResult {
	var sum float64
	evaluated := 0
	for _, assignment := range assignments {
		if assignment.IsEvaluated() && assignment.TotalScore != nil {
			sum += *assignment.TotalScore
			evaluated++
		}
	}

	result := AggregateResult{EvaluatedCount: evaluated}

	if submission.IsContestEntry() {
		// Panel size at assignment-creation time equals the number of
		// assignment rows: every accepted member received exactly one.
		result.ExpectedCount = len(assignments)
	} else {
		result.ExpectedCount = 1
	}

	if evaluated > 0 {
		mean := roundScore(sum / float64(evaluated))
		result.FinalScore = &mean
		result.FullyEvaluated = evaluated >= result.ExpectedCount
	}

	return result
}

// Apply persists the recomputed aggregate, skipping the write entirely
// when nothing changed so repeated application produces zero writes.
func (s *scoreAggregator) Apply(ctx context.Context, submissionID uint) (ApplyOutcome, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplyOutcome{}, ErrSubmissionNotFound
		}
		return ApplyOutcome{}, err
	}

	// Re-read assignments immediately before deciding on a write;
	// reconciliation may race with live scoring.
	assignments, err := s.assignments.ListBySubmission(ctx, submissionID)
	if err != nil {
		return ApplyOutcome{}, err
	}

	result := deriveAggregate(submission, assignments)

	scoreChanged := !scoresEqual(submission.FinalScore, result.FinalScore)
	flipStatus := result.FullyEvaluated && submission.Status != models.SubmissionStatusEvaluated

	if !scoreChanged && !flipStatus {
		return ApplyOutcome{Action: ActionNoop, Result: result}, nil
	}

	if scoreChanged {
		if err := s.submissions.UpdateFinalScore(ctx, submissionID, result.FinalScore); err != nil {
			return ApplyOutcome{}, err
		}
	}

	action := ActionUpdated
	if flipStatus {
		if err := s.submissions.UpdateStatus(ctx, submissionID, models.SubmissionStatusEvaluated); err != nil {
			return ApplyOutcome{}, err
		}
		action = ActionStatusFlipped
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Str("action", action).
		Int("evaluated_count", result.EvaluatedCount).
		Msg("aggregate applied")

	return ApplyOutcome{Action: action, Result: result}, nil
}

func roundScore(value float64) float64 {
	return math.Round(value*100) / 100
}

func scoresEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 1e-9
}
