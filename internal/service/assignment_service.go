package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/observability"
	"github.com/lombahub/lombahub-api/internal/repository"
	"github.com/lombahub/lombahub-api/internal/rubric"
)

// Assignment actions reported by batch fan-out operations.
const (
	assignActionCreated         = "created"
	assignActionAlreadyAssigned = "already_assigned"
	assignActionUnassigned      = "unassigned"
	assignActionFailed          = "failed"
)

// AssignmentService owns the assignment lifecycle:
// pending -> accepted -> evaluated, with pending -> rejected terminal.
// Every operation is a single read-check-write round trip; nothing is
// retried automatically.
type AssignmentService interface {
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	AssignAuto(ctx context.Context, submissionID uint) (dto.AssignmentResponse, error)
	AssignPanel(ctx context.Context, submissionID uint) ([]dto.PanelAssignOutcome, error)
	SweepUnassigned(ctx context.Context) ([]dto.SweepOutcome, error)
	Respond(ctx context.Context, assignmentID uint, actor Actor, payload dto.AssignmentRespondRequest) (dto.AssignmentResponse, error)
	Score(ctx context.Context, assignmentID uint, actor Actor, payload dto.AssignmentScoreRequest) (dto.AssignmentResponse, error)
	ListByEvaluator(ctx context.Context, evaluatorID uint, status *string) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	panel       repository.PanelRepository
	matcher     ExpertMatcher
	schema      *rubric.Schema
	aggregator  ScoreAggregator
	notifier    NotificationGateway
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds the assignment service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	panel repository.PanelRepository,
	matcher ExpertMatcher,
	schema *rubric.Schema,
	aggregator ScoreAggregator,
	notifier NotificationGateway,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		submissions: submissions,
		panel:       panel,
		matcher:     matcher,
		schema:      schema,
		aggregator:  aggregator,
		notifier:    notifier,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

// Create inserts a definitive assignment. A duplicate pair is an error
// here; callers with ensure-assigned semantics go through the batch
// paths, which treat it as already satisfied.
func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrSubmissionNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !submission.IsEvaluable() {
		return dto.AssignmentResponse{}, ErrInvalidState
	}

	assignment := models.Assignment{
		SubmissionID: submission.ID,
		EvaluatorID:  payload.EvaluatorID,
		Status:       models.AssignmentStatusPending,
		AssignedAt:   s.now(),
	}

	if err := s.assignments.Insert(ctx, &assignment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AssignmentResponse{}, ErrDuplicateAssignment
		}
		return dto.AssignmentResponse{}, err
	}

	observability.AssignmentsCreated().WithLabelValues(submissionMode(submission)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("evaluator_id", payload.EvaluatorID).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

// AssignAuto matches a quality-mode submission to one expert and inserts
// the assignment definitively. Unlike the sweep, an empty evaluator pool
// is a hard failure here so the caller sees ErrNoEligibleEvaluator.
func (s *assignmentService) AssignAuto(ctx context.Context, submissionID uint) (dto.AssignmentResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrSubmissionNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if submission.IsContestEntry() {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: submission %d is a contest entry, use the panel fan-out", ErrInvalidInput, submissionID)
	}

	if !submission.IsEvaluable() {
		return dto.AssignmentResponse{}, ErrInvalidState
	}

	// A quality-mode submission carries at most one assignment. The
	// unique index only guards the (submission, evaluator) pair, so a
	// repeated call must be refused before the matcher draws again.
	count, err := s.assignments.CountBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if count > 0 {
		return dto.AssignmentResponse{}, ErrDuplicateAssignment
	}

	evaluatorID, err := s.matcher.SelectEvaluator(ctx, submission.CategoryCode)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		SubmissionID: submission.ID,
		EvaluatorID:  evaluatorID,
		Status:       models.AssignmentStatusPending,
		AssignedAt:   s.now(),
	}

	if err := s.assignments.Insert(ctx, &assignment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AssignmentResponse{}, ErrDuplicateAssignment
		}
		return dto.AssignmentResponse{}, err
	}

	observability.AssignmentsCreated().WithLabelValues(submissionMode(submission)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("evaluator_id", evaluatorID).
		Msg("assignment auto-matched")

	return dto.NewAssignmentResponse(assignment), nil
}

// ensureAssigned inserts the pair unless it already exists. The unique
// index arbitrates concurrent creators; losing the race is success.
func (s *assignmentService) ensureAssigned(ctx context.Context, submission models.Submission, evaluatorID uint) (bool, error) {
	assignment := models.Assignment{
		SubmissionID: submission.ID,
		EvaluatorID:  evaluatorID,
		Status:       models.AssignmentStatusPending,
		AssignedAt:   s.now(),
	}

	if err := s.assignments.Insert(ctx, &assignment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}

	observability.AssignmentsCreated().WithLabelValues(submissionMode(submission)).Inc()
	return true, nil
}

// AssignPanel fans one assignment out to every accepted panel member of
// the submission's contest. The pass is best effort: a failed insert for
// one member is recorded and does not roll back earlier members; the
// reconciliation/backfill path repairs gaps.
func (s *assignmentService) AssignPanel(ctx context.Context, submissionID uint) ([]dto.PanelAssignOutcome, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if !submission.IsContestEntry() {
		return nil, fmt.Errorf("%w: submission %d is not a contest entry", ErrInvalidInput, submissionID)
	}

	if !submission.IsEvaluable() {
		return nil, ErrInvalidState
	}

	members, err := s.panel.ListAcceptedMembers(ctx, *submission.ContestID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]dto.PanelAssignOutcome, 0, len(members))
	for _, member := range members {
		created, err := s.ensureAssigned(ctx, submission, member.EvaluatorID)
		switch {
		case err != nil:
			s.logger.Error().Err(err).
				Uint("submission_id", submissionID).
				Uint("evaluator_id", member.EvaluatorID).
				Msg("panel assignment insert failed")
			outcomes = append(outcomes, dto.PanelAssignOutcome{EvaluatorID: member.EvaluatorID, Action: assignActionFailed})
		case created:
			outcomes = append(outcomes, dto.PanelAssignOutcome{EvaluatorID: member.EvaluatorID, Action: assignActionCreated})
		default:
			outcomes = append(outcomes, dto.PanelAssignOutcome{EvaluatorID: member.EvaluatorID, Action: assignActionAlreadyAssigned})
		}
	}

	return outcomes, nil
}

// SweepUnassigned walks approved quality-mode submissions without an
// assignment and matches each one to an expert. A submission with no
// eligible evaluator is logged and skipped; the sweep never aborts on a
// per-item failure.
func (s *assignmentService) SweepUnassigned(ctx context.Context) ([]dto.SweepOutcome, error) {
	candidates, err := s.submissions.ListUnassigned(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]dto.SweepOutcome, 0, len(candidates))
	for _, submission := range candidates {
		// Re-verify right before inserting; another sweep instance may
		// have assigned this submission since the listing.
		count, err := s.assignments.CountBySubmission(ctx, submission.ID)
		if err != nil {
			outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, Action: assignActionFailed})
			continue
		}
		if count > 0 {
			outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, Action: assignActionAlreadyAssigned})
			continue
		}

		evaluatorID, err := s.matcher.SelectEvaluator(ctx, submission.CategoryCode)
		if err != nil {
			if errors.Is(err, ErrNoEligibleEvaluator) {
				s.logger.Warn().
					Uint("submission_id", submission.ID).
					Str("category", submission.CategoryCode).
					Msg("no eligible evaluator, submission left unassigned")
				outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, Action: assignActionUnassigned})
				continue
			}
			outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, Action: assignActionFailed})
			continue
		}

		created, err := s.ensureAssigned(ctx, submission, evaluatorID)
		switch {
		case err != nil:
			s.logger.Error().Err(err).
				Uint("submission_id", submission.ID).
				Msg("sweep assignment insert failed")
			outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, Action: assignActionFailed})
		case created:
			outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, EvaluatorID: &evaluatorID, Action: assignActionCreated})
		default:
			outcomes = append(outcomes, dto.SweepOutcome{SubmissionID: submission.ID, Action: assignActionAlreadyAssigned})
		}
	}

	return outcomes, nil
}

// Respond records the evaluator's accept/reject decision. Legal only
// from pending; the guarded update arbitrates concurrent responders.
func (s *assignmentService) Respond(ctx context.Context, assignmentID uint, actor Actor, payload dto.AssignmentRespondRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !actor.CanActOn(assignment.EvaluatorID) {
		return dto.AssignmentResponse{}, ErrUnauthorized
	}

	if assignment.Status != models.AssignmentStatusPending {
		return dto.AssignmentResponse{}, ErrInvalidState
	}

	reason := ""
	if payload.Decision == models.AssignmentStatusRejected {
		reason = strings.TrimSpace(payload.Reason)
	}

	ok, err := s.assignments.UpdateStatusFrom(ctx, assignmentID, models.AssignmentStatusPending, payload.Decision, reason)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !ok {
		return dto.AssignmentResponse{}, ErrInvalidState
	}

	assignment.Status = payload.Decision
	assignment.RejectReason = reason

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Str("decision", payload.Decision).
		Msg("assignment response recorded")

	return dto.NewAssignmentResponse(assignment), nil
}

// Score validates the sheet against the submission category's rubric and
// records it. Legal only from accepted; nothing is written on a
// validation failure or a lost state race.
func (s *assignmentService) Score(ctx context.Context, assignmentID uint, actor Actor, payload dto.AssignmentScoreRequest) (dto.AssignmentResponse, error) {
	tracer := otel.Tracer("github.com/lombahub/lombahub-api/internal/service/assignment")
	ctx, span := tracer.Start(ctx, "assignment.score")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("assignment.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.AssignmentResponse{}, err
	}

	if !actor.CanActOn(assignment.EvaluatorID) {
		return dto.AssignmentResponse{}, ErrUnauthorized
	}

	if assignment.Status != models.AssignmentStatusAccepted {
		return dto.AssignmentResponse{}, ErrInvalidState
	}

	if err := s.schema.Validate(assignment.Submission.CategoryCode, payload.Scores); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rubric_validation_failed")
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	total := rubric.Total(payload.Scores)
	if payload.TotalScore != nil && math.Abs(*payload.TotalScore-total) > 1e-6 {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: total_score %.2f does not match score sheet sum %.2f", ErrInvalidInput, *payload.TotalScore, total)
	}

	scores := make(datatypes.JSONMap, len(payload.Scores))
	for key, value := range payload.Scores {
		scores[key] = value
	}

	evaluatedAt := s.now()
	ok, err := s.assignments.RecordScoreFrom(ctx, assignmentID, models.AssignmentStatusAccepted, scores, total, evaluatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_write_failed")
		return dto.AssignmentResponse{}, err
	}
	if !ok {
		return dto.AssignmentResponse{}, ErrInvalidState
	}

	observability.EvaluationsRecorded().Inc()

	assignment.Status = models.AssignmentStatusEvaluated
	assignment.Scores = scores
	assignment.TotalScore = &total
	assignment.EvaluatedAt = &evaluatedAt

	// The score itself is durable at this point. Aggregation drift is
	// repaired by the reconciliation job, so a failure here is logged
	// rather than surfaced.
	outcome, err := s.aggregator.Apply(ctx, assignment.SubmissionID)
	if err != nil {
		s.logger.Warn().Err(err).
			Uint("submission_id", assignment.SubmissionID).
			Msg("failed to apply aggregate after scoring")
		span.RecordError(err)
	} else if outcome.Action == ActionStatusFlipped && s.notifier != nil {
		s.notifier.Notify(ctx, assignment.Submission.OwnerID, "evaluation",
			"Your submission has been fully evaluated.",
			fmt.Sprintf("/submissions/%d", assignment.SubmissionID))
	}

	span.SetAttributes(attribute.Float64("assignment.total_score", total))

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListByEvaluator(ctx context.Context, evaluatorID uint, status *string) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByEvaluator(ctx, evaluatorID, status)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func submissionMode(submission models.Submission) string {
	if submission.IsContestEntry() {
		return "competition"
	}
	return "quality"
}
