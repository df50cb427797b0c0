package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/lombahub/lombahub-api/internal/dto"
	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/rubric"
)

const testRubricYAML = `
categories:
  painting:
    - key: technique
      max: 50
    - key: originality
      max: 50
  writing:
    - key: clarity
      max: 40
    - key: style
      max: 60
`

func newAssignmentFixture(t *testing.T) (*memoryStore, *recordingNotifier, AssignmentService) {
	t.Helper()

	store := newMemoryStore()
	notifier := &recordingNotifier{}

	schema, err := rubric.Parse([]byte(testRubricYAML))
	require.NoError(t, err)

	matcher := NewExpertMatcher(store, rand.New(rand.NewSource(11)), testLogger())
	aggregator := NewScoreAggregator(store.submissionRepo(), store.assignmentRepo(), testLogger())

	svc := NewAssignmentService(
		store.assignmentRepo(),
		store.submissionRepo(),
		store,
		matcher,
		schema,
		aggregator,
		notifier,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)

	return store, notifier, svc
}

func TestCreateAssignment(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})

	response, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{SubmissionID: 1, EvaluatorID: 20})
	require.NoError(t, err)
	require.Equal(t, uint(1), response.SubmissionID)
	require.Equal(t, uint(20), response.EvaluatorID)
	require.Equal(t, models.AssignmentStatusPending, response.Status)
	require.Equal(t, 1, store.assignmentCount())
}

func TestCreateAssignmentDuplicatePair(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})

	_, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{SubmissionID: 1, EvaluatorID: 20})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.AssignmentCreateRequest{SubmissionID: 1, EvaluatorID: 20})
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	require.Equal(t, 1, store.assignmentCount())
}

func TestCreateAssignmentRequiresEvaluableSubmission(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusPending})

	_, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{SubmissionID: 1, EvaluatorID: 20})
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, 0, store.assignmentCount())
}

func TestCreateAssignmentUnknownSubmission(t *testing.T) {
	_, _, svc := newAssignmentFixture(t)

	_, err := svc.Create(context.Background(), dto.AssignmentCreateRequest{SubmissionID: 404, EvaluatorID: 20})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestAssignAutoMatchesExpert(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.experts = []models.Expert{
		{ID: 30, Name: "Ana", Specialities: datatypes.NewJSONSlice([]string{"painting"}), Active: true},
	}

	response, err := svc.AssignAuto(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(30), response.EvaluatorID)
	require.Equal(t, models.AssignmentStatusPending, response.Status)
	require.Equal(t, 1, store.assignmentCount())
}

func TestAssignAutoRepeatedCallKeepsSingleAssignment(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.experts = []models.Expert{
		{ID: 30, Name: "Ana", Specialities: datatypes.NewJSONSlice([]string{"painting"}), Active: true},
		{ID: 31, Name: "Budi", Specialities: datatypes.NewJSONSlice([]string{"painting"}), Active: true},
	}

	_, err := svc.AssignAuto(context.Background(), 1)
	require.NoError(t, err)

	// A second call while the submission is still approved must not
	// re-run the matcher; a fresh draw could land on the other expert
	// and slip past the pair-level unique index.
	_, err = svc.AssignAuto(context.Background(), 1)
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	require.Equal(t, 1, store.assignmentCount())
}

func TestAssignAutoEmptyPoolIsHardFailure(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})

	_, err := svc.AssignAuto(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoEligibleEvaluator)
	require.Equal(t, 0, store.assignmentCount())
}

func TestAssignAutoRejectsContestEntry(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	contestID := uint(5)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", ContestID: &contestID, Status: models.SubmissionStatusApproved})

	_, err := svc.AssignAuto(context.Background(), 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssignPanelFansOutToAcceptedMembers(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	contestID := uint(5)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", ContestID: &contestID, Status: models.SubmissionStatusApproved})
	store.panel = []models.PanelMember{
		{ID: 1, ContestID: 5, EvaluatorID: 20, Status: models.PanelStatusAccepted},
		{ID: 2, ContestID: 5, EvaluatorID: 21, Status: models.PanelStatusAccepted},
		{ID: 3, ContestID: 5, EvaluatorID: 22, Status: models.PanelStatusAccepted},
		{ID: 4, ContestID: 5, EvaluatorID: 23, Status: models.PanelStatusPending},
	}
	// Evaluator 21 was already assigned by an earlier pass.
	store.addAssignment(models.Assignment{SubmissionID: 1, EvaluatorID: 21, Status: models.AssignmentStatusPending})

	outcomes, err := svc.AssignPanel(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	actions := make(map[uint]string, len(outcomes))
	for _, outcome := range outcomes {
		actions[outcome.EvaluatorID] = outcome.Action
	}
	require.Equal(t, "created", actions[20])
	require.Equal(t, "already_assigned", actions[21])
	require.Equal(t, "created", actions[22])
	require.Equal(t, 3, store.assignmentCount())
}

func TestAssignPanelRejectsQualityModeSubmission(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})

	_, err := svc.AssignPanel(context.Background(), 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSweepUnassignedMatchesQualitySubmissions(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	contestID := uint(5)
	store.experts = []models.Expert{
		{ID: 30, Name: "Ana", Specialities: datatypes.NewJSONSlice([]string{"painting"}), Active: true},
	}
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addSubmission(models.Submission{ID: 2, OwnerID: 11, CategoryCode: "painting", Status: models.SubmissionStatusPending})
	store.addSubmission(models.Submission{ID: 3, OwnerID: 12, CategoryCode: "painting", ContestID: &contestID, Status: models.SubmissionStatusApproved})

	outcomes, err := svc.SweepUnassigned(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, uint(1), outcomes[0].SubmissionID)
	require.Equal(t, "created", outcomes[0].Action)
	require.NotNil(t, outcomes[0].EvaluatorID)
	require.Equal(t, uint(30), *outcomes[0].EvaluatorID)
	require.Equal(t, 1, store.assignmentCount())
}

func TestSweepUnassignedLeavesSubmissionWithoutEvaluator(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})

	outcomes, err := svc.SweepUnassigned(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, "unassigned", outcomes[0].Action)
	require.Equal(t, 0, store.assignmentCount())
}

func TestRespondAccept(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusPending})

	response, err := svc.Respond(context.Background(), 1, Actor{ID: 20}, dto.AssignmentRespondRequest{Decision: models.AssignmentStatusAccepted})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusAccepted, response.Status)
	require.Equal(t, models.AssignmentStatusAccepted, store.assignment(1).Status)
}

func TestRespondRejectStoresReason(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusPending})

	response, err := svc.Respond(context.Background(), 1, Actor{ID: 20}, dto.AssignmentRespondRequest{
		Decision: models.AssignmentStatusRejected,
		Reason:   "  conflict of interest  ",
	})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusRejected, response.Status)
	require.Equal(t, "conflict of interest", store.assignment(1).RejectReason)
}

func TestRespondByOtherEvaluator(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusPending})

	_, err := svc.Respond(context.Background(), 1, Actor{ID: 99}, dto.AssignmentRespondRequest{Decision: models.AssignmentStatusAccepted})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, models.AssignmentStatusPending, store.assignment(1).Status)
}

func TestRespondOnNonPendingAssignment(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusAccepted})

	_, err := svc.Respond(context.Background(), 1, Actor{ID: 20}, dto.AssignmentRespondRequest{Decision: models.AssignmentStatusRejected})
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, models.AssignmentStatusAccepted, store.assignment(1).Status)
}

func TestRespondInvalidDecision(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusPending})

	_, err := svc.Respond(context.Background(), 1, Actor{ID: 20}, dto.AssignmentRespondRequest{Decision: "maybe"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoreRecordsSheetAndAggregates(t *testing.T) {
	store, notifier, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusAccepted})

	response, err := svc.Score(context.Background(), 1, Actor{ID: 20}, dto.AssignmentScoreRequest{
		Scores: map[string]float64{"technique": 45, "originality": 40},
	})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusEvaluated, response.Status)
	require.NotNil(t, response.TotalScore)
	require.Equal(t, 85.0, *response.TotalScore)

	assignment := store.assignment(1)
	require.Equal(t, models.AssignmentStatusEvaluated, assignment.Status)
	require.NotNil(t, assignment.EvaluatedAt)

	submission := store.submission(1)
	require.Equal(t, models.SubmissionStatusEvaluated, submission.Status)
	require.NotNil(t, submission.FinalScore)
	require.Equal(t, 85.0, *submission.FinalScore)

	notices := notifier.all()
	require.Len(t, notices, 1)
	require.Equal(t, uint(10), notices[0].UserID)
	require.Equal(t, "evaluation", notices[0].Kind)
}

func TestScoreOnPendingAssignment(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusPending})

	_, err := svc.Score(context.Background(), 1, Actor{ID: 20}, dto.AssignmentScoreRequest{
		Scores: map[string]float64{"technique": 45, "originality": 40},
	})
	require.ErrorIs(t, err, ErrInvalidState)

	assignment := store.assignment(1)
	require.Equal(t, models.AssignmentStatusPending, assignment.Status)
	require.Nil(t, assignment.TotalScore)
	require.Nil(t, assignment.EvaluatedAt)
}

func TestScoreRejectsSheetOutsideRubric(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusAccepted})

	cases := map[string]map[string]float64{
		"missing criterion": {"technique": 45},
		"unknown criterion": {"technique": 45, "originality": 40, "vibes": 10},
		"value above max":   {"technique": 55, "originality": 40},
		"negative value":    {"technique": -1, "originality": 40},
	}

	for name, scores := range cases {
		_, err := svc.Score(context.Background(), 1, Actor{ID: 20}, dto.AssignmentScoreRequest{Scores: scores})
		require.ErrorIsf(t, err, ErrInvalidInput, "case %q", name)
	}

	require.Equal(t, models.AssignmentStatusAccepted, store.assignment(1).Status)
}

func TestScoreRejectsMismatchedTotal(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusAccepted})

	wrongTotal := 90.0
	_, err := svc.Score(context.Background(), 1, Actor{ID: 20}, dto.AssignmentScoreRequest{
		Scores:     map[string]float64{"technique": 45, "originality": 40},
		TotalScore: &wrongTotal,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, models.AssignmentStatusAccepted, store.assignment(1).Status)
}

func TestScoreAllowedForAdmin(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusAccepted})

	_, err := svc.Score(context.Background(), 1, Actor{ID: 1, Role: RoleAdmin}, dto.AssignmentScoreRequest{
		Scores: map[string]float64{"technique": 30, "originality": 30},
	})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusEvaluated, store.assignment(1).Status)
}

func TestListByEvaluatorFiltersByStatus(t *testing.T) {
	store, _, svc := newAssignmentFixture(t)
	store.addSubmission(models.Submission{ID: 1, OwnerID: 10, CategoryCode: "painting", Status: models.SubmissionStatusApproved})
	store.addSubmission(models.Submission{ID: 2, OwnerID: 11, CategoryCode: "writing", Status: models.SubmissionStatusApproved})
	store.addAssignment(models.Assignment{ID: 1, SubmissionID: 1, EvaluatorID: 20, Status: models.AssignmentStatusPending})
	store.addAssignment(models.Assignment{ID: 2, SubmissionID: 2, EvaluatorID: 20, Status: models.AssignmentStatusAccepted})
	store.addAssignment(models.Assignment{ID: 3, SubmissionID: 2, EvaluatorID: 21, Status: models.AssignmentStatusPending})

	all, err := svc.ListByEvaluator(context.Background(), 20, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	pending := models.AssignmentStatusPending
	filtered, err := svc.ListByEvaluator(context.Background(), 20, &pending)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, uint(1), filtered[0].ID)
}
