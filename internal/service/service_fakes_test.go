package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// memoryStore backs the fake repositories used across the service tests.
// The repository interfaces are exposed through thin wrapper types so the
// shared data lives in one place.
type memoryStore struct {
	mu sync.Mutex

	submissions map[uint]models.Submission
	assignments map[uint]models.Assignment
	panel       []models.PanelMember
	experts     []models.Expert
	contests    map[uint]models.Contest

	nextAssignmentID uint

	finalScoreWrites  int
	statusWrites      int
	failFinalScoreFor map[uint]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		submissions:       make(map[uint]models.Submission),
		assignments:       make(map[uint]models.Assignment),
		contests:          make(map[uint]models.Contest),
		nextAssignmentID:  1,
		failFinalScoreFor: make(map[uint]bool),
	}
}

type fakeSubmissionRepo struct{ store *memoryStore }
type fakeAssignmentRepo struct{ store *memoryStore }
type fakeContestRepo struct{ store *memoryStore }

func (m *memoryStore) submissionRepo() repository.SubmissionRepository {
	return fakeSubmissionRepo{store: m}
}

func (m *memoryStore) assignmentRepo() repository.AssignmentRepository {
	return fakeAssignmentRepo{store: m}
}

func (m *memoryStore) contestRepo() repository.ContestRepository {
	return fakeContestRepo{store: m}
}

var (
	_ repository.SubmissionRepository = fakeSubmissionRepo{}
	_ repository.AssignmentRepository = fakeAssignmentRepo{}
	_ repository.ContestRepository    = fakeContestRepo{}
	_ repository.PanelRepository      = (*memoryStore)(nil)
	_ repository.ExpertRepository     = (*memoryStore)(nil)
)

func (m *memoryStore) addSubmission(s models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[s.ID] = s
}

func (m *memoryStore) addAssignment(a models.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.nextAssignmentID
	}
	if a.ID >= m.nextAssignmentID {
		m.nextAssignmentID = a.ID + 1
	}
	m.assignments[a.ID] = a
}

func (m *memoryStore) addContest(c models.Contest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contests[c.ID] = c
}

func (m *memoryStore) submission(id uint) models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[id]
}

func (m *memoryStore) assignment(id uint) models.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[id]
}

func (m *memoryStore) contest(id uint) models.Contest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contests[id]
}

func (m *memoryStore) assignmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assignments)
}

func (m *memoryStore) writeCounts() (finalScore, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalScoreWrites, m.statusWrites
}

func (m *memoryStore) sortedAssignmentIDs(match func(models.Assignment) bool) []uint {
	ids := make([]uint, 0, len(m.assignments))
	for id, assignment := range m.assignments {
		if match(assignment) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SubmissionRepository

func (r fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	r.store.addSubmission(*submission)
	return nil
}

func (r fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	submission, ok := r.store.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (r fakeSubmissionRepo) GetWithAssignments(ctx context.Context, id uint) (repository.SubmissionWithAssignments, error) {
	submission, err := r.GetByID(ctx, id)
	if err != nil {
		return repository.SubmissionWithAssignments{}, err
	}

	assignments, _ := r.store.assignmentRepo().ListBySubmission(ctx, id)
	return repository.SubmissionWithAssignments{Submission: submission, Assignments: assignments}, nil
}

func (r fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := make([]uint, 0, len(r.store.submissions))
	for id := range r.store.submissions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []models.Submission
	for _, id := range ids {
		submission := r.store.submissions[id]
		if filter.ContestID != nil && (submission.ContestID == nil || *submission.ContestID != *filter.ContestID) {
			continue
		}
		if filter.OwnerID != nil && submission.OwnerID != *filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if submission.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, submission)
	}

	return result, nil
}

func (r fakeSubmissionRepo) ListUnassigned(ctx context.Context) ([]models.Submission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assigned := make(map[uint]bool, len(r.store.assignments))
	for _, assignment := range r.store.assignments {
		assigned[assignment.SubmissionID] = true
	}

	ids := make([]uint, 0, len(r.store.submissions))
	for id := range r.store.submissions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []models.Submission
	for _, id := range ids {
		submission := r.store.submissions[id]
		if submission.Status != models.SubmissionStatusApproved || submission.ContestID != nil || assigned[id] {
			continue
		}
		result = append(result, submission)
	}

	return result, nil
}

func (r fakeSubmissionRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	submission, ok := r.store.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.Status = status
	r.store.submissions[id] = submission
	r.store.statusWrites++
	return nil
}

func (r fakeSubmissionRepo) UpdateFinalScore(ctx context.Context, id uint, score *float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failFinalScoreFor[id] {
		return fmt.Errorf("simulated write failure for submission %d", id)
	}
	submission, ok := r.store.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.FinalScore = score
	r.store.submissions[id] = submission
	r.store.finalScoreWrites++
	return nil
}

// AssignmentRepository

func (r fakeAssignmentRepo) Insert(ctx context.Context, assignment *models.Assignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.assignments {
		if existing.SubmissionID == assignment.SubmissionID && existing.EvaluatorID == assignment.EvaluatorID {
			return gorm.ErrDuplicatedKey
		}
	}

	assignment.ID = r.store.nextAssignmentID
	r.store.nextAssignmentID++
	r.store.assignments[assignment.ID] = *assignment
	return nil
}

func (r fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assignment, ok := r.store.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	assignment.Submission = r.store.submissions[assignment.SubmissionID]
	return assignment, nil
}

func (r fakeAssignmentRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Assignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := r.store.sortedAssignmentIDs(func(a models.Assignment) bool {
		return a.SubmissionID == submissionID
	})

	result := make([]models.Assignment, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.store.assignments[id])
	}
	return result, nil
}

func (r fakeAssignmentRepo) ListByEvaluator(ctx context.Context, evaluatorID uint, status *string) ([]models.Assignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := r.store.sortedAssignmentIDs(func(a models.Assignment) bool {
		if a.EvaluatorID != evaluatorID {
			return false
		}
		return status == nil || a.Status == *status
	})

	result := make([]models.Assignment, 0, len(ids))
	for _, id := range ids {
		assignment := r.store.assignments[id]
		assignment.Submission = r.store.submissions[assignment.SubmissionID]
		result = append(result, assignment)
	}
	return result, nil
}

func (r fakeAssignmentRepo) CountBySubmission(ctx context.Context, submissionID uint) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, assignment := range r.store.assignments {
		if assignment.SubmissionID == submissionID {
			count++
		}
	}
	return count, nil
}

func (r fakeAssignmentRepo) UpdateStatusFrom(ctx context.Context, id uint, from, to, rejectReason string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assignment, ok := r.store.assignments[id]
	if !ok || assignment.Status != from {
		return false, nil
	}

	assignment.Status = to
	if rejectReason != "" {
		assignment.RejectReason = rejectReason
	}
	r.store.assignments[id] = assignment
	return true, nil
}

func (r fakeAssignmentRepo) RecordScoreFrom(ctx context.Context, id uint, from string, scores datatypes.JSONMap, total float64, evaluatedAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assignment, ok := r.store.assignments[id]
	if !ok || assignment.Status != from {
		return false, nil
	}

	assignment.Status = models.AssignmentStatusEvaluated
	assignment.Scores = scores
	assignment.TotalScore = &total
	assignment.EvaluatedAt = &evaluatedAt
	r.store.assignments[id] = assignment
	return true, nil
}

// PanelRepository

func (m *memoryStore) ListAcceptedMembers(ctx context.Context, contestID uint) ([]models.PanelMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var members []models.PanelMember
	for _, member := range m.panel {
		if member.ContestID == contestID && member.Status == models.PanelStatusAccepted {
			members = append(members, member)
		}
	}
	return members, nil
}

// ExpertRepository

func (m *memoryStore) ListActive(ctx context.Context) ([]models.Expert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var experts []models.Expert
	for _, expert := range m.experts {
		if expert.Active {
			experts = append(experts, expert)
		}
	}
	return experts, nil
}

func (m *memoryStore) ListBySpeciality(ctx context.Context, code string) ([]models.Expert, error) {
	experts, err := m.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var matched []models.Expert
	for _, expert := range experts {
		for _, speciality := range expert.Specialities {
			if speciality == code {
				matched = append(matched, expert)
				break
			}
		}
	}
	return matched, nil
}

// ContestRepository

func (r fakeContestRepo) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	contest, ok := r.store.contests[id]
	if !ok {
		return models.Contest{}, gorm.ErrRecordNotFound
	}
	return contest, nil
}

func (r fakeContestRepo) MarkAnnounced(ctx context.Context, id uint, announcedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	contest, ok := r.store.contests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contest.Status = models.ContestStatusAnnounced
	contest.AnnouncedAt = &announcedAt
	r.store.contests[id] = contest
	return nil
}

// recordingNotifier captures gateway calls for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

type notice struct {
	UserID   uint
	Kind     string
	Message  string
	LinkHint string
}

func (r *recordingNotifier) Notify(ctx context.Context, userID uint, kind, message, linkHint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{UserID: userID, Kind: kind, Message: message, LinkHint: linkHint})
}

func (r *recordingNotifier) all() []notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notice(nil), r.notices...)
}
