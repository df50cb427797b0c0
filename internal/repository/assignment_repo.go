package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
)

// AssignmentRepository defines persistence operations for evaluation
// assignments. Insert surfaces gorm.ErrDuplicatedKey when the
// (submission, evaluator) pair already exists; the guarded updates
// return false when the expected source status no longer holds, which
// callers translate into an invalid-transition error.
type AssignmentRepository interface {
	Insert(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Assignment, error)
	ListByEvaluator(ctx context.Context, evaluatorID uint, status *string) ([]models.Assignment, error)
	CountBySubmission(ctx context.Context, submissionID uint) (int64, error)
	UpdateStatusFrom(ctx context.Context, id uint, from, to, rejectReason string) (bool, error)
	RecordScoreFrom(ctx context.Context, id uint, from string, scores datatypes.JSONMap, total float64, evaluatedAt time.Time) (bool, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Insert(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Submission").
		First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("assigned_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) ListByEvaluator(ctx context.Context, evaluatorID uint, status *string) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Preload("Submission").
		Where("evaluator_id = ?", evaluatorID)

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var assignments []models.Assignment
	if err := query.Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) CountBySubmission(ctx context.Context, submissionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateStatusFrom performs the single round-trip check-then-write for
// responding to an assignment. The status predicate makes concurrent
// responders lose cleanly instead of overwriting each other.
func (r *assignmentRepository) UpdateStatusFrom(ctx context.Context, id uint, from, to, rejectReason string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if rejectReason != "" {
		updates["reject_reason"] = rejectReason
	}

	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// RecordScoreFrom writes scores, total and the evaluated transition in
// one guarded update so a lost race leaves no partial score fields.
func (r *assignmentRepository) RecordScoreFrom(ctx context.Context, id uint, from string, scores datatypes.JSONMap, total float64, evaluatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":       models.AssignmentStatusEvaluated,
			"scores":       scores,
			"total_score":  total,
			"evaluated_at": evaluatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
