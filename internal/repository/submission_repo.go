package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	ContestID *uint
	OwnerID   *uint
	Statuses  []string
}

// SubmissionWithAssignments is the typed aggregate returned when a caller
// needs a submission together with its evaluation assignments in one read.
type SubmissionWithAssignments struct {
	Submission  models.Submission
	Assignments []models.Assignment
}

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetWithAssignments(ctx context.Context, id uint) (SubmissionWithAssignments, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	ListUnassigned(ctx context.Context) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateFinalScore(ctx context.Context, id uint, score *float64) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates a GORM-backed repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetWithAssignments(ctx context.Context, id uint) (SubmissionWithAssignments, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return SubmissionWithAssignments{}, err
	}

	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		Order("assigned_at ASC").
		Find(&assignments).Error; err != nil {
		return SubmissionWithAssignments{}, err
	}

	return SubmissionWithAssignments{Submission: submission, Assignments: assignments}, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.ContestID != nil {
		query = query.Where("contest_id = ?", *filter.ContestID)
	}

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var submissions []models.Submission
	if err := query.Order("created_at ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListUnassigned returns approved quality-mode submissions that have no
// assignment rows yet. The sweep re-verifies each candidate before
// inserting, so a stale row here is harmless.
func (r *submissionRepository) ListUnassigned(ctx context.Context) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.SubmissionStatusApproved).
		Where("contest_id IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM assignments WHERE assignments.submission_id = submissions.id)").
		Order("created_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) UpdateFinalScore(ctx context.Context, id uint, score *float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("final_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
