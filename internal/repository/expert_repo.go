package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
)

// ExpertRepository exposes the evaluator directory to the matching
// policy.
type ExpertRepository interface {
	ListActive(ctx context.Context) ([]models.Expert, error)
	ListBySpeciality(ctx context.Context, code string) ([]models.Expert, error)
}

type expertRepository struct {
	db *gorm.DB
}

// NewExpertRepository instantiates a GORM-backed repository.
func NewExpertRepository(db *gorm.DB) ExpertRepository {
	return &expertRepository{db: db}
}

func (r *expertRepository) ListActive(ctx context.Context) ([]models.Expert, error) {
	var experts []models.Expert
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&experts).Error; err != nil {
		return nil, err
	}

	return experts, nil
}

// ListBySpeciality filters the active directory by speciality code. The
// speciality list is a small JSON column; filtering in Go keeps the
// query portable across the postgres and sqlite dialects the service
// runs against.
func (r *expertRepository) ListBySpeciality(ctx context.Context, code string) ([]models.Expert, error) {
	experts, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Expert, 0, len(experts))
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
