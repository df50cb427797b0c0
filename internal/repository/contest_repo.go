package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
)

// ContestRepository defines persistence operations for contests.
type ContestRepository interface {
	GetByID(ctx context.Context, id uint) (models.Contest, error)
	MarkAnnounced(ctx context.Context, id uint, announcedAt time.Time) error
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository instantiates a GORM-backed repository.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	var contest models.Contest
	if err := r.db.WithContext(ctx).First(&contest, id).Error; err != nil {
		return models.Contest{}, err
	}

	return contest, nil
}

func (r *contestRepository) MarkAnnounced(ctx context.Context, id uint, announcedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.ContestStatusAnnounced,
			"announced_at": announcedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
