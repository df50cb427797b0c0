package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lombahub/lombahub-api/internal/models"
)

// PanelRepository reads judge-panel membership for contests. Membership
// writes happen outside the evaluation core.
type PanelRepository interface {
	ListAcceptedMembers(ctx context.Context, contestID uint) ([]models.PanelMember, error)
}

type panelRepository struct {
	db *gorm.DB
}

// NewPanelRepository instantiates a GORM-backed repository.
func NewPanelRepository(db *gorm.DB) PanelRepository {
	return &panelRepository{db: db}
}

func (r *panelRepository) ListAcceptedMembers(ctx context.Context, contestID uint) ([]models.PanelMember, error) {
	var members []models.PanelMember
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Where("status = ?", models.PanelStatusAccepted).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}
