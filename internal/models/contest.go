package models

import "time"

// Contest groups competition-mode submissions under a judge panel.
type Contest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Status      string     `gorm:"size:32;not null;default:open" json:"status"`
	AnnouncedAt *time.Time `json:"announced_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	// ContestStatusOpen indicates the contest is still receiving entries.
	ContestStatusOpen = "open"
	// ContestStatusJudging indicates entries are closed and evaluation is underway.
	ContestStatusJudging = "judging"
	// ContestStatusAnnounced indicates results are final; terminal.
	ContestStatusAnnounced = "announced"
)

// IsAnnounced reports whether the contest has been finalized.
func (c Contest) IsAnnounced() bool {
	return c.Status == ContestStatusAnnounced
}

// PanelMember records an expert's judging membership for a contest.
// Membership lifecycle is managed outside the evaluation core; the core
// only reads accepted members when fanning out assignments.
type PanelMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContestID   uint      `gorm:"not null;uniqueIndex:idx_panel_members_pair" json:"contest_id"`
	EvaluatorID uint      `gorm:"not null;uniqueIndex:idx_panel_members_pair" json:"evaluator_id"`
	Status      string    `gorm:"size:32;not null;default:pending" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	// PanelStatusPending indicates the invitation has not been answered.
	PanelStatusPending = "pending"
	// PanelStatusAccepted indicates the expert judges this contest.
	PanelStatusAccepted = "accepted"
	// PanelStatusRejected indicates the expert declined the panel seat.
	PanelStatusRejected = "rejected"
)
