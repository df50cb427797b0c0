package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assignment links one submission to one evaluator. The composite unique
// index on (submission_id, evaluator_id) is the authoritative guard
// against double-assignment; concurrent creators rely on the insert
// failing rather than on any in-process coordination.
type Assignment struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"not null;uniqueIndex:idx_assignments_pair" json:"submission_id"`
	EvaluatorID  uint              `gorm:"not null;uniqueIndex:idx_assignments_pair;index" json:"evaluator_id"`
	Status       string            `gorm:"size:32;not null;default:pending" json:"status"`
	Scores       datatypes.JSONMap `json:"scores"`
	TotalScore   *float64          `json:"total_score"`
	RejectReason string            `gorm:"type:text" json:"reject_reason"`
	AssignedAt   time.Time         `gorm:"not null" json:"assigned_at"`
	EvaluatedAt  *time.Time        `json:"evaluated_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Submission   Submission        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

const (
	// AssignmentStatusPending indicates the evaluator has not responded yet.
	AssignmentStatusPending = "pending"
	// AssignmentStatusAccepted indicates the evaluator agreed to evaluate.
	AssignmentStatusAccepted = "accepted"
	// AssignmentStatusRejected indicates the evaluator declined; terminal.
	AssignmentStatusRejected = "rejected"
	// AssignmentStatusEvaluated indicates scores have been recorded.
	AssignmentStatusEvaluated = "evaluated"
)

// IsEvaluated reports whether the assignment carries a recorded score.
func (a Assignment) IsEvaluated() bool {
	return a.Status == AssignmentStatusEvaluated
}

// ScoreValues converts the persisted JSON scores into a numeric map.
// Values written by the scoring path are always numbers; anything else
// is skipped.
func (a Assignment) ScoreValues() map[string]float64 {
	if len(a.Scores) == 0 {
		return nil
	}

	values := make(map[string]float64, len(a.Scores))
	for key, raw := range a.Scores {
		if v, ok := raw.(float64); ok {
			values[key] = v
		}
	}
	return values
}
