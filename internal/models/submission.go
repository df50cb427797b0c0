package models

import "time"

// Submission represents a contest entry awaiting or undergoing evaluation.
// A nil ContestID means the submission is evaluated in quality mode by a
// single matched expert; a non-nil ContestID ties it to a contest judged
// by the full accepted panel.
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      uint      `gorm:"not null;index" json:"owner_id"`
	CategoryCode string    `gorm:"size:64;not null;index" json:"category_code"`
	ContestID    *uint     `gorm:"index" json:"contest_id"`
	Status       string    `gorm:"size:32;not null;default:pending" json:"status"`
	FinalScore   *float64  `json:"final_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	// SubmissionStatusPending indicates the entry has not passed intake review yet.
	SubmissionStatusPending = "pending"
	// SubmissionStatusApproved indicates the entry is eligible for evaluation.
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected indicates the entry was refused at intake.
	SubmissionStatusRejected = "rejected"
	// SubmissionStatusEvaluated indicates all required evaluations are in.
	SubmissionStatusEvaluated = "evaluated"
)

// IsContestEntry reports whether the submission competes inside a contest.
func (s Submission) IsContestEntry() bool {
	return s.ContestID != nil
}

// IsEvaluable reports whether the submission may still receive assignments.
func (s Submission) IsEvaluable() bool {
	return s.Status == SubmissionStatusApproved
}
