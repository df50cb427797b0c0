package dto

import (
	"time"

	"github.com/lombahub/lombahub-api/internal/models"
)

// AssignmentCreateRequest asks for a definitive assignment of one
// submission to one evaluator.
type AssignmentCreateRequest struct {
	SubmissionID uint `json:"submission_id" validate:"required,gt=0"`
	EvaluatorID  uint `json:"evaluator_id" validate:"required,gt=0"`
}

// AssignmentRespondRequest carries an evaluator's accept/reject decision.
type AssignmentRespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
	Reason   string `json:"reason" validate:"omitempty,max=1000"`
}

// AssignmentScoreRequest carries a completed score sheet. TotalScore is
// optional; when present it must equal the sum of the sheet.
type AssignmentScoreRequest struct {
	Scores     map[string]float64 `json:"scores" validate:"required,min=1"`
	TotalScore *float64           `json:"total_score" validate:"omitempty,gte=0"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID           uint               `json:"id"`
	SubmissionID uint               `json:"submission_id"`
	EvaluatorID  uint               `json:"evaluator_id"`
	Status       string             `json:"status"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	TotalScore   *float64           `json:"total_score"`
	RejectReason string             `json:"reject_reason,omitempty"`
	AssignedAt   time.Time          `json:"assigned_at"`
	EvaluatedAt  *time.Time         `json:"evaluated_at"`
	Submission   *SubmissionLite    `json:"submission,omitempty"`
}

// SubmissionLite summarizes a submission inside assignment payloads.
type SubmissionLite struct {
	ID           uint     `json:"id"`
	OwnerID      uint     `json:"owner_id"`
	CategoryCode string   `json:"category_code"`
	ContestID    *uint    `json:"contest_id"`
	Status       string   `json:"status"`
	FinalScore   *float64 `json:"final_score"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		EvaluatorID:  model.EvaluatorID,
		Status:       model.Status,
		Scores:       model.ScoreValues(),
		TotalScore:   model.TotalScore,
		RejectReason: model.RejectReason,
		AssignedAt:   model.AssignedAt,
		EvaluatedAt:  model.EvaluatedAt,
	}

	if model.Submission.ID != 0 {
		response.Submission = &SubmissionLite{
			ID:           model.Submission.ID,
			OwnerID:      model.Submission.OwnerID,
			CategoryCode: model.Submission.CategoryCode,
			ContestID:    model.Submission.ContestID,
			Status:       model.Submission.Status,
			FinalScore:   model.Submission.FinalScore,
		}
	}

	return response
}

// NewAssignmentResponseSlice maps a slice of models to DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}

// PanelAssignOutcome reports the per-member result of a panel fan-out.
type PanelAssignOutcome struct {
	EvaluatorID uint   `json:"evaluator_id"`
	Action      string `json:"action"`
}

// SweepOutcome reports the per-submission result of a matching sweep.
type SweepOutcome struct {
	SubmissionID uint   `json:"submission_id"`
	EvaluatorID  *uint  `json:"evaluator_id,omitempty"`
	Action       string `json:"action"`
}
