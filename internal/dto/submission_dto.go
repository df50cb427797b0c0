package dto

import (
	"time"

	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/repository"
)

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint      `json:"id"`
	OwnerID      uint      `json:"owner_id"`
	CategoryCode string    `json:"category_code"`
	ContestID    *uint     `json:"contest_id"`
	Status       string    `json:"status"`
	FinalScore   *float64  `json:"final_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubmissionDetailResponse adds the evaluation assignments and derived
// aggregate state to a submission payload.
type SubmissionDetailResponse struct {
	SubmissionResponse
	Assignments    []AssignmentResponse `json:"assignments"`
	EvaluatedCount int                  `json:"evaluated_count"`
	FullyEvaluated bool                 `json:"fully_evaluated"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		OwnerID:      model.OwnerID,
		CategoryCode: model.CategoryCode,
		ContestID:    model.ContestID,
		Status:       model.Status,
		FinalScore:   model.FinalScore,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewSubmissionDetailResponse converts the typed aggregate into a DTO.
func NewSubmissionDetailResponse(aggregate repository.SubmissionWithAssignments, evaluatedCount int, fullyEvaluated bool) SubmissionDetailResponse {
	return SubmissionDetailResponse{
		SubmissionResponse: NewSubmissionResponse(aggregate.Submission),
		Assignments:        NewAssignmentResponseSlice(aggregate.Assignments),
		EvaluatedCount:     evaluatedCount,
		FullyEvaluated:     fullyEvaluated,
	}
}
