package dto

import "time"

// ContestFinalizeResponse summarizes a finalization pass.
type ContestFinalizeResponse struct {
	ContestID            uint       `json:"contest_id"`
	Status               string     `json:"status"`
	AnnouncedAt          *time.Time `json:"announced_at"`
	SubmissionsProcessed int        `json:"submissions_processed"`
	ScoresWritten        int        `json:"scores_written"`
	Failures             int        `json:"failures"`
	OwnersNotified       int        `json:"owners_notified"`
}

// ReconcileRequest optionally scopes a reconciliation run to one contest.
type ReconcileRequest struct {
	ContestID *uint `json:"contest_id" validate:"omitempty,gt=0"`
}

// ReconcileOutcome reports the action taken for one submission during a
// reconciliation run.
type ReconcileOutcome struct {
	SubmissionID uint   `json:"submission_id"`
	Action       string `json:"action"`
}
