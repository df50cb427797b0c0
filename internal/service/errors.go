package service

import "errors"

// Domain errors surfaced by the evaluation services. Handlers map these
// onto HTTP status codes; batch callers match on them to decide which
// per-item failures are recoverable.
var (
	// ErrSubmissionNotFound indicates the submission was not located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAssignmentNotFound indicates the assignment was not located.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrContestNotFound indicates the contest was not located.
	ErrContestNotFound = errors.New("contest not found")
	// ErrInvalidState indicates a transition from an illegal source state.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrUnauthorized indicates the actor may not act on this assignment.
	ErrUnauthorized = errors.New("actor not authorized")
	// ErrInvalidInput indicates a malformed decision or score sheet.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateAssignment indicates the (submission, evaluator) pair
	// already exists. Ensure-assigned callers treat it as benign.
	ErrDuplicateAssignment = errors.New("assignment already exists for this evaluator")
	// ErrNoEligibleEvaluator indicates matching found zero candidates.
	ErrNoEligibleEvaluator = errors.New("no eligible evaluator available")
	// ErrEmptyContest indicates finalization found no approved submissions.
	ErrEmptyContest = errors.New("contest has no approved submissions")
)
