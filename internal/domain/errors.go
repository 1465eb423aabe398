package domain

import (
	"errors"
	"fmt"
)

// Vote rejections. Each is terminal for the call: the caller is informed and
// may resubmit, nothing is retried automatically.
var (
	// ErrAlreadyVoted rejects a second batch from the same user within one cycle.
	ErrAlreadyVoted = errors.New("user already voted this cycle")

	// ErrInvalidTarget rejects a batch naming an item outside the votable batch.
	ErrInvalidTarget = errors.New("vote targets item outside current batch")

	// ErrStaleCycle rejects a batch built against a superseded cycle.
	ErrStaleCycle = errors.New("vote batch belongs to a previous cycle")

	// ErrUnknownVoter rejects a batch from a user the store does not know.
	ErrUnknownVoter = errors.New("unknown voter")
)

// Stage names one dependent step of the generation pipeline.
type Stage string

const (
	StageTitle   Stage = "title"
	StageBody    Stage = "body"
	StageImage   Stage = "image"
	StageUpload  Stage = "upload"
	StagePersist Stage = "persist"
)

// StageError reports which pipeline stage failed for a category attempt.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// NewStageError wraps a stage failure cause.
func NewStageError(stage Stage, cause error) *StageError {
	return &StageError{Stage: stage, Cause: cause}
}

// StoreError marks persistence-layer failures so callers can tell a store
// outage apart from a vote rejection or a provider failure.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError wraps a store failure for the named operation.
func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{Op: op, Cause: cause}
}
