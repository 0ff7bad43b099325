package pipeline

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageSTT     Stage = "stt"
	StageLLM     Stage = "llm"
	StageTTS     Stage = "tts"
	StagePersist Stage = "persist"
)

// ErrDeadline marks a turn abandoned at the hard deadline.
var ErrDeadline = errors.New("turn deadline exceeded")

// StageError is a turn failure attributed to the stage that caused it.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Cause: err}
}

// FailedStage returns the stage of a StageError, or "" for other errors.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
