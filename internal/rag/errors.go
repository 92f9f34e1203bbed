package rag

import "errors"

// GenericMessage is the only failure text ever shown to the user.
const GenericMessage = "Something went wrong."

// Stage names the step of the query path that failed.
type Stage string

const (
	StageInput     Stage = "input"
	StageModelLoad Stage = "model_load"
	StageInference Stage = "inference"
	StageNetwork   Stage = "network"
	StageStatus    Stage = "status"
	StageDecode    Stage = "decode"
)

// Error carries the failing stage for diagnostics.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return string(e.Stage) + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// StageOf returns the stage recorded in err, or "" if err did not come
// from the query path.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// UserMessage maps any error to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return GenericMessage
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "backend responded " + e.Status }
