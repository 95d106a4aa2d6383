package emrdash

import "fmt"

// Stage identifies a step of the analysis pipeline. An invocation moves
// strictly forward through the stages; no stage is re-entered and there is
// no orchestration-level retry (the correction stage retries transport
// failures internally).
type Stage string

const (
	StageReceived    Stage = "received"
	StageExtracting  Stage = "extracting"
	StageCorrecting  Stage = "correcting"
	StageReconciling Stage = "reconciling"
	StageAssembled   Stage = "assembled"
	StageDelivered   Stage = "delivered"
)

// StageError is the terminal failure state: it names the stage that failed
// and wraps the category sentinel (ErrUnsupportedFormat, ErrExtraction,
// ErrCorrection) plus the underlying cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
