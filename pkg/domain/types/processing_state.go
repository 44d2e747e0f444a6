package types

// ProcessingState tracks the lifecycle of a single processing attempt.
// Terminal states never transition; reprocessing a document starts a
// fresh attempt with its own state machine instance.
type ProcessingState string

const (
	ProcessingStatePending        ProcessingState = "pending"
	ProcessingStateDispatched     ProcessingState = "dispatched"
	ProcessingStateCompleted      ProcessingState = "completed"
	ProcessingStatePartialFailure ProcessingState = "partial_failure"
	ProcessingStateFailed         ProcessingState = "failed"
)

// IsTerminal reports whether the state permits no further transitions
func (s ProcessingState) IsTerminal() bool {
	switch s {
	case ProcessingStateCompleted, ProcessingStatePartialFailure, ProcessingStateFailed:
		return true
	default:
		return false
	}
}

// CanTransition checks whether moving to the next state is allowed
func (s ProcessingState) CanTransition(next ProcessingState) bool {
	switch s {
	case ProcessingStatePending:
		return next == ProcessingStateDispatched
	case ProcessingStateDispatched:
		return next.IsTerminal()
	default:
		return false
	}
}

// StateForRecordStatus maps a derived record status to the terminal state
func StateForRecordStatus(status RecordStatus) ProcessingState {
	switch status {
	case RecordStatusComplete:
		return ProcessingStateCompleted
	case RecordStatusPartial:
		return ProcessingStatePartialFailure
	default:
		return ProcessingStateFailed
	}
}

// String returns the string representation of the processing state
func (s ProcessingState) String() string {
	return string(s)
}
