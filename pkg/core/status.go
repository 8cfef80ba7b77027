package core

// StepStatus represents the execution status of a scenario or attempt
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // A check failed (expected behavior didn't occur)
	StatusErrored                   // Unexpected error (driver, timeout, panic)
	StatusSkipped                   // Skipped by the scenario or the run was cancelled
	StatusWarned                    // Passed with warnings
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorKind classifies failures raised below the page layer
type ErrorKind int

const (
	KindNone              ErrorKind = iota // No error
	KindNotFound                           // Every locator strategy returned zero matches
	KindNotInteractable                    // Present but not visible/enabled
	KindIntercepted                        // Click obscured by another element
	KindStale                              // Element detached from the document
	KindTimeout                            // Wait window elapsed
	KindDataSourceMissing                  // Workbook or sheet absent
	KindUnsupported                        // Feature not offered by the application
	KindActionFailed                       // Click fallback chain exhausted
	KindInvalidArgument                    // Malformed identifier, invalid state transition
	KindSession                            // Driver or transport failure
	KindAssertion                          // Scenario check failed
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindNotInteractable:
		return "not_interactable"
	case KindIntercepted:
		return "intercepted"
	case KindStale:
		return "stale"
	case KindTimeout:
		return "timeout"
	case KindDataSourceMissing:
		return "data_source_missing"
	case KindUnsupported:
		return "unsupported"
	case KindActionFailed:
		return "action_failed"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindSession:
		return "session"
	case KindAssertion:
		return "assertion"
	default:
		return "unknown"
	}
}

// Level is the severity of a reported scenario step.
type Level string

// Level values
const (
	LevelInfo    Level = "info"
	LevelPass    Level = "pass"
	LevelFail    Level = "fail"
	LevelWarning Level = "warning"
	LevelSkip    Level = "skip"
)
