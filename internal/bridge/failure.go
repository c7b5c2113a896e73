package bridge

// FailureKind classifies why a pipeline step failed. It is attached to log
// records only and never returned to callers.
type FailureKind string

const (
	FailureMissingDependency FailureKind = "missing_dependency"
	FailureMissingSource     FailureKind = "missing_source"
	FailureInvocation        FailureKind = "invocation_error"
	FailureRead              FailureKind = "read_error"
	FailureWrite             FailureKind = "write_error"
)

// failureKey is the log attribute carrying a FailureKind.
const failureKey = "failure"
