package engine

// PhaseResult is the outcome of a compile or run phase.
type PhaseResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	TimeMs   int64
}

// ErrorType categorizes engine-level failures.
type ErrorType string

const (
	ErrorTimeout ErrorType = "timeout"
	ErrorOOM     ErrorType = "oom"
	ErrorSandbox ErrorType = "sandbox_error"
)

// EngineError is a categorized engine failure with a human-readable message.
type EngineError struct {
	Type    ErrorType
	Message string
}

// ExecutionResult is the engine's complete output for one request. Compile is
// nil when the request had no compile phase. Error is nil on clean execution.
type ExecutionResult struct {
	ExecutionID string
	Compile     *PhaseResult
	Run         PhaseResult
	Error       *EngineError
}
