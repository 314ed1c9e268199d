package engine

// FileSpec is one file to materialize in the workspace. Path is relative to
// the workspace root and must not contain ".." segments.
type FileSpec struct {
	Path       string
	Content    string
	Executable bool
}

// PhaseSpec describes the compile phase.
type PhaseSpec struct {
	Cmd       string
	TimeoutMs int64
}

// RunSpec describes the run phase. Stdin, when non-empty, is written to a file
// in the workspace and redirected onto the command.
type RunSpec struct {
	Cmd       string
	Stdin     string
	TimeoutMs int64
}

// Limits are the resource caps for one execution. The engine enforces wall
// clock through the sandbox; the memory cap is enforced by the runtime
// launcher in the run command and verified via OOM signatures.
type Limits struct {
	CPUMs    int64
	MemoryMb int64
}

// ExecutionRequest is one compile+run job. ExecutionID must be unique per
// engine invocation; it keys the isolated workspace directory.
type ExecutionRequest struct {
	ExecutionID string
	Language    string
	Files       []FileSpec
	// Compile is nil for interpreted languages; the engine skips to run.
	Compile *PhaseSpec
	Run     RunSpec
	Limits  Limits
	Env     map[string]string
	// Cwd, when set, is the working directory relative to the workspace root.
	Cwd string
}
