// Package sandbox defines the isolated-filesystem capability consumed by the
// execution engine, and a process-backed implementation of it.
package sandbox

import "context"

// ExitTimeout is the exit code Exec reports when the wall-clock timeout trips.
const ExitTimeout = 124

// MkdirOptions controls directory creation.
type MkdirOptions struct {
	Recursive bool
}

// ExecOptions controls one shell execution.
type ExecOptions struct {
	// TimeoutMs is the wall-clock limit. Zero means no limit.
	TimeoutMs int64
}

// ExecResult is the observed outcome of one shell execution.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Sandbox exposes an isolated filesystem with shell execution. Instances are
// stateless between calls but serialized: no concurrent execs per instance.
type Sandbox interface {
	Mkdir(ctx context.Context, path string, opts MkdirOptions) error
	WriteFile(ctx context.Context, path string, content []byte) error
	// Exec runs a shell command, enforcing TimeoutMs as wall clock. When the
	// timeout trips it returns promptly with ExitCode=ExitTimeout.
	Exec(ctx context.Context, shellCmd string, opts ExecOptions) (ExecResult, error)
}
