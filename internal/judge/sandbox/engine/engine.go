// Package engine turns ExecutionRequests into ExecutionResults: it
// materializes files in an isolated workspace, runs an optional compile phase
// and a run phase under wall-clock limits, and always cleans up. The engine
// has no knowledge of test cases, comparators, or verdicts.
package engine

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"liva/internal/judge/sandbox"
	"liva/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultWorkspaceBase = "/var/lib/liva/workspaces"
	stdinFileName        = ".judge_stdin"
	minMemoryMb          = 16

	// Exit code reaped for a process killed by the kernel OOM killer.
	exitOOMKilled = 137

	skippedRunStderr = "Skipped due to compilation failure"
)

// oomSignatures are stderr fragments that mark a memory-cap kill.
var oomSignatures = []string{
	"OutOfMemoryError",
	"Cannot allocate memory",
	"std::bad_alloc",
}

// Config controls engine behavior.
type Config struct {
	// WorkspaceBase is the sandbox directory workspaces are created under.
	WorkspaceBase string
}

// Engine executes one compile+run job inside a sandbox workspace. Execute
// always returns a result and never panics; engine-level failures are
// categorized in ExecutionResult.Error.
type Engine interface {
	Execute(ctx context.Context, req ExecutionRequest) ExecutionResult
}

type defaultEngine struct {
	cfg Config
	sb  sandbox.Sandbox
	mu  sync.Mutex
}

// NewEngine creates an engine over the given sandbox. Calls on one engine
// instance are serialized; concurrency is the caller's responsibility.
func NewEngine(cfg Config, sb sandbox.Sandbox) (Engine, error) {
	if sb == nil {
		return nil, fmt.Errorf("sandbox is required")
	}
	if cfg.WorkspaceBase == "" {
		cfg.WorkspaceBase = defaultWorkspaceBase
	}
	return &defaultEngine{cfg: cfg, sb: sb}, nil
}

var (
	defaultOnce   sync.Once
	defaultShared Engine
	defaultErr    error
)

// Default returns the lazily-created process-wide engine backed by a local
// sandbox. Tests should construct their own engine with an injected sandbox.
func Default() (Engine, error) {
	defaultOnce.Do(func() {
		sb, err := sandbox.NewLocalSandbox(sandbox.LocalConfig{Root: defaultWorkspaceBase})
		if err != nil {
			defaultErr = err
			return
		}
		defaultShared, defaultErr = NewEngine(Config{}, sb)
	})
	return defaultShared, defaultErr
}

func (e *defaultEngine) Execute(ctx context.Context, req ExecutionRequest) ExecutionResult {
	res := ExecutionResult{ExecutionID: req.ExecutionID}

	if err := validateRequest(req); err != nil {
		res.Error = &EngineError{Type: ErrorSandbox, Message: err.Error()}
		res.Run = PhaseResult{Success: false, ExitCode: -1, Stderr: err.Error()}
		return res
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	root := path.Join(e.cfg.WorkspaceBase, req.ExecutionID)
	defer e.cleanup(ctx, root)

	if err := e.materialize(ctx, root, req.Files); err != nil {
		res.Error = &EngineError{Type: ErrorSandbox, Message: err.Error()}
		res.Run = PhaseResult{Success: false, ExitCode: -1, Stderr: err.Error()}
		return res
	}

	cwd := root
	if req.Cwd != "" {
		cwd = path.Join(root, req.Cwd)
	}

	if req.Compile != nil {
		compile, engErr := e.runPhase(ctx, cwd, req.Env, req.Compile.Cmd, "", req.Compile.TimeoutMs)
		res.Compile = &compile
		if engErr != nil {
			res.Error = engErr
			res.Run = PhaseResult{Success: false, ExitCode: -1, Stderr: engErr.Message}
			return res
		}
		if !compile.Success {
			// Compile failure is not an engine error; the judge maps it to CE.
			res.Run = PhaseResult{Success: false, ExitCode: -1, Stderr: skippedRunStderr}
			return res
		}
	}

	stdinPath := ""
	if req.Run.Stdin != "" {
		stdinPath = path.Join(root, stdinFileName)
		if err := e.sb.WriteFile(ctx, stdinPath, []byte(req.Run.Stdin)); err != nil {
			msg := fmt.Sprintf("write stdin file: %v", err)
			res.Error = &EngineError{Type: ErrorSandbox, Message: msg}
			res.Run = PhaseResult{Success: false, ExitCode: -1, Stderr: msg}
			return res
		}
	}

	run, engErr := e.runPhase(ctx, cwd, req.Env, req.Run.Cmd, stdinPath, req.Run.TimeoutMs)
	res.Run = run
	if engErr != nil {
		res.Error = engErr
	}
	return res
}

// runPhase executes one phase command and classifies its outcome. The
// returned EngineError is nil for plain non-zero exits.
func (e *defaultEngine) runPhase(ctx context.Context, cwd string, env map[string]string, cmd, stdinPath string, timeoutMs int64) (PhaseResult, *EngineError) {
	shellCmd := buildShellCommand(cwd, env, cmd, stdinPath)

	start := time.Now()
	execRes, err := e.sb.Exec(ctx, shellCmd, sandbox.ExecOptions{TimeoutMs: timeoutMs})
	elapsed := time.Since(start).Milliseconds()

	phase := PhaseResult{
		ExitCode: execRes.ExitCode,
		Stdout:   execRes.Stdout,
		Stderr:   execRes.Stderr,
		TimeMs:   elapsed,
	}
	if err != nil {
		phase.Success = false
		if phase.Stderr == "" {
			phase.Stderr = err.Error()
		}
		return phase, &EngineError{Type: ErrorSandbox, Message: err.Error()}
	}
	if execRes.ExitCode == sandbox.ExitTimeout {
		phase.Success = false
		return phase, &EngineError{
			Type:    ErrorTimeout,
			Message: fmt.Sprintf("wall clock limit of %dms exceeded", timeoutMs),
		}
	}
	if oomKilled(execRes) {
		phase.Success = false
		return phase, &EngineError{Type: ErrorOOM, Message: "process exceeded the memory limit"}
	}
	phase.Success = execRes.ExitCode == 0
	return phase, nil
}

func (e *defaultEngine) materialize(ctx context.Context, root string, files []FileSpec) error {
	if err := e.sb.Mkdir(ctx, root, sandbox.MkdirOptions{Recursive: true}); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	// Files are written in declared order.
	for _, f := range files {
		target := path.Join(root, f.Path)
		if dir := path.Dir(target); dir != root {
			if err := e.sb.Mkdir(ctx, dir, sandbox.MkdirOptions{Recursive: true}); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", f.Path, err)
			}
		}
		if err := e.sb.WriteFile(ctx, target, []byte(f.Content)); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		if f.Executable {
			chmod := "chmod +x " + shellQuote(target)
			chmodRes, err := e.sb.Exec(ctx, chmod, sandbox.ExecOptions{})
			if err != nil {
				return fmt.Errorf("chmod %s: %w", f.Path, err)
			}
			if chmodRes.ExitCode != 0 {
				return fmt.Errorf("chmod %s: exit code %d: %s", f.Path, chmodRes.ExitCode, strings.TrimSpace(chmodRes.Stderr))
			}
		}
	}
	return nil
}

// cleanup removes the workspace on every exit path. Failures are logged and
// swallowed.
func (e *defaultEngine) cleanup(ctx context.Context, root string) {
	cmd := "rm -rf " + shellQuote(root)
	if _, err := e.sb.Exec(context.WithoutCancel(ctx), cmd, sandbox.ExecOptions{}); err != nil {
		logger.Warn(ctx, "workspace cleanup failed",
			zap.String("workspace", root), zap.Error(err))
	}
}

func validateRequest(req ExecutionRequest) error {
	if req.ExecutionID == "" {
		return fmt.Errorf("execution id is required")
	}
	if strings.ContainsAny(req.ExecutionID, "/\\") {
		return fmt.Errorf("execution id must not contain path separators")
	}
	for _, f := range req.Files {
		if f.Path == "" || path.IsAbs(f.Path) {
			return fmt.Errorf("file path must be relative: %q", f.Path)
		}
		for _, seg := range strings.Split(path.Clean(f.Path), "/") {
			if seg == ".." {
				return fmt.Errorf("file path must not contain '..': %q", f.Path)
			}
		}
	}
	if req.Compile != nil && req.Compile.TimeoutMs <= 0 {
		return fmt.Errorf("compile timeout must be positive")
	}
	if strings.TrimSpace(req.Run.Cmd) == "" {
		return fmt.Errorf("run command is required")
	}
	if req.Run.TimeoutMs <= 0 {
		return fmt.Errorf("run timeout must be positive")
	}
	if req.Limits.MemoryMb < minMemoryMb {
		return fmt.Errorf("memory limit must be at least %dMB", minMemoryMb)
	}
	return nil
}

// buildShellCommand wraps a phase command with cwd, env exports, and stdin
// redirection. Redirecting from a file keeps arbitrary binary-safe bytes off
// the command line.
func buildShellCommand(cwd string, env map[string]string, cmd, stdinPath string) string {
	var b strings.Builder
	b.WriteString("cd ")
	b.WriteString(shellQuote(cwd))
	b.WriteString(" && ")

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(shellQuote(env[k]))
		b.WriteString(" ")
	}

	b.WriteString(cmd)
	if stdinPath != "" {
		b.WriteString(" < ")
		b.WriteString(shellQuote(stdinPath))
	}
	return b.String()
}

func oomKilled(res sandbox.ExecResult) bool {
	if res.ExitCode == exitOOMKilled {
		return true
	}
	if res.ExitCode == 0 {
		return false
	}
	for _, sig := range oomSignatures {
		if strings.Contains(res.Stderr, sig) {
			return true
		}
	}
	return false
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
