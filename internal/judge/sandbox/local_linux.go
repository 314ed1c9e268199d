//go:build linux

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	appErr "liva/pkg/errors"
	"liva/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultMaxOutputBytes int64 = 1 << 20

// LocalConfig controls the process-backed sandbox.
type LocalConfig struct {
	// Root is the host directory the sandbox filesystem maps onto.
	Root string
	// Shell defaults to /bin/sh.
	Shell string
	// MaxOutputBytes caps captured stdout/stderr per exec.
	MaxOutputBytes int64
}

// localSandbox runs commands as host processes rooted at a directory. It is
// an isolation stand-in, not a security boundary; production deployments put
// a container or VM behind the same interface.
type localSandbox struct {
	cfg LocalConfig
	mu  sync.Mutex
}

// NewLocalSandbox creates a process-backed sandbox rooted at cfg.Root.
func NewLocalSandbox(cfg LocalConfig) (Sandbox, error) {
	if cfg.Root == "" {
		return nil, appErr.ValidationError("root", "required")
	}
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.SandboxError, "create sandbox root failed")
	}
	return &localSandbox{cfg: cfg}, nil
}

func (s *localSandbox) Mkdir(ctx context.Context, path string, opts MkdirOptions) error {
	host, err := s.resolve(path)
	if err != nil {
		return err
	}
	if opts.Recursive {
		err = os.MkdirAll(host, 0755)
	} else {
		err = os.Mkdir(host, 0755)
	}
	if err != nil {
		return appErr.Wrapf(err, appErr.SandboxError, "mkdir %s failed", path)
	}
	return nil
}

func (s *localSandbox) WriteFile(ctx context.Context, path string, content []byte) error {
	host, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(host), 0755); err != nil {
		return appErr.Wrapf(err, appErr.SandboxError, "create parent dir failed")
	}
	if err := os.WriteFile(host, content, 0644); err != nil {
		return appErr.Wrapf(err, appErr.SandboxError, "write %s failed", path)
	}
	return nil
}

func (s *localSandbox) Exec(ctx context.Context, shellCmd string, opts ExecOptions) (ExecResult, error) {
	if strings.TrimSpace(shellCmd) == "" {
		return ExecResult{}, appErr.ValidationError("shell_cmd", "required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := exec.Command(s.cfg.Shell, "-c", shellCmd)
	cmd.Dir = s.cfg.Root
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pdeathsig: syscall.SIGKILL}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &cappedWriter{buf: &stdout, limit: s.cfg.MaxOutputBytes}
	cmd.Stderr = &cappedWriter{buf: &stderr, limit: s.cfg.MaxOutputBytes}

	if err := cmd.Start(); err != nil {
		return ExecResult{}, appErr.Wrapf(err, appErr.SandboxError, "start command failed")
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		var timer <-chan time.Time
		if opts.TimeoutMs > 0 {
			timer = time.After(time.Duration(opts.TimeoutMs) * time.Millisecond)
		}
		select {
		case <-ctx.Done():
			killProcessGroup(cmd.Process.Pid)
		case <-timer:
			timedOut.Store(true)
			killProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	res := ExecResult{
		ExitCode: exitCodeFromErr(waitErr, cmd.ProcessState),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if timedOut.Load() {
		res.ExitCode = ExitTimeout
	}
	if ctx.Err() != nil {
		return res, appErr.Wrap(ctx.Err(), appErr.SandboxError)
	}
	if waitErr != nil && !timedOut.Load() && res.ExitCode < 0 {
		logger.Warn(ctx, "sandbox exec wait failed", zap.Error(waitErr))
	}
	return res, nil
}

// resolve maps a sandbox path onto the host. Relative paths are rooted at the
// sandbox root; absolute paths must already live under it.
func (s *localSandbox) resolve(path string) (string, error) {
	root := filepath.Clean(s.cfg.Root)
	host := filepath.Clean(path)
	if !filepath.IsAbs(host) {
		host = filepath.Join(root, host)
	}
	if host != root && !strings.HasPrefix(host, root+string(filepath.Separator)) {
		return "", appErr.New(appErr.InvalidParams).WithMessage("path escapes sandbox root")
	}
	return host, nil
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

type cappedWriter struct {
	buf   *bytes.Buffer
	limit int64
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - int64(w.buf.Len())
	if remaining <= 0 {
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
