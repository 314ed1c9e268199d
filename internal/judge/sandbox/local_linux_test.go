//go:build linux

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestSandbox(t *testing.T) (Sandbox, string) {
	t.Helper()
	root := t.TempDir()
	sb, err := NewLocalSandbox(LocalConfig{Root: root})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	return sb, root
}

func TestLocalWriteAndExec(t *testing.T) {
	sb, root := newTestSandbox(t)
	ctx := context.Background()

	if err := sb.Mkdir(ctx, "ws/job-1", MkdirOptions{Recursive: true}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := sb.WriteFile(ctx, "ws/job-1/hello.txt", []byte("hi\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "ws", "job-1", "hello.txt")); err != nil {
		t.Fatalf("file not on host: %v", err)
	}

	res, err := sb.Exec(ctx, "cat ws/job-1/hello.txt", ExecOptions{TimeoutMs: 5000})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.ExitCode != 0 || res.Stdout != "hi\n" {
		t.Fatalf("exec result mismatch: %+v", res)
	}
}

func TestLocalExecCapturesExitAndStderr(t *testing.T) {
	sb, _ := newTestSandbox(t)
	res, err := sb.Exec(context.Background(), "echo oops >&2; exit 3", ExecOptions{TimeoutMs: 5000})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "oops") {
		t.Fatalf("stderr lost: %q", res.Stderr)
	}
}

func TestLocalExecTimeout(t *testing.T) {
	sb, _ := newTestSandbox(t)
	res, err := sb.Exec(context.Background(), "sleep 5", ExecOptions{TimeoutMs: 100})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.ExitCode != ExitTimeout {
		t.Fatalf("expected exit %d on timeout, got %d", ExitTimeout, res.ExitCode)
	}
}

func TestLocalPathEscapeRejected(t *testing.T) {
	sb, _ := newTestSandbox(t)
	ctx := context.Background()
	if err := sb.WriteFile(ctx, "../outside.txt", []byte("x")); err == nil {
		t.Fatalf("relative escape accepted")
	}
	if err := sb.Mkdir(ctx, "/etc/liva-test", MkdirOptions{Recursive: true}); err == nil {
		t.Fatalf("absolute path outside root accepted")
	}
}

func TestLocalOutputCap(t *testing.T) {
	root := t.TempDir()
	sb, err := NewLocalSandbox(LocalConfig{Root: root, MaxOutputBytes: 16})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	res, err := sb.Exec(context.Background(), "yes x | head -c 1000", ExecOptions{TimeoutMs: 5000})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Stdout) > 16 {
		t.Fatalf("stdout exceeds cap: %d bytes", len(res.Stdout))
	}
}
