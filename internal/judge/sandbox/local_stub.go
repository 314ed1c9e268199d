//go:build !linux

package sandbox

import (
	"context"
	"fmt"
)

// LocalConfig controls the process-backed sandbox.
type LocalConfig struct {
	Root           string
	Shell          string
	MaxOutputBytes int64
}

type localSandbox struct{}

func NewLocalSandbox(cfg LocalConfig) (Sandbox, error) {
	return &localSandbox{}, nil
}

func (s *localSandbox) Mkdir(ctx context.Context, path string, opts MkdirOptions) error {
	return fmt.Errorf("local sandbox is only supported on linux")
}

func (s *localSandbox) WriteFile(ctx context.Context, path string, content []byte) error {
	return fmt.Errorf("local sandbox is only supported on linux")
}

func (s *localSandbox) Exec(ctx context.Context, shellCmd string, opts ExecOptions) (ExecResult, error) {
	return ExecResult{}, fmt.Errorf("local sandbox is only supported on linux")
}
