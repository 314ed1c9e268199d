package main

import (
	"fmt"
	"os"
	"time"

	"liva/internal/judge/harness"
	"liva/internal/judge/service"
	"liva/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 120 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultWorkspaceBase = "/var/lib/liva/workspaces"
	defaultEnginePool    = 2
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// SandboxConfig holds local sandbox settings.
type SandboxConfig struct {
	Root           string `yaml:"root"`
	Shell          string `yaml:"shell"`
	MaxOutputBytes int64  `yaml:"maxOutputBytes"`
}

// EngineConfig holds execution engine settings.
type EngineConfig struct {
	WorkspaceBase string `yaml:"workspaceBase"`
	// PoolSize bounds how many submissions execute concurrently.
	PoolSize int `yaml:"poolSize"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server  ServerConfig       `yaml:"server"`
	Logger  logger.Config      `yaml:"logger"`
	Judge   service.Config     `yaml:"judge"`
	Sandbox SandboxConfig      `yaml:"sandbox"`
	Engine  EngineConfig       `yaml:"engine"`
	Java    harness.JavaConfig `yaml:"java"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		// Judging is synchronous; the write timeout must outlast a full run.
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Engine.WorkspaceBase == "" {
		cfg.Engine.WorkspaceBase = defaultWorkspaceBase
	}
	if cfg.Engine.PoolSize <= 0 {
		cfg.Engine.PoolSize = defaultEnginePool
	}
	if cfg.Sandbox.Root == "" {
		cfg.Sandbox.Root = cfg.Engine.WorkspaceBase
	}
	return &cfg, nil
}
