package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	commonmw "liva/internal/common/http/middleware"
	"liva/internal/judge/controller"
	"liva/internal/judge/harness"
	"liva/internal/judge/observer"
	"liva/internal/judge/sandbox"
	"liva/internal/judge/sandbox/engine"
	"liva/internal/judge/service"
	"liva/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	engines, err := buildEngines(appCfg)
	if err != nil {
		logger.Error(context.Background(), "init execution engines failed", zap.Error(err))
		return
	}

	registry := harness.NewRegistry(harness.NewJavaBuilder(appCfg.Java))
	judgeSvc, err := service.NewService(appCfg.Judge, registry, engines, observer.LogMetricsRecorder{})
	if err != nil {
		logger.Error(context.Background(), "init judge service failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg.Server, judgeSvc)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.Int("engine_pool", len(engines)))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

// buildEngines creates the engine pool. Each engine serializes its own
// executions, so the pool size is the judging concurrency.
func buildEngines(appCfg *AppConfig) ([]engine.Engine, error) {
	engines := make([]engine.Engine, 0, appCfg.Engine.PoolSize)
	for i := 0; i < appCfg.Engine.PoolSize; i++ {
		sb, err := sandbox.NewLocalSandbox(sandbox.LocalConfig{
			Root:           appCfg.Sandbox.Root,
			Shell:          appCfg.Sandbox.Shell,
			MaxOutputBytes: appCfg.Sandbox.MaxOutputBytes,
		})
		if err != nil {
			return nil, err
		}
		eng, err := engine.NewEngine(engine.Config{WorkspaceBase: appCfg.Engine.WorkspaceBase}, sb)
		if err != nil {
			return nil, err
		}
		engines = append(engines, eng)
	}
	return engines, nil
}

func buildHTTPServer(cfg ServerConfig, judgeSvc *service.Service) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	controller.NewJudgeController(judgeSvc).RegisterRoutes(api)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
