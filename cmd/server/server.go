package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/LodestoneMC-org/backend/cmd/root"
	"github.com/LodestoneMC-org/backend/controllers"
	"github.com/LodestoneMC-org/backend/internal/config"
	"github.com/LodestoneMC-org/backend/internal/env"
	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/middleware"
	"github.com/LodestoneMC-org/backend/services"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动HTTP服务",
	Run: func(cmd *cobra.Command, args []string) {
		env.Daemon = true
		if err := startServer(context.Background()); err != nil {
			logger.Fatal(err)
		}
	},
}

func startServer(ctx context.Context) error {
	if config.Config.Server.Mode != "" {
		gin.SetMode(config.Config.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())

	srv := services.NewServer(&config.Config)

	// 注册API路由
	controllers.NewAPIController(srv).RegisterRoutes(router)
	controllers.NewInstanceController(srv.Instances()).RegisterRoutes(router)
	controllers.NewSettingsController(srv.Instances()).RegisterRoutes(router)
	controllers.NewEventsController(srv.Instances().Events()).RegisterRoutes(router)

	// 恢复所有落盘实例，auto_start的实例随之启动
	if err := srv.Init(); err != nil {
		return fmt.Errorf("restore instances failed: %v", err)
	}

	go srv.StartReportMetrics()

	addrs := []ListenAddr{
		{Network: "tcp", Address: config.Config.Server.Address},
	}
	if IsUnixSocketSupported() {
		runDir := filepath.Join(env.LodestoneDir, "run")
		if err := os.MkdirAll(runDir, 0o755); err == nil {
			addrs = append(addrs, ListenAddr{
				Network: "unix",
				Address: filepath.Join(runDir, "lodestone.sock"),
			})
		}
	}
	listeners, err := CreateListeners(addrs)
	if len(listeners) == 0 {
		return fmt.Errorf("create listeners failed: %v", err)
	}

	httpSrv := &http.Server{Handler: router}
	for _, ln := range listeners {
		listener := ln
		go func() {
			if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Errorf("HTTP serve on %s error: %v", listener.Addr(), err)
			}
		}()
		logger.Infof("Listening on %s://%s", listener.Addr().Network(), listener.Addr())
	}

	// 等待退出信号，优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down, stopping all instances...")
	stopCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()
	srv.StopAllService(stopCtx)

	return httpSrv.Shutdown(stopCtx)
}

func init() {
	root.RootCmd.AddCommand(serverCmd)
}
