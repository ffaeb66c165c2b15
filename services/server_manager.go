package services

import (
	"context"
	"time"

	"github.com/LodestoneMC-org/backend/internal/config"
	"github.com/LodestoneMC-org/backend/internal/env"
	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/models"
)

type Server struct {
	cfg       *config.AppConfig
	instances *InstanceManager
	startTime time.Time
}

/**
 * Create new server instance with all managers
 * @param {config.AppConfig} cfg - Application configuration
 * @returns {Server} Returns new server instance
 * @description
 * - Creates and initializes a new Server instance
 * - Wires the instance manager singleton
 * - Used as the main entry point for daemon operations
 */
func NewServer(cfg *config.AppConfig) *Server {
	return &Server{
		cfg:       cfg,
		instances: GetInstanceManager(),
		startTime: time.Now(),
	}
}

/**
 * Get instance manager
 * @returns {InstanceManager} Returns the instance manager
 * @example
 * server := NewServer(cfg)
 * manager := server.Instances()
 * manager.RestoreAll()
 */
func (s *Server) Instances() *InstanceManager {
	return s.instances
}

/**
 * Restore all persisted instances from disk
 * @description
 * - Scans the instances root and restores every valid instance directory
 * - Instances flagged auto_start are started after restoration
 */
func (s *Server) Init() error {
	s.instances.RestoreAll()
	return nil
}

/**
 * Stop all running instances gracefully
 * @param {context.Context} ctx - Context for cancellation and timeout
 * @description
 * - Asks each running instance to stop via its console
 * - Used during daemon shutdown
 */
func (s *Server) StopAllService(ctx context.Context) {
	s.instances.StopAll()
}

/**
 * Start periodic metrics reporting
 * @description
 * - Does nothing when no pushgateway is configured
 * - Pushes collected metrics every 60 seconds otherwise
 * @example
 * go server.StartReportMetrics()
 */
func (s *Server) StartReportMetrics() {
	addr := s.cfg.Metrics.Pushgateway
	if addr == "" {
		logger.Info("Metrics reporting is disabled (no pushgateway)")
		return
	}

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		RefreshInstanceMetrics(s.instances.ListInstances())
		if err := PushMetrics(addr); err != nil {
			logger.Errorf("Metrics reporting error: %v", err)
		}
	}
}

/**
* Get health check response for the server
* @returns {models.HealthResponse} Returns health check response with server status and metrics
* @description
* - Calculates server uptime from start time
* - Counts managed and running instances
* - Used for health check endpoint and monitoring
* @example
* server := NewServer(cfg)
* health := server.GetHealthz()
* fmt.Printf("Server status: %s, Uptime: %s\n", health.Status, health.Uptime)
 */
func (s *Server) GetHealthz() models.HealthResponse {
	uptime := time.Since(s.startTime)

	details := s.instances.ListInstances()
	running := 0
	for _, detail := range details {
		if detail.State == models.StateRunning {
			running++
		}
	}

	return models.HealthResponse{
		Version:   env.Version,
		StartTime: s.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    uptime.String(),
		Metrics: models.Metrics{
			TotalRequests:    GetTotalRequestCount(),
			ErrorRequests:    GetTotalErrorCount(),
			TotalInstances:   len(details),
			RunningInstances: running,
		},
	}
}
