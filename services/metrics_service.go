package services

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/models"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestone_request_total",
			Help: "Total API requests",
		},
		[]string{"endpoint"},
	)

	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestone_request_errors_total",
			Help: "Total API requests answered with an error status",
		},
		[]string{"endpoint"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lodestone_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	instancesByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lodestone_instances",
			Help: "Number of instances per lifecycle state",
		},
		[]string{"state"},
	)

	backupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestone_backups_total",
			Help: "Backups performed per instance",
		},
		[]string{"instance"},
	)

	backupFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestone_backups_failed_total",
			Help: "Backups that failed per instance",
		},
		[]string{"instance"},
	)
)

var totalRequests int64
var totalErrors int64

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestErrors)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(instancesByState)
	prometheus.MustRegister(backupTotal)
	prometheus.MustRegister(backupFailed)
}

func IncrementRequestCount(endpoint string) {
	requestCount.WithLabelValues(endpoint).Inc()
	atomic.AddInt64(&totalRequests, 1)
}

func IncrementErrorCount(endpoint string) {
	requestErrors.WithLabelValues(endpoint).Inc()
	atomic.AddInt64(&totalErrors, 1)
}

func RecordRequestDuration(endpoint string, seconds float64) {
	requestDuration.WithLabelValues(endpoint).Observe(seconds)
}

func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&totalErrors)
}

func RecordBackup(instanceName string) {
	backupTotal.WithLabelValues(instanceName).Inc()
}

func RecordBackupFailure(instanceName string) {
	backupFailed.WithLabelValues(instanceName).Inc()
}

/**
 * RefreshInstanceMetrics 按当前实例列表刷新状态gauge
 */
func RefreshInstanceMetrics(details []models.InstanceDetail) {
	counts := map[models.InstanceState]int{
		models.StateStopped:  0,
		models.StateStarting: 0,
		models.StateRunning:  0,
		models.StateStopping: 0,
		models.StateError:    0,
	}
	for _, detail := range details {
		counts[detail.State]++
	}
	for state, count := range counts {
		instancesByState.WithLabelValues(string(state)).Set(float64(count))
	}
}

/**
 * PushMetrics 把当前指标推送到pushgateway
 * @param {string} addr - pushgateway地址，空字符串时跳过
 */
func PushMetrics(addr string) error {
	if addr == "" {
		return nil
	}
	if err := push.New(addr, "lodestone").Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		logger.Errorf("Push metrics to '%s' failed: %v", addr, err)
		return err
	}
	return nil
}
