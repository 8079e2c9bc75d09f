/*
 * @module service/monitoring/metrics_collector
 * @description 治理运行指标收集器，向Prometheus暴露运行计数、耗时和违规计数
 * @architecture 分层架构 - 监控服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 运行完成 -> 指标记录 -> /metrics端点暴露
 * @rules 指标记录不参与业务逻辑，失败不影响运行结果
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/governance/governance_service.go
 */

package monitoring

import (
	"time"

	"governance-service/service/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 治理运行指标收集器
type MetricsCollector struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	violationsTotal *prometheus.CounterVec
	tablesChecked   prometheus.Counter
}

// NewMetricsCollector 创建指标收集器并注册到默认registry
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_runs_total",
			Help: "治理运行总数，按总体状态分类",
		}, []string{"status"}),
		runDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "governance_run_duration_seconds",
			Help:    "单次治理运行耗时",
			Buckets: prometheus.DefBuckets,
		}),
		violationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_violations_total",
			Help: "违规记录总数，按违规类型分类",
		}, []string{"kind"}),
		tablesChecked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "governance_tables_checked_total",
			Help: "已检查的表总数",
		}),
	}
}

// RecordRun 记录一次运行的全部指标
func (m *MetricsCollector) RecordRun(summary *models.RunSummary, duration time.Duration) {
	m.runsTotal.WithLabelValues(summary.OverallStatus).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.tablesChecked.Add(float64(len(summary.PerTable)))
	for _, v := range summary.Violations {
		m.violationsTotal.WithLabelValues(v.Kind).Inc()
	}
}
