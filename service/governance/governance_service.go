/*
 * @module service/governance/governance_service
 * @description 治理服务门面，串联数据加载、检查执行、摘要构建、落库、缓存与事件发布
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 数据加载 -> 检查协调 -> 摘要构建 -> 记录持久化 -> 缓存/事件/指标
 * @rules 引擎本身不写存储；落库、缓存、事件发布失败只记录日志，不改变运行结果；
 *        规则配置逐次传入，进程内不缓存任何运行配置
 * @dependencies gorm.io/gorm, governance-service/service/loader, service/cache, service/event, service/monitoring
 * @refs coordinator.go, summary_builder.go
 */

package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"governance-service/service/cache"
	"governance-service/service/event"
	"governance-service/service/loader"
	"governance-service/service/models"
	"governance-service/service/monitoring"

	"gorm.io/gorm"
)

// Service 治理服务
type Service struct {
	db        *gorm.DB
	loader    loader.DatasetLoader
	cache     *cache.SummaryCache
	publisher *event.Publisher
	metrics   *monitoring.MetricsCollector
}

// NewService 创建治理服务实例，cache、publisher、metrics均可为nil（对应能力关闭）
func NewService(db *gorm.DB, datasetLoader loader.DatasetLoader) *Service {
	return &Service{
		db:     db,
		loader: datasetLoader,
	}
}

// WithCache 启用摘要缓存
func (s *Service) WithCache(c *cache.SummaryCache) *Service {
	s.cache = c
	return s
}

// WithPublisher 启用运行事件发布
func (s *Service) WithPublisher(p *event.Publisher) *Service {
	s.publisher = p
	return s
}

// WithMetrics 启用Prometheus指标记录
func (s *Service) WithMetrics(m *monitoring.MetricsCollector) *Service {
	s.metrics = m
	return s
}

// ExecuteRun 执行一次完整的治理运行并返回规范化摘要
// 只有配置错误和数据加载失败返回错误；检查器层面的失败全部收敛进摘要
// 配置校验由RunChecks统一负责，门面不重复校验
func (s *Service) ExecuteRun(ctx context.Context, pipeline string, specs map[string]*models.TableSpec, config *models.RuleConfig) (*models.RunSummary, error) {
	startedAt := time.Now()

	dataset, err := s.loader.LoadDataset(ctx, config.Tables)
	if err != nil {
		return nil, fmt.Errorf("加载数据集失败: %w", err)
	}

	componentMap, err := RunChecks(dataset, specs, config)
	if err != nil {
		return nil, err
	}

	summary := BuildRunSummary(componentMap, config)
	finishedAt := time.Now()

	slog.Info("治理运行完成",
		"pipeline", pipeline,
		"run_id", summary.RunID,
		"overall_status", summary.OverallStatus,
		"violations", len(summary.Violations),
		"duration_ms", finishedAt.Sub(startedAt).Milliseconds(),
	)

	s.persistRecord(pipeline, summary, startedAt, finishedAt)

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, pipeline, summary); err != nil {
			slog.Warn("摘要缓存写入失败", "pipeline", pipeline, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRunCompleted(ctx, pipeline, summary); err != nil {
			slog.Warn("运行事件发布失败", "pipeline", pipeline, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.RecordRun(summary, finishedAt.Sub(startedAt))
	}

	return summary, nil
}

// persistRecord 将运行摘要落库，失败只记录日志
func (s *Service) persistRecord(pipeline string, summary *models.RunSummary, startedAt, finishedAt time.Time) {
	if s.db == nil {
		return
	}

	record, err := models.NewRunRecord(pipeline, summary, startedAt, finishedAt)
	if err != nil {
		slog.Warn("构建运行记录失败", "run_id", summary.RunID, "error", err)
		return
	}
	if err := s.db.Create(record).Error; err != nil {
		slog.Warn("运行记录落库失败", "run_id", summary.RunID, "error", err)
	}
}

// LatestSummary 读取流水线最近一次运行摘要，优先走缓存，未命中回源数据库
func (s *Service) LatestSummary(ctx context.Context, pipeline string) (*models.RunSummary, error) {
	if s.cache != nil {
		summary, err := s.cache.GetLatest(ctx, pipeline)
		if err != nil {
			slog.Warn("摘要缓存读取失败", "pipeline", pipeline, "error", err)
		} else if summary != nil {
			return summary, nil
		}
	}

	if s.db == nil {
		return nil, nil
	}

	var record models.GovernanceRunRecord
	err := s.db.WithContext(ctx).
		Where("pipeline = ?", pipeline).
		Order("created_at DESC").
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询最近运行记录失败: %w", err)
	}

	return summaryFromRecord(&record)
}

// GetRun 按运行ID查询运行记录
func (s *Service) GetRun(ctx context.Context, runID string) (*models.GovernanceRunRecord, error) {
	var record models.GovernanceRunRecord
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return &record, nil
}

// SummaryForRun 按运行ID还原规范化摘要，记录不存在时返回nil
func (s *Service) SummaryForRun(ctx context.Context, runID string) (*models.RunSummary, error) {
	record, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return summaryFromRecord(record)
}

// ListRuns 分页查询运行历史，按创建时间倒序
func (s *Service) ListRuns(ctx context.Context, pipeline string, page, size int) ([]models.GovernanceRunRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}

	query := s.db.WithContext(ctx).Model(&models.GovernanceRunRecord{})
	if pipeline != "" {
		query = query.Where("pipeline = ?", pipeline)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计运行记录失败: %w", err)
	}

	var records []models.GovernanceRunRecord
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询运行历史失败: %w", err)
	}

	return records, total, nil
}

// summaryFromRecord 从落库记录还原运行摘要
func summaryFromRecord(record *models.GovernanceRunRecord) (*models.RunSummary, error) {
	raw, err := json.Marshal(record.Summary)
	if err != nil {
		return nil, fmt.Errorf("运行记录 %s 的摘要载荷无效: %w", record.RunID, err)
	}

	var summary models.RunSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("反序列化运行摘要失败: %w", err)
	}
	return &summary, nil
}
