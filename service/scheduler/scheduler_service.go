/**
 * @module SchedulerService
 * @description 治理运行调度器服务，按Cron表达式周期性触发治理运行
 * @architecture 基于Go协程和定时器的调度器模式
 * @documentReference ../ai_docs/governance_engine_req.md
 * @stateFlow 调度注册 -> 定时触发 -> 运行执行 -> 摘要落库
 * @rules 同一流水线的运行串行执行，上一次未结束时跳过本次触发
 * @dependencies github.com/robfig/cron/v3, governance-service/service/governance
 * @refs ../governance/governance_service.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"governance-service/service/governance"
	"governance-service/service/models"

	"github.com/robfig/cron/v3"
)

// ScheduledRun 一条调度条目：流水线名、Cron表达式和运行所需的规格与配置
type ScheduledRun struct {
	Pipeline string
	CronSpec string
	Specs    map[string]*models.TableSpec
	Config   *models.RuleConfig
}

// SchedulerService 治理运行调度器
type SchedulerService struct {
	service *governance.Service
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Map // pipeline -> bool，防止同一流水线并发运行
	timeout time.Duration
}

// NewSchedulerService 创建调度器服务，timeout为单次运行的上限时长
func NewSchedulerService(service *governance.Service, timeout time.Duration) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	return &SchedulerService{
		service: service,
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Register 注册一条调度条目
func (s *SchedulerService) Register(run ScheduledRun) error {
	if run.CronSpec == "" {
		return fmt.Errorf("流水线 %s 缺少Cron表达式", run.Pipeline)
	}
	if err := run.Config.Validate(); err != nil {
		return fmt.Errorf("流水线 %s 配置无效: %w", run.Pipeline, err)
	}

	_, err := s.cron.AddFunc(run.CronSpec, func() {
		s.trigger(run)
	})
	if err != nil {
		return fmt.Errorf("注册调度失败: %w", err)
	}

	slog.Info("治理调度已注册", "pipeline", run.Pipeline, "cron", run.CronSpec)
	return nil
}

// Start 启动调度器
func (s *SchedulerService) Start() {
	s.cron.Start()
	slog.Info("治理调度器已启动")
}

// Stop 停止调度器并等待进行中的任务结束
func (s *SchedulerService) Stop() {
	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	slog.Info("治理调度器已停止")
}

// trigger 执行一次调度触发，同流水线有运行在途时跳过
func (s *SchedulerService) trigger(run ScheduledRun) {
	if _, inFlight := s.running.LoadOrStore(run.Pipeline, true); inFlight {
		slog.Warn("上次运行未结束，跳过本次调度", "pipeline", run.Pipeline)
		return
	}
	defer s.running.Delete(run.Pipeline)

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	summary, err := s.service.ExecuteRun(ctx, run.Pipeline, run.Specs, run.Config)
	if err != nil {
		slog.Error("调度运行失败", "pipeline", run.Pipeline, "error", err)
		return
	}

	slog.Info("调度运行完成",
		"pipeline", run.Pipeline,
		"run_id", summary.RunID,
		"overall_status", summary.OverallStatus,
	)
}
