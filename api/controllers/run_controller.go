/*
 * @module api/controllers/run_controller
 * @description 治理运行控制器，提供运行触发、摘要查询、运行历史和Markdown报告等API接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式；规则配置随请求传入，服务端不保存运行配置
 * @dependencies governance-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/governance/governance_service.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"governance-service/service"
	"governance-service/service/models"
	"governance-service/service/report"
	"governance-service/service/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// RunController 治理运行控制器
type RunController struct{}

// NewRunController 创建治理运行控制器实例
func NewRunController() *RunController {
	return &RunController{}
}

// ExecuteRunRequest 触发治理运行的请求体
type ExecuteRunRequest struct {
	Pipeline string                       `json:"pipeline" example:"orders_daily"`
	Specs    map[string]*models.TableSpec `json:"specs"`
	Config   *models.RuleConfig           `json:"config"`
}

// ScheduleRunRequest 注册调度运行的请求体
type ScheduleRunRequest struct {
	Pipeline string                       `json:"pipeline" example:"orders_daily"`
	CronSpec string                       `json:"cron_spec" example:"0 0 2 * * *"`
	Specs    map[string]*models.TableSpec `json:"specs"`
	Config   *models.RuleConfig           `json:"config"`
}

// ExecuteRun 触发一次治理运行
// @Summary 触发治理运行
// @Description 按请求中的表规格和规则配置执行一次完整治理运行，同步返回规范化摘要
// @Tags 数据治理
// @Accept json
// @Produce json
// @Param request body ExecuteRunRequest true "运行请求"
// @Success 200 {object} APIResponse{data=models.RunSummary} "运行完成"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /governance/runs [post]
func (c *RunController) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}

	if req.Config == nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "缺少规则配置",
		})
		return
	}

	summary, err := service.GlobalGovernanceService.ExecuteRun(r.Context(), req.Pipeline, req.Specs, req.Config)
	if err != nil {
		if _, ok := err.(*models.ConfigurationError); ok {
			render.JSON(w, r, APIResponse{
				Status: http.StatusBadRequest,
				Msg:    "规则配置无效: " + err.Error(),
			})
			return
		}
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "治理运行执行失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "治理运行完成",
		Data:   summary,
	})
}

// GetLatestSummary 获取流水线最近一次运行摘要
// @Summary 获取最新运行摘要
// @Description 返回指定流水线最近一次治理运行的规范化摘要，优先走缓存
// @Tags 数据治理
// @Produce json
// @Param pipeline path string true "流水线名称"
// @Success 200 {object} APIResponse{data=models.RunSummary} "获取成功"
// @Failure 404 {object} APIResponse "流水线无运行记录"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /governance/pipelines/{pipeline}/latest [get]
func (c *RunController) GetLatestSummary(w http.ResponseWriter, r *http.Request) {
	pipeline := chi.URLParam(r, "pipeline")

	summary, err := service.GlobalGovernanceService.LatestSummary(r.Context(), pipeline)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "查询最新运行摘要失败",
		})
		return
	}
	if summary == nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusNotFound,
			Msg:    "流水线暂无运行记录",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取最新运行摘要成功",
		Data:   summary,
	})
}

// GetRun 按运行ID查询运行记录
// @Summary 查询运行记录
// @Description 按运行ID返回落库的治理运行记录
// @Tags 数据治理
// @Produce json
// @Param run_id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.GovernanceRunRecord} "获取成功"
// @Failure 404 {object} APIResponse "运行记录不存在"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /governance/runs/{run_id} [get]
func (c *RunController) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")

	record, err := service.GlobalGovernanceService.GetRun(r.Context(), runID)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "查询运行记录失败",
		})
		return
	}
	if record == nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusNotFound,
			Msg:    "运行记录不存在",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取运行记录成功",
		Data:   record,
	})
}

// ListRuns 分页查询运行历史
// @Summary 查询运行历史
// @Description 分页返回治理运行历史，可按流水线过滤
// @Tags 数据治理
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Param pipeline query string false "流水线名称"
// @Success 200 {object} PaginatedResponse{data=[]models.GovernanceRunRecord} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /governance/runs [get]
func (c *RunController) ListRuns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	pipeline := r.URL.Query().Get("pipeline")

	records, total, err := service.GlobalGovernanceService.ListRuns(r.Context(), pipeline, page, size)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "查询运行历史失败",
		})
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取运行历史成功",
		Data:   records,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetRunReport 获取运行的Markdown报告
// @Summary 获取运行报告
// @Description 按运行ID将落库摘要渲染为Markdown治理报告
// @Tags 数据治理
// @Produce plain
// @Param run_id path string true "运行ID"
// @Success 200 {string} string "Markdown报告"
// @Failure 404 {object} APIResponse "运行记录不存在"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /governance/runs/{run_id}/report [get]
func (c *RunController) GetRunReport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")

	summary, err := service.GlobalGovernanceService.SummaryForRun(r.Context(), runID)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "还原运行摘要失败",
		})
		return
	}
	if summary == nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusNotFound,
			Msg:    "运行记录不存在",
		})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report.RenderMarkdown(summary)))
}

// RegisterSchedule 注册一条周期性治理运行
// @Summary 注册调度运行
// @Description 按Cron表达式注册周期性治理运行，注册即生效
// @Tags 数据治理
// @Accept json
// @Produce json
// @Param request body ScheduleRunRequest true "调度请求"
// @Success 200 {object} APIResponse "注册成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /governance/schedules [post]
func (c *RunController) RegisterSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}

	if req.Config == nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "缺少规则配置",
		})
		return
	}

	err := service.GlobalSchedulerService.Register(scheduler.ScheduledRun{
		Pipeline: req.Pipeline,
		CronSpec: req.CronSpec,
		Specs:    req.Specs,
		Config:   req.Config,
	})
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "注册调度失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "注册调度成功",
	})
}
