/*
 * @module service/governance/summary_builder_test
 * @description 运行摘要构建器单元测试
 * @architecture 测试层 - 纯函数测试，无外部依赖
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 构造组件映射 -> 摘要构建 -> 断言展平顺序与规范化
 * @rules 覆盖构建永不失败、curated表剥离、标量规范化回退和总体状态计算
 * @dependencies testing, testify
 * @refs summary_builder.go
 */

package governance

import (
	"encoding/json"
	"testing"
	"time"

	"governance-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryFixture() (models.ComponentMap, *models.RuleConfig) {
	dataset, specs, config := coordinatorFixture()
	config.RunID = "run-001"
	config.Description = "夜间批次"
	componentMap, _ := RunChecks(dataset, specs, config)
	return componentMap, config
}

func TestBuildRunSummary(t *testing.T) {
	t.Run("摘要包含全部配置表与检查族", func(t *testing.T) {
		componentMap, config := summaryFixture()

		summary := BuildRunSummary(componentMap, config)

		assert.Equal(t, "run-001", summary.RunID)
		assert.Equal(t, "夜间批次", summary.Description)
		require.Contains(t, summary.PerTable, "users")
		require.Contains(t, summary.PerTable, "events")
		for _, family := range []string{models.CheckSchema, models.CheckDQ, models.CheckPII} {
			assert.Contains(t, summary.PerTable["users"], family)
		}
		// events作为子表带FK状态
		assert.Contains(t, summary.PerTable["events"], models.CheckFK)
	})

	t.Run("未配置RunID时自动生成", func(t *testing.T) {
		componentMap, config := summaryFixture()
		config.RunID = ""

		summary := BuildRunSummary(componentMap, config)

		assert.NotEmpty(t, summary.RunID)
	})

	t.Run("时间戳为RFC3339格式", func(t *testing.T) {
		componentMap, config := summaryFixture()

		summary := BuildRunSummary(componentMap, config)

		_, err := time.Parse(time.RFC3339, summary.Timestamp)
		assert.NoError(t, err)
	})

	t.Run("curated表数据不进入摘要", func(t *testing.T) {
		componentMap, config := summaryFixture()

		summary := BuildRunSummary(componentMap, config)

		require.Contains(t, summary.Remediation, "users")
		report := summary.Remediation["users"]
		assert.Equal(t, []string{"email"}, report.ColumnsMasked)

		raw, err := json.Marshal(summary)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "a@example.com")
	})

	t.Run("摘要可被标准JSON序列化往返", func(t *testing.T) {
		componentMap, config := summaryFixture()

		summary := BuildRunSummary(componentMap, config)

		raw, err := json.Marshal(summary)
		require.NoError(t, err)
		var decoded models.RunSummary
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, summary.RunID, decoded.RunID)
		assert.Equal(t, summary.OverallStatus, decoded.OverallStatus)
	})

	t.Run("悬空外键使总体状态为FAIL", func(t *testing.T) {
		componentMap, config := summaryFixture()

		summary := BuildRunSummary(componentMap, config)

		assert.Equal(t, models.StatusFail, summary.OverallStatus)
		v := violationInSummary(summary, models.ViolationFK)
		require.NotNil(t, v)
		assert.Equal(t, "events", v.Table)
	})

	t.Run("ERROR槽位对外呈现为FAIL", func(t *testing.T) {
		config := &models.RuleConfig{Tables: []string{"ghost"}}
		componentMap, err := RunChecks(models.Dataset{}, map[string]*models.TableSpec{}, config)
		require.NoError(t, err)

		summary := BuildRunSummary(componentMap, config)

		assert.Equal(t, models.StatusFail, summary.OverallStatus)
		assert.Equal(t, models.StatusError, summary.PerTable["ghost"][models.CheckSchema])
		require.NotNil(t, violationInSummary(summary, models.ViolationMissingTable))
	})

	t.Run("槽位缺失时构建仍然成功", func(t *testing.T) {
		config := &models.RuleConfig{RunID: "r", Tables: []string{"users"}}
		componentMap := models.ComponentMap{
			models.CheckSchema: {},
			models.CheckDQ:     {},
			models.CheckPII:    {},
			models.CheckFK:     {},
		}

		summary := BuildRunSummary(componentMap, config)

		assert.Equal(t, models.StatusFail, summary.OverallStatus)
		assert.Equal(t, models.StatusError, summary.PerTable["users"][models.CheckSchema])
		require.NotNil(t, violationInSummary(summary, models.ViolationEvaluatorError))
	})

	t.Run("无法规范化的值转字符串并记录回退", func(t *testing.T) {
		config := &models.RuleConfig{RunID: "r", Tables: []string{"t"}}
		result := models.NewCheckResult()
		result.Metrics["weird"] = make(chan int)
		componentMap := models.ComponentMap{
			models.CheckSchema: {"t": result},
			models.CheckDQ:     {"t": models.NewCheckResult()},
			models.CheckPII:    {"t": models.NewCheckResult()},
			models.CheckFK:     {},
		}

		summary := BuildRunSummary(componentMap, config)

		fallback := violationInSummary(summary, models.ViolationSanitizationFallback)
		require.NotNil(t, fallback)
		assert.Equal(t, models.StatusWarn, fallback.Severity)

		_, err := json.Marshal(summary)
		assert.NoError(t, err)
	})

	t.Run("时间与时长规范化为可序列化标量", func(t *testing.T) {
		config := &models.RuleConfig{RunID: "r", Tables: []string{"t"}}
		result := models.NewCheckResult()
		result.Metrics["at"] = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
		result.Metrics["took"] = 1500 * time.Millisecond
		componentMap := models.ComponentMap{
			models.CheckSchema: {"t": result},
			models.CheckDQ:     {"t": models.NewCheckResult()},
			models.CheckPII:    {"t": models.NewCheckResult()},
			models.CheckFK:     {},
		}

		summary := BuildRunSummary(componentMap, config)

		schemaMetrics := summary.Metrics[models.CheckSchema].(map[string]interface{})
		slotMetrics := schemaMetrics["t"].(map[string]interface{})
		assert.Equal(t, "2026-08-24T12:00:00Z", slotMetrics["at"])
		assert.Equal(t, int64(1500), slotMetrics["took"])
		assert.Nil(t, violationInSummary(summary, models.ViolationSanitizationFallback))
	})
}

func TestRunScenario_MissingColumnAndDanglingFK(t *testing.T) {
	users := &models.Table{
		Name:    "users",
		Columns: []string{"id"},
		Rows:    []models.Row{{"id": 1}},
	}
	events := &models.Table{
		Name:    "events",
		Columns: []string{"event_id", "user_id"},
		Rows: []models.Row{
			{"event_id": 1, "user_id": 77},
			{"event_id": 2, "user_id": 77},
			{"event_id": 3, "user_id": 88},
		},
	}
	dataset := models.Dataset{"users": users, "events": events}
	specs := map[string]*models.TableSpec{
		"users": {
			TableName: "users",
			Columns: []models.ColumnSpec{
				{Name: "id", ExpectedType: "int", Required: true},
				{Name: "email", ExpectedType: "string", Required: true},
			},
		},
		"events": {
			TableName: "events",
			Columns: []models.ColumnSpec{
				{Name: "event_id", ExpectedType: "int", Required: true},
				{Name: "user_id", ExpectedType: "int", Nullable: true},
			},
		},
	}
	config := &models.RuleConfig{
		RunID:  "scenario",
		Tables: []string{"users", "events"},
		FKEdges: []models.FKEdge{
			{ChildTable: "events", ChildColumn: "user_id", ParentTable: "users", ParentColumn: "id"},
		},
	}

	componentMap, err := RunChecks(dataset, specs, config)
	require.NoError(t, err)
	summary := BuildRunSummary(componentMap, config)

	assert.Equal(t, models.StatusFail, summary.OverallStatus)

	missing := violationInSummary(summary, models.ViolationMissingColumn)
	require.NotNil(t, missing)
	assert.Equal(t, "users", missing.Table)
	assert.Equal(t, "email", missing.Column)

	fk := violationInSummary(summary, models.ViolationFK)
	require.NotNil(t, fk)
	assert.Equal(t, 3, fk.RowCount)
}

// violationInSummary 在摘要的展平违规中按类型查找
func violationInSummary(summary *models.RunSummary, kind string) *models.Violation {
	for i := range summary.Violations {
		if summary.Violations[i].Kind == kind {
			return &summary.Violations[i]
		}
	}
	return nil
}
