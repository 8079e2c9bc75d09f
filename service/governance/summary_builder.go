/*
 * @module service/governance/summary_builder
 * @description 运行摘要构建器，将组件映射规范化为稳定可序列化的运行摘要
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 组件映射读取 -> 载荷剥离 -> 标量规范化 -> 固定顺序展平 -> 摘要输出
 * @rules 构建过程永不失败；curated表数据不进入摘要；无法规范化的值转为字符串
 *        并记录SANITIZATION_FALLBACK警告；展平顺序固定为配置表序 x {Schema,DQ,PII,FK}
 * @dependencies governance-service/service/models, github.com/spf13/cast, github.com/google/uuid
 * @refs coordinator.go
 */

package governance

import (
	"fmt"
	"time"

	"governance-service/service/models"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// BuildRunSummary 从组件映射构建规范化运行摘要
// 对任意输入都能成功构建，包括全部槽位为ERROR的组件映射
func BuildRunSummary(componentMap models.ComponentMap, config *models.RuleConfig) *models.RunSummary {
	runID := config.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	summary := &models.RunSummary{
		RunID:         runID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Description:   config.Description,
		OverallStatus: models.StatusPass,
		PerTable:      make(map[string]map[string]string),
		Violations:    make([]models.Violation, 0),
		Metrics:       make(map[string]interface{}),
		Remediation:   make(map[string]*models.RemediationReport),
	}

	s := &sanitizer{}

	// 逐表按固定检查族顺序展平状态与违规
	for _, tableName := range config.Tables {
		perCheck := make(map[string]string, len(models.CheckFamilies))

		for _, family := range models.CheckFamilies {
			if family == models.CheckFK {
				continue
			}
			result := componentMap[family][tableName]
			if result == nil {
				// 槽位缺失：代之以ERROR状态和说明性违规，摘要构建保持完整
				perCheck[family] = models.StatusError
				summary.Violations = append(summary.Violations, models.Violation{
					Kind:     models.ViolationEvaluatorError,
					Table:    tableName,
					RowCount: 0,
					Severity: models.StatusError,
					Detail:   map[string]interface{}{"check": family, "cause": "检查结果缺失"},
				})
				continue
			}

			perCheck[family] = result.Status
			appendSanitized(summary, s, tableName, family, result)

			// PII修复报告保留计数，curated表数据在此剥离
			if family == models.CheckPII && result.Curated != nil {
				summary.Remediation[tableName] = result.Curated.Remediation
			}
		}

		// 该表作为子表的外键边，按配置顺序展平
		for _, edge := range config.FKEdges {
			if edge.ChildTable != tableName {
				continue
			}
			edgeKey := edge.Key()
			result := componentMap[models.CheckFK][edgeKey]
			if result == nil {
				perCheck[models.CheckFK] = models.WorseStatus(perCheck[models.CheckFK], models.StatusError)
				summary.Violations = append(summary.Violations, models.Violation{
					Kind:     models.ViolationEvaluatorError,
					Table:    edgeKey,
					RowCount: 0,
					Severity: models.StatusError,
					Detail:   map[string]interface{}{"check": models.CheckFK, "cause": "检查结果缺失"},
				})
				continue
			}
			if _, ok := perCheck[models.CheckFK]; !ok {
				perCheck[models.CheckFK] = models.StatusPass
			}
			perCheck[models.CheckFK] = models.WorseStatus(perCheck[models.CheckFK], result.Status)
			appendSanitized(summary, s, edgeKey, models.CheckFK, result)
		}

		summary.PerTable[tableName] = perCheck
	}

	// 子表不在配置表列表中的外键边，补记在表序之后，保证展平的完整性
	configTables := make(map[string]bool, len(config.Tables))
	for _, t := range config.Tables {
		configTables[t] = true
	}
	for _, edge := range config.FKEdges {
		if configTables[edge.ChildTable] {
			continue
		}
		edgeKey := edge.Key()
		if result := componentMap[models.CheckFK][edgeKey]; result != nil {
			summary.PerTable[edgeKey] = map[string]string{models.CheckFK: result.Status}
			appendSanitized(summary, s, edgeKey, models.CheckFK, result)
		}
	}

	// 规范化失败的值以WARN违规显式暴露，不做静默丢弃
	summary.Violations = append(summary.Violations, s.fallbacks...)

	// 总体状态：任一FAIL或ERROR则FAIL，否则有WARN则WARN，否则PASS
	summary.OverallStatus = overallStatus(summary)

	return summary
}

// appendSanitized 将单个检查结果的违规与指标规范化后并入摘要
func appendSanitized(summary *models.RunSummary, s *sanitizer, slot, family string, result *models.CheckResult) {
	for _, v := range result.Violations {
		v.Detail = s.sanitizeMap(fmt.Sprintf("%s.%s", slot, family), v.Detail)
		summary.Violations = append(summary.Violations, v)
	}

	if len(result.Metrics) > 0 {
		familyMetrics, ok := summary.Metrics[family].(map[string]interface{})
		if !ok {
			familyMetrics = make(map[string]interface{})
			summary.Metrics[family] = familyMetrics
		}
		familyMetrics[slot] = s.sanitizeMap(fmt.Sprintf("%s.%s.metrics", slot, family), result.Metrics)
	}
}

// overallStatus 根据每表每检查状态与违规严重级别计算总体状态
func overallStatus(summary *models.RunSummary) string {
	worst := models.StatusPass
	for _, perCheck := range summary.PerTable {
		for _, status := range perCheck {
			worst = models.WorseStatus(worst, status)
		}
	}
	for _, v := range summary.Violations {
		worst = models.WorseStatus(worst, v.Severity)
	}

	// ERROR槽位不允许被报告为成功，与FAIL同级对外呈现
	if worst == models.StatusError {
		return models.StatusFail
	}
	return worst
}

// sanitizer 标量规范化器，收集转换失败的回退记录
type sanitizer struct {
	fallbacks []models.Violation
}

// sanitizeMap 规范化映射中的所有值，输入为nil时返回nil
func (s *sanitizer) sanitizeMap(path string, m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = s.sanitizeValue(path+"."+k, v)
	}
	return out
}

// sanitizeValue 将任意值规范化为最小序列化类型集合：
// 字符串/整数/浮点/布尔/空值/列表/映射；时间转为RFC3339字符串
func (s *sanitizer) sanitizeValue(path string, value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case bool:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(v)
	case float32, float64:
		return cast.ToFloat64(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case time.Duration:
		return v.Milliseconds()
	case []string:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.sanitizeValue(fmt.Sprintf("%s[%d]", path, i), item)
		}
		return out
	case map[string]interface{}:
		return s.sanitizeMap(path, v)
	default:
		str, err := cast.ToStringE(value)
		if err != nil {
			str = fmt.Sprintf("%v", value)
		}
		s.fallbacks = append(s.fallbacks, models.Violation{
			Kind:     models.ViolationSanitizationFallback,
			RowCount: 0,
			Severity: models.StatusWarn,
			Detail: map[string]interface{}{
				"path": path,
				"type": fmt.Sprintf("%T", value),
			},
		})
		return str
	}
}
