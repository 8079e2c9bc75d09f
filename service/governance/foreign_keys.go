/*
 * @module service/governance/foreign_keys
 * @description 引用完整性检查器，验证子表外键列的值能在父表键列中解析
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 父表键集合构建 -> 子表逐行比对 -> 结果返回
 * @rules 父表键集合每个父表每次运行只构建一次，构建后只读共享；
 *        空外键默认有效，required边的空外键单独计违规
 * @dependencies governance-service/service/models
 * @refs coordinator.go
 */

package governance

import (
	"governance-service/service/models"
)

// 缺失键样本在违规详情中的数量上限
const missingKeySampleCap = 5

// BuildParentKeySet 构建父表键列的非空值集合
// 同一父表被多条外键边引用时共享该集合，避免重复扫描
func BuildParentKeySet(parentData *models.Table, column string) map[string]bool {
	keys := make(map[string]bool, parentData.RowCount())
	for _, row := range parentData.Rows {
		value := row[column]
		if isNull(value) {
			continue
		}
		keys[valueKey(value)] = true
	}
	return keys
}

// CheckForeignKey 检查一条外键边，parentKeys由BuildParentKeySet预先构建
func CheckForeignKey(edge models.FKEdge, childData *models.Table, parentKeys map[string]bool) *models.CheckResult {
	result := models.NewCheckResult()

	violatingRows := 0
	nullRows := 0
	missingSamples := make([]string, 0, missingKeySampleCap)
	sampleSeen := make(map[string]bool, missingKeySampleCap)

	for _, row := range childData.Rows {
		value := row[edge.ChildColumn]
		if isNull(value) {
			nullRows++
			continue
		}
		key := valueKey(value)
		if !parentKeys[key] {
			violatingRows++
			if len(missingSamples) < missingKeySampleCap && !sampleSeen[key] {
				missingSamples = append(missingSamples, key)
				sampleSeen[key] = true
			}
		}
	}

	if violatingRows > 0 {
		result.AddViolation(models.Violation{
			Kind:     models.ViolationFK,
			Table:    edge.ChildTable,
			Column:   edge.ChildColumn,
			RowCount: violatingRows,
			Severity: models.StatusFail,
			Detail: map[string]interface{}{
				"parent_table":  edge.ParentTable,
				"parent_column": edge.ParentColumn,
				"missing_keys":  missingSamples,
			},
		})
	}

	if edge.Required && nullRows > 0 {
		result.AddViolation(models.Violation{
			Kind:     models.ViolationRequiredFKNull,
			Table:    edge.ChildTable,
			Column:   edge.ChildColumn,
			RowCount: nullRows,
			Severity: models.StatusFail,
			Detail: map[string]interface{}{
				"parent_table": edge.ParentTable,
			},
		})
	}

	result.Metrics["child_rows"] = childData.RowCount()
	result.Metrics["parent_keys"] = len(parentKeys)
	result.Metrics["null_fk_rows"] = nullRows

	return result
}
