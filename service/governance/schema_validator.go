/*
 * @module service/governance/schema_validator
 * @description 表结构校验器，检查表数据与声明规格的列、类型和枚举值一致性
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 规格解析 -> 列存在性检查 -> 类型检查 -> 枚举值检查 -> 结果返回
 * @rules 纯函数，无副作用；缺列/类型错/非法值判FAIL，多余列仅判WARN
 * @dependencies governance-service/service/models
 * @refs coordinator.go, data_quality.go
 */

package governance

import (
	"governance-service/service/models"
)

// 非法值样本在违规详情中的数量上限
const invalidValueSampleCap = 5

// ValidateSchema 校验一张表的数据是否符合其声明规格
func ValidateSchema(tableName string, data *models.Table, spec *models.TableSpec) *models.CheckResult {
	result := models.NewCheckResult()

	specColumns := make(map[string]*models.ColumnSpec, len(spec.Columns))
	for i := range spec.Columns {
		specColumns[spec.Columns[i].Name] = &spec.Columns[i]
	}

	// 缺失的必需列
	for _, col := range spec.Columns {
		if col.Required && !data.HasColumn(col.Name) {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationMissingColumn,
				Table:    tableName,
				Column:   col.Name,
				RowCount: 0,
				Severity: models.StatusFail,
			})
		}
	}

	// 数据中存在但规格未声明的列
	for _, col := range data.Columns {
		if _, ok := specColumns[col]; !ok {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationExtraColumn,
				Table:    tableName,
				Column:   col,
				RowCount: data.RowCount(),
				Severity: models.StatusWarn,
			})
		}
	}

	// 逐列检查类型与枚举值，列顺序按规格声明
	for _, col := range spec.Columns {
		if !data.HasColumn(col.Name) {
			continue
		}

		typeMismatch := 0
		invalidCount := 0
		invalidSamples := make([]string, 0, invalidValueSampleCap)

		allowed := make(map[string]bool, len(col.AllowedValues))
		for _, v := range col.AllowedValues {
			allowed[v] = true
		}

		for _, row := range data.Rows {
			value := row[col.Name]
			if isNull(value) {
				continue
			}
			if !coercibleTo(value, col.ExpectedType) {
				typeMismatch++
				continue
			}
			if len(col.AllowedValues) > 0 && !allowed[valueKey(value)] {
				invalidCount++
				if len(invalidSamples) < invalidValueSampleCap {
					invalidSamples = append(invalidSamples, valueKey(value))
				}
			}
		}

		if typeMismatch > 0 {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationInvalidType,
				Table:    tableName,
				Column:   col.Name,
				RowCount: typeMismatch,
				Severity: models.StatusFail,
				Detail: map[string]interface{}{
					"expected_type": col.ExpectedType,
				},
			})
		}

		if invalidCount > 0 {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationInvalidValue,
				Table:    tableName,
				Column:   col.Name,
				RowCount: invalidCount,
				Severity: models.StatusFail,
				Detail: map[string]interface{}{
					"allowed_values":  col.AllowedValues,
					"invalid_samples": invalidSamples,
				},
			})
		}
	}

	result.Metrics["row_count"] = data.RowCount()
	result.Metrics["column_count"] = len(data.Columns)
	result.Metrics["spec_column_count"] = len(spec.Columns)

	return result
}
