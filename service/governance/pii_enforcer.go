/*
 * @module service/governance/pii_enforcer
 * @description PII策略执行器，按规格标签和策略配置识别敏感列并执行删除或脱敏
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow PII列识别 -> 修复模式解析 -> 列删除/脱敏 -> curated表与修复报告输出
 * @rules 输入表只读，curated表为深拷贝；drop模式下输出绝不包含敏感列；
 *        mask模式所有行使用同一占位符；hash模式使用不可逆摘要
 * @dependencies governance-service/service/models, golang.org/x/crypto/sha3
 * @refs coordinator.go
 */

package governance

import (
	"fmt"

	"governance-service/service/models"

	"golang.org/x/crypto/sha3"
)

// 脱敏占位符，mask模式下整列所有行统一替换为该值
const maskSentinel = "***MASKED***"

// EnforcePIIPolicy 对一张表执行PII策略，返回curated表和检查结果
// 策略是增量式的：规格中打了标签但策略未注册该标签的列原样保留
func EnforcePIIPolicy(tableName string, data *models.Table, spec *models.TableSpec, policy map[string]string) (*models.CuratedTable, *models.CheckResult) {
	result := models.NewCheckResult()
	report := models.NewRemediationReport(data.RowCount())

	// 解析每个敏感列的修复模式
	dropColumns := make(map[string]bool)
	maskColumns := make(map[string]string) // 列名 -> 修复模式（mask/hash）
	for _, col := range spec.Columns {
		if col.PIITag == "" {
			continue
		}
		mode, registered := policy[col.PIITag]
		if !registered {
			continue
		}
		if !data.HasColumn(col.Name) {
			continue
		}

		switch mode {
		case models.PIIModeDrop:
			dropColumns[col.Name] = true
			report.ColumnsDropped = append(report.ColumnsDropped, col.Name)
		case models.PIIModeMask:
			maskColumns[col.Name] = mode
			report.ColumnsMasked = append(report.ColumnsMasked, col.Name)
		case models.PIIModeHash:
			maskColumns[col.Name] = mode
			report.ColumnsHashed = append(report.ColumnsHashed, col.Name)
		default:
			result.AddViolation(models.Violation{
				Kind:     models.ViolationPIIRemediationFailed,
				Table:    tableName,
				Column:   col.Name,
				RowCount: data.RowCount(),
				Severity: models.StatusFail,
				Detail: map[string]interface{}{
					"pii_tag": col.PIITag,
					"mode":    mode,
				},
			})
		}
	}

	// 构建curated表
	curated := &models.Table{
		Name:    data.Name,
		Columns: make([]string, 0, len(data.Columns)),
		Rows:    make([]models.Row, 0, len(data.Rows)),
	}
	for _, col := range data.Columns {
		if !dropColumns[col] {
			curated.Columns = append(curated.Columns, col)
		}
	}
	for _, row := range data.Rows {
		outRow := make(models.Row, len(curated.Columns))
		for _, col := range curated.Columns {
			value, exists := row[col]
			if !exists {
				continue
			}
			if mode, sensitive := maskColumns[col]; sensitive {
				outRow[col] = remediateValue(value, mode)
			} else {
				outRow[col] = value
			}
		}
		curated.Rows = append(curated.Rows, outRow)
	}
	report.RowsOut = len(curated.Rows)

	// 发生过修复时结果为WARN（修复成功属于报告项，不是失败）
	remediated := len(report.ColumnsDropped) + len(report.ColumnsMasked) + len(report.ColumnsHashed)
	if remediated > 0 {
		result.AddViolation(models.Violation{
			Kind:     models.ViolationPIIRemediated,
			Table:    tableName,
			RowCount: data.RowCount(),
			Severity: models.StatusWarn,
			Detail: map[string]interface{}{
				"columns_dropped": report.ColumnsDropped,
				"columns_masked":  report.ColumnsMasked,
				"columns_hashed":  report.ColumnsHashed,
			},
		})
	}

	result.Metrics["pii_columns_found"] = remediated
	result.Metrics["rows_in"] = report.RowsIn
	result.Metrics["rows_out"] = report.RowsOut

	curatedTable := &models.CuratedTable{Table: curated, Remediation: report}
	result.Curated = curatedTable
	return curatedTable, result
}

// remediateValue 按模式替换敏感值，mask为统一占位符，hash为确定性不可逆摘要
func remediateValue(value interface{}, mode string) interface{} {
	if mode == models.PIIModeHash {
		if isNull(value) {
			return value
		}
		sum := sha3.Sum256([]byte(valueKey(value)))
		return fmt.Sprintf("PII_%x", sum[:8])
	}
	return maskSentinel
}
