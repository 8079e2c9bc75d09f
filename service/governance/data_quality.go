/*
 * @module service/governance/data_quality
 * @description 数据质量检查器，计算空值比例、唯一键重复和枚举成员指标并与配置阈值比对
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 指标计算 -> 阈值比对 -> 自定义规则执行 -> 结果返回
 * @rules 零行表的空值比例定义为0；重复键按出现次数减一计数，与行顺序无关
 * @dependencies governance-service/service/models, github.com/traefik/yaegi
 * @refs coordinator.go, schema_validator.go
 */

package governance

import (
	"fmt"
	"strings"

	"governance-service/service/models"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// RowPredicate 自定义规则脚本必须求值为该类型的函数
type RowPredicate = func(row map[string]interface{}) bool

// EvaluateQuality 对一张表执行数据质量检查
// 表规格仅用于确定空值阈值的默认值，枚举检查完全由配置驱动，可脱离规格独立运行
func EvaluateQuality(tableName string, data *models.Table, spec *models.TableSpec, config *models.RuleConfig) *models.CheckResult {
	result := models.NewCheckResult()
	totalRows := data.RowCount()
	result.Metrics["row_count"] = totalRows

	// 空值比例：按规格声明的列计算；零行表的比例定义为0
	nullFractions := make(map[string]interface{}, len(spec.Columns))
	for _, col := range spec.Columns {
		if !data.HasColumn(col.Name) {
			continue
		}

		nullCount := 0
		for _, row := range data.Rows {
			if isNull(row[col.Name]) {
				nullCount++
			}
		}
		fraction := 0.0
		if totalRows > 0 {
			fraction = float64(nullCount) / float64(totalRows)
		}
		nullFractions[col.Name] = fraction

		ceiling := config.NullCeilingFor(tableName, col.Name, col.Nullable)
		if fraction > ceiling {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationNullThresholdExceeded,
				Table:    tableName,
				Column:   col.Name,
				RowCount: nullCount,
				Severity: models.StatusFail,
				Detail: map[string]interface{}{
					"null_fraction": fraction,
					"ceiling":       ceiling,
				},
			})
		}
	}
	result.Metrics["null_fractions"] = nullFractions

	// 唯一键检查：按键值分组计数，每组违规行数为出现次数减一
	for _, key := range config.UniqueKeysFor(tableName) {
		missing := false
		for _, col := range key.Columns {
			if !data.HasColumn(col) {
				missing = true
				break
			}
		}
		if missing {
			// 键列缺失由结构校验器报告，这里不重复计数
			continue
		}

		counts := make(map[string]int, totalRows)
		for _, row := range data.Rows {
			parts := make([]string, len(key.Columns))
			for i, col := range key.Columns {
				parts[i] = valueKey(row[col])
			}
			counts[strings.Join(parts, "\x1f")]++
		}

		duplicateRows := 0
		duplicateGroups := 0
		for _, count := range counts {
			if count > 1 {
				duplicateRows += count - 1
				duplicateGroups++
			}
		}

		if duplicateRows > 0 {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationUniqueKey,
				Table:    tableName,
				Column:   strings.Join(key.Columns, ","),
				RowCount: duplicateRows,
				Severity: models.StatusFail,
				Detail: map[string]interface{}{
					"duplicate_groups": duplicateGroups,
				},
			})
		}
	}

	// 枚举检查：仅在显式配置为DQ规则时执行
	for column, allowedValues := range config.EnumRules[tableName] {
		if !data.HasColumn(column) {
			continue
		}
		allowed := make(map[string]bool, len(allowedValues))
		for _, v := range allowedValues {
			allowed[v] = true
		}

		invalidCount := 0
		invalidSamples := make([]string, 0, invalidValueSampleCap)
		for _, row := range data.Rows {
			value := row[column]
			if isNull(value) {
				continue
			}
			if !allowed[valueKey(value)] {
				invalidCount++
				if len(invalidSamples) < invalidValueSampleCap {
					invalidSamples = append(invalidSamples, valueKey(value))
				}
			}
		}

		if invalidCount > 0 {
			result.AddViolation(models.Violation{
				Kind:     models.ViolationInvalidValue,
				Table:    tableName,
				Column:   column,
				RowCount: invalidCount,
				Severity: models.StatusFail,
				Detail: map[string]interface{}{
					"allowed_values":  allowedValues,
					"invalid_samples": invalidSamples,
				},
			})
		}
	}

	// 自定义规则脚本
	for _, rule := range config.CustomRulesFor(tableName) {
		applyCustomRule(tableName, data, rule, result)
	}

	return result
}

// applyCustomRule 执行一条脚本规则，脚本错误只降级该规则，不影响其他检查
func applyCustomRule(tableName string, data *models.Table, rule models.CustomRule, result *models.CheckResult) {
	predicate, err := compilePredicate(rule.Script)
	if err != nil {
		result.AddViolation(models.Violation{
			Kind:     models.ViolationEvaluatorError,
			Table:    tableName,
			RowCount: 0,
			Severity: models.StatusError,
			Detail: map[string]interface{}{
				"rule":  rule.Name,
				"cause": err.Error(),
			},
		})
		return
	}

	failedRows := 0
	for _, row := range data.Rows {
		if !predicate(row) {
			failedRows++
		}
	}

	if failedRows > 0 {
		result.AddViolation(models.Violation{
			Kind:     models.ViolationCustomRule,
			Table:    tableName,
			RowCount: failedRows,
			Severity: models.StatusFail,
			Detail: map[string]interface{}{
				"rule": rule.Name,
			},
		})
	}
}

// compilePredicate 用yaegi解释脚本，脚本必须求值为 func(row map[string]interface{}) bool
func compilePredicate(script string) (RowPredicate, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载脚本运行时失败: %w", err)
	}

	value, err := i.Eval(script)
	if err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	predicate, ok := value.Interface().(RowPredicate)
	if !ok {
		return nil, fmt.Errorf("脚本必须求值为 func(row map[string]interface{}) bool")
	}
	return predicate, nil
}
