/*
 * @module service/governance/coordinator
 * @description 治理检查协调器，按固定顺序调度四类检查器并合并结果为组件映射
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 配置校验 -> 逐表执行Schema/DQ/PII检查 -> 逐边执行FK检查 -> 结果合并
 * @rules 检查之间不短路，单表失败不阻断整个运行；检查器panic被捕获为EVALUATOR_ERROR；
 *        只有配置错误允许终止运行
 * @dependencies governance-service/service/models
 * @refs schema_validator.go, data_quality.go, pii_enforcer.go, foreign_keys.go
 */

package governance

import (
	"fmt"

	"governance-service/service/models"
)

// RunChecks 执行一次完整的治理检查，返回组件映射
// 仅配置校验失败返回错误，其余一切失败都收敛为组件映射中的结果
func RunChecks(dataset models.Dataset, specs map[string]*models.TableSpec, config *models.RuleConfig) (models.ComponentMap, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	componentMap := models.ComponentMap{
		models.CheckSchema: make(map[string]*models.CheckResult),
		models.CheckDQ:     make(map[string]*models.CheckResult),
		models.CheckPII:    make(map[string]*models.CheckResult),
		models.CheckFK:     make(map[string]*models.CheckResult),
	}

	for _, tableName := range config.Tables {
		data, hasData := dataset[tableName]
		spec, hasSpec := specs[tableName]

		if !hasData || !hasSpec {
			recordMissingTable(componentMap, tableName, hasData, hasSpec)
			continue
		}

		componentMap[models.CheckSchema][tableName] = safeRun(tableName, models.CheckSchema, func() *models.CheckResult {
			return ValidateSchema(tableName, data, spec)
		})
		componentMap[models.CheckDQ][tableName] = safeRun(tableName, models.CheckDQ, func() *models.CheckResult {
			return EvaluateQuality(tableName, data, spec, config)
		})
		componentMap[models.CheckPII][tableName] = safeRun(tableName, models.CheckPII, func() *models.CheckResult {
			_, result := EnforcePIIPolicy(tableName, data, spec, config.PIIPolicy)
			return result
		})
	}

	// 外键检查跨表，按边记录，同一父表键集合在多条边间复用
	parentKeyCache := make(map[string]map[string]bool)
	for _, edge := range config.FKEdges {
		edgeKey := edge.Key()

		childData, hasChild := dataset[edge.ChildTable]
		parentData, hasParent := dataset[edge.ParentTable]
		if !hasChild || !hasParent {
			result := models.NewCheckResult()
			result.AddViolation(models.Violation{
				Kind:     models.ViolationMissingTable,
				Table:    missingSide(edge, hasChild),
				RowCount: 0,
				Severity: models.StatusError,
				Detail: map[string]interface{}{
					"edge": edgeKey,
				},
			})
			componentMap[models.CheckFK][edgeKey] = result
			continue
		}

		cacheKey := edge.ParentTable + "\x1f" + edge.ParentColumn
		parentKeys, cached := parentKeyCache[cacheKey]
		if !cached {
			parentKeys = BuildParentKeySet(parentData, edge.ParentColumn)
			parentKeyCache[cacheKey] = parentKeys
		}

		keys := parentKeys
		componentMap[models.CheckFK][edgeKey] = safeRun(edgeKey, models.CheckFK, func() *models.CheckResult {
			return CheckForeignKey(edge, childData, keys)
		})
	}

	return componentMap, nil
}

// recordMissingTable 将配置中引用但数据集或规格中缺失的表记录为违规而非报错
// Schema槽位记录MISSING_TABLE，其余槽位记录未执行的说明，保证摘要构建的完整性
func recordMissingTable(componentMap models.ComponentMap, tableName string, hasData, hasSpec bool) {
	detail := map[string]interface{}{
		"in_dataset": hasData,
		"in_specs":   hasSpec,
	}

	schemaResult := models.NewCheckResult()
	schemaResult.AddViolation(models.Violation{
		Kind:     models.ViolationMissingTable,
		Table:    tableName,
		RowCount: 0,
		Severity: models.StatusError,
		Detail:   detail,
	})
	componentMap[models.CheckSchema][tableName] = schemaResult

	for _, family := range []string{models.CheckDQ, models.CheckPII} {
		result := models.NewCheckResult()
		result.AddViolation(models.Violation{
			Kind:     models.ViolationEvaluatorError,
			Table:    tableName,
			RowCount: 0,
			Severity: models.StatusError,
			Detail: map[string]interface{}{
				"cause": "表缺失，检查未执行",
			},
		})
		componentMap[family][tableName] = result
	}
}

// safeRun 执行单个检查器并捕获panic，异常收敛为EVALUATOR_ERROR结果
func safeRun(slot, family string, check func() *models.CheckResult) (result *models.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.NewCheckResult()
			result.AddViolation(models.Violation{
				Kind:     models.ViolationEvaluatorError,
				Table:    slot,
				RowCount: 0,
				Severity: models.StatusError,
				Detail: map[string]interface{}{
					"check": family,
					"cause": fmt.Sprintf("%v", r),
				},
			})
		}
	}()
	return check()
}

// missingSide 返回外键边上缺失的那张表的表名
func missingSide(edge models.FKEdge, hasChild bool) string {
	if !hasChild {
		return edge.ChildTable
	}
	return edge.ParentTable
}
