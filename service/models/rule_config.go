/*
 * @module service/models/rule_config
 * @description 治理规则配置模型，包含空值阈值、唯一键、外键约束和PII修复策略
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 配置加载 -> 配置校验 -> 冻结后供一次运行使用
 * @rules 配置在运行开始前校验，校验失败视为致命错误终止运行
 * @dependencies fmt
 * @refs service/governance/coordinator.go
 */

package models

import "fmt"

// PII修复模式
const (
	PIIModeDrop = "drop" // 整列从curated输出中删除
	PIIModeMask = "mask" // 列保留，所有值替换为固定占位符
	PIIModeHash = "hash" // 列保留，所有值替换为不可逆哈希
)

// UniqueKey 唯一键定义，支持单列或复合列
type UniqueKey struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// FKEdge 外键约束定义
type FKEdge struct {
	ChildTable   string `json:"child_table"`
	ChildColumn  string `json:"child_column"`
	ParentTable  string `json:"parent_table"`
	ParentColumn string `json:"parent_column"`
	Required     bool   `json:"required"` // 为true时子表外键为空也算违规
}

// Key 返回外键边的合成标识 "<child>→<parent>"
func (e FKEdge) Key() string {
	return fmt.Sprintf("%s→%s", e.ChildTable, e.ParentTable)
}

// CustomRule 自定义数据质量规则，脚本必须求值为 func(row map[string]interface{}) bool
type CustomRule struct {
	Table  string `json:"table"`
	Name   string `json:"name"`
	Script string `json:"script"`
}

// RuleConfig 一次治理运行的规则配置
type RuleConfig struct {
	RunID       string `json:"run_id,omitempty"`
	Description string `json:"description,omitempty"`

	// 参与校验的表，顺序决定报告中的表顺序
	Tables []string `json:"tables"`

	// 空值比例上限：表 -> 列 -> 上限。未配置的非空列上限为0，可空列不检查
	NullFractionCeilings map[string]map[string]float64 `json:"null_fraction_ceilings,omitempty"`

	// 唯一键约束
	UniqueKeys []UniqueKey `json:"unique_keys,omitempty"`

	// 枚举检查：表 -> 列 -> 允许值。独立于表规格的allowed_values，按需配置
	EnumRules map[string]map[string][]string `json:"enum_rules,omitempty"`

	// 外键约束
	FKEdges []FKEdge `json:"fk_edges,omitempty"`

	// PII标签 -> 修复模式（drop/mask/hash）。未注册的标签不做处理
	PIIPolicy map[string]string `json:"pii_policy,omitempty"`

	// 自定义质量规则脚本
	CustomRules []CustomRule `json:"custom_rules,omitempty"`
}

// ConfigurationError 规则配置错误，运行开始前检出并终止整个运行
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("规则配置错误 [%s]: %s", e.Field, e.Reason)
}

// Validate 校验规则配置的结构合法性
// 只检查配置自身是否成立，表是否存在于数据集由协调器在运行期以违规记录的形式处理
func (c *RuleConfig) Validate() error {
	if len(c.Tables) == 0 {
		return &ConfigurationError{Field: "tables", Reason: "至少需要配置一张表"}
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, table := range c.Tables {
		if table == "" {
			return &ConfigurationError{Field: "tables", Reason: "表名不能为空"}
		}
		if seen[table] {
			return &ConfigurationError{Field: "tables", Reason: fmt.Sprintf("表 %s 重复配置", table)}
		}
		seen[table] = true
	}

	for table, cols := range c.NullFractionCeilings {
		for col, ceiling := range cols {
			if ceiling < 0 || ceiling > 1 {
				return &ConfigurationError{
					Field:  "null_fraction_ceilings",
					Reason: fmt.Sprintf("%s.%s 的上限 %v 不在 [0,1] 区间", table, col, ceiling),
				}
			}
		}
	}

	for i, key := range c.UniqueKeys {
		if key.Table == "" || len(key.Columns) == 0 {
			return &ConfigurationError{
				Field:  "unique_keys",
				Reason: fmt.Sprintf("第 %d 个唯一键缺少表名或列", i+1),
			}
		}
	}

	for i, edge := range c.FKEdges {
		if edge.ChildTable == "" || edge.ChildColumn == "" || edge.ParentTable == "" || edge.ParentColumn == "" {
			return &ConfigurationError{
				Field:  "fk_edges",
				Reason: fmt.Sprintf("第 %d 条外键约束字段不完整", i+1),
			}
		}
	}

	for i, rule := range c.CustomRules {
		if rule.Table == "" || rule.Script == "" {
			return &ConfigurationError{
				Field:  "custom_rules",
				Reason: fmt.Sprintf("第 %d 条自定义规则缺少表名或脚本", i+1),
			}
		}
	}

	return nil
}

// NullCeilingFor 返回指定表列的空值比例上限
// 未显式配置时：非空列上限为0，可空列返回1（即不检查）
func (c *RuleConfig) NullCeilingFor(table, column string, nullable bool) float64 {
	if cols, ok := c.NullFractionCeilings[table]; ok {
		if ceiling, ok := cols[column]; ok {
			return ceiling
		}
	}
	if !nullable {
		return 0
	}
	return 1.0
}

// UniqueKeysFor 返回指定表的全部唯一键
func (c *RuleConfig) UniqueKeysFor(table string) []UniqueKey {
	keys := make([]UniqueKey, 0)
	for _, key := range c.UniqueKeys {
		if key.Table == table {
			keys = append(keys, key)
		}
	}
	return keys
}

// CustomRulesFor 返回指定表的全部自定义规则
func (c *RuleConfig) CustomRulesFor(table string) []CustomRule {
	rules := make([]CustomRule, 0)
	for _, rule := range c.CustomRules {
		if rule.Table == table {
			rules = append(rules, rule)
		}
	}
	return rules
}
