/*
 * @module service/models/check_models
 * @description 治理检查结果模型，包含检查状态、违规记录、组件结果映射和运行摘要
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 检查执行 -> 结果合并 -> 摘要构建 -> 序列化输出
 * @rules 摘要中的所有值必须可被标准JSON序列化，不允许出现特殊标量类型
 * @dependencies 无
 * @refs service/governance/
 */

package models

// 检查状态
const (
	StatusPass  = "PASS"
	StatusWarn  = "WARN"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// 检查族名称，固定顺序 Schema -> DQ -> PII -> FK
const (
	CheckSchema = "schema"
	CheckDQ     = "data_quality"
	CheckPII    = "pii_policy"
	CheckFK     = "foreign_keys"
)

// CheckFamilies 检查族的固定遍历顺序
var CheckFamilies = []string{CheckSchema, CheckDQ, CheckPII, CheckFK}

// 违规类型
const (
	ViolationMissingColumn         = "MISSING_COLUMN"
	ViolationInvalidType           = "INVALID_TYPE"
	ViolationInvalidValue          = "INVALID_VALUE"
	ViolationExtraColumn           = "EXTRA_COLUMN"
	ViolationNullThresholdExceeded = "NULL_THRESHOLD_EXCEEDED"
	ViolationUniqueKey             = "UNIQUE_KEY_VIOLATION"
	ViolationCustomRule            = "CUSTOM_RULE_VIOLATION"
	ViolationFK                    = "FK_VIOLATION"
	ViolationRequiredFKNull        = "REQUIRED_FK_NULL"
	ViolationPIIRemediated         = "PII_REMEDIATED"
	ViolationPIIRemediationFailed  = "PII_REMEDIATION_FAILED"
	ViolationMissingTable          = "MISSING_TABLE"
	ViolationEvaluatorError        = "EVALUATOR_ERROR"
	ViolationSanitizationFallback  = "SANITIZATION_FALLBACK"
)

// Violation 单条结构化违规记录
type Violation struct {
	Kind     string                 `json:"kind"`
	Table    string                 `json:"table,omitempty"`
	Column   string                 `json:"column,omitempty"`
	RowCount int                    `json:"row_count"`
	Severity string                 `json:"severity"` // PASS/WARN/FAIL/ERROR 之一
	Detail   map[string]interface{} `json:"detail,omitempty"`
}

// CheckResult 单个检查器对单张表的检查结果
type CheckResult struct {
	Status     string                 `json:"status"`
	Violations []Violation            `json:"violations"`
	Metrics    map[string]interface{} `json:"metrics,omitempty"`
	// Curated 仅PII检查填充，摘要构建时剥离，不参与序列化输出
	Curated *CuratedTable `json:"-"`
}

// NewCheckResult 创建一个初始为PASS的空检查结果
func NewCheckResult() *CheckResult {
	return &CheckResult{
		Status:     StatusPass,
		Violations: make([]Violation, 0),
		Metrics:    make(map[string]interface{}),
	}
}

// AddViolation 追加一条违规并按严重级别降级状态
func (r *CheckResult) AddViolation(v Violation) {
	r.Violations = append(r.Violations, v)
	r.Status = WorseStatus(r.Status, v.Severity)
}

// WorseStatus 返回两个状态中更严重的一个，严重程度 ERROR > FAIL > WARN > PASS
func WorseStatus(a, b string) string {
	rank := map[string]int{StatusPass: 0, StatusWarn: 1, StatusFail: 2, StatusError: 3}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// ComponentMap 检查族 -> 表（或外键边标识） -> 检查结果
// 协调器构建完成后只读，摘要构建器是唯一消费方
type ComponentMap map[string]map[string]*CheckResult

// RemediationReport PII修复报告，即使没有PII列也始终生成（空列表）
type RemediationReport struct {
	ColumnsDropped []string `json:"columns_dropped"`
	ColumnsMasked  []string `json:"columns_masked"`
	ColumnsHashed  []string `json:"columns_hashed"`
	RowsIn         int      `json:"rows_in"`
	RowsOut        int      `json:"rows_out"`
}

// NewRemediationReport 创建空的修复报告
func NewRemediationReport(rowsIn int) *RemediationReport {
	return &RemediationReport{
		ColumnsDropped: make([]string, 0),
		ColumnsMasked:  make([]string, 0),
		ColumnsHashed:  make([]string, 0),
		RowsIn:         rowsIn,
		RowsOut:        rowsIn,
	}
}

// CuratedTable PII修复后的输出表
type CuratedTable struct {
	Table       *Table             `json:"-"`
	Remediation *RemediationReport `json:"remediation"`
}

// RunSummary 一次治理运行的规范化摘要，是引擎对外的唯一输出契约
// 所有字段都只包含字符串/数字/布尔/空值/列表/映射
type RunSummary struct {
	RunID         string                       `json:"run_id"`
	Timestamp     string                       `json:"timestamp"`
	Description   string                       `json:"description,omitempty"`
	OverallStatus string                       `json:"overall_status"`
	PerTable      map[string]map[string]string `json:"per_table"` // 表 -> 检查族 -> 状态
	Violations    []Violation                  `json:"violations"`
	Metrics       map[string]interface{}       `json:"metrics"`
	Remediation   map[string]*RemediationReport `json:"remediation"` // 表 -> 修复报告
}
