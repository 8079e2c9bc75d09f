/*
 * @module service/report/markdown
 * @description Markdown报告渲染器，将运行摘要渲染为可读的治理报告文档
 * @architecture 分层架构 - 报告展示层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 摘要读取 -> 分节渲染 -> Markdown文本输出
 * @rules 纯展示层，只读摘要不做治理判断；相同摘要渲染结果逐字节一致
 * @dependencies governance-service/service/models, strings, fmt
 * @refs service/governance/summary_builder.go
 */

package report

import (
	"fmt"
	"sort"
	"strings"

	"governance-service/service/models"
)

// 检查族的展示名称
var familyTitles = map[string]string{
	models.CheckSchema: "Schema Validation",
	models.CheckDQ:     "Data Quality Checks",
	models.CheckPII:    "PII / Policy Enforcement",
	models.CheckFK:     "Referential Integrity",
}

// RenderMarkdown 将运行摘要渲染为Markdown报告
func RenderMarkdown(summary *models.RunSummary) string {
	var b strings.Builder

	b.WriteString("# Data Governance Run Report\n\n")
	b.WriteString(fmt.Sprintf("**Overall Status:** %s\n\n", statusBadge(summary.OverallStatus)))
	b.WriteString(fmt.Sprintf("- **Run ID:** `%s`\n", summary.RunID))
	b.WriteString(fmt.Sprintf("- **Timestamp:** %s\n", summary.Timestamp))
	if summary.Description != "" {
		b.WriteString(fmt.Sprintf("- **Description:** %s\n", summary.Description))
	}
	b.WriteString("\n")

	// 每表每检查状态，表名排序保证渲染稳定
	b.WriteString("## Per-table Status\n\n")
	tables := make([]string, 0, len(summary.PerTable))
	for table := range summary.PerTable {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	b.WriteString("| Table | Schema | Data Quality | PII | FK |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, table := range tables {
		perCheck := summary.PerTable[table]
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			table,
			statusCell(perCheck, models.CheckSchema),
			statusCell(perCheck, models.CheckDQ),
			statusCell(perCheck, models.CheckPII),
			statusCell(perCheck, models.CheckFK),
		))
	}
	b.WriteString("\n")

	// 违规明细，保持摘要中的展平顺序
	b.WriteString("## Violations\n\n")
	if len(summary.Violations) == 0 {
		b.WriteString("No violations detected.\n\n")
	} else {
		for _, v := range summary.Violations {
			location := v.Table
			if v.Column != "" {
				location = fmt.Sprintf("%s.%s", v.Table, v.Column)
			}
			b.WriteString(fmt.Sprintf("- **%s** `%s` (rows: %d, severity: %s)\n",
				v.Kind, location, v.RowCount, v.Severity))
		}
		b.WriteString("\n")
	}

	// PII修复报告
	b.WriteString("## PII Remediation\n\n")
	if len(summary.Remediation) == 0 {
		b.WriteString("No PII remediation performed.\n\n")
	} else {
		remTables := make([]string, 0, len(summary.Remediation))
		for table := range summary.Remediation {
			remTables = append(remTables, table)
		}
		sort.Strings(remTables)

		for _, table := range remTables {
			rep := summary.Remediation[table]
			b.WriteString(fmt.Sprintf("### %s\n\n", table))
			b.WriteString(fmt.Sprintf("- **Columns dropped:** %s\n", columnList(rep.ColumnsDropped)))
			b.WriteString(fmt.Sprintf("- **Columns masked:** %s\n", columnList(rep.ColumnsMasked)))
			b.WriteString(fmt.Sprintf("- **Columns hashed:** %s\n", columnList(rep.ColumnsHashed)))
			b.WriteString(fmt.Sprintf("- **Rows in / out:** %d / %d\n\n", rep.RowsIn, rep.RowsOut))
		}
	}

	return b.String()
}

// statusBadge 总体状态徽标
func statusBadge(status string) string {
	switch status {
	case models.StatusPass:
		return "✅ PASSED"
	case models.StatusWarn:
		return "⚠️ PASSED WITH WARNINGS"
	default:
		return "❌ FAILED"
	}
}

// statusCell 表格单元格状态，未执行的检查显示为短横线
func statusCell(perCheck map[string]string, family string) string {
	if status, ok := perCheck[family]; ok {
		return status
	}
	return "—"
}

// columnList 列名列表的行内代码格式，空列表显示为(none)
func columnList(columns []string) string {
	if len(columns) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("`%s`", col)
	}
	return strings.Join(quoted, ", ")
}
