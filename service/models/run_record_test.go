/*
 * @module service/models/run_record_test
 * @description 治理运行记录模型单元测试
 * @architecture 测试层
 * @documentReference ai_docs/governance_engine_req.md
 * @dependencies testing, testify
 * @refs run_record.go
 */

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunRecord(t *testing.T) {
	summary := &RunSummary{
		RunID:         "run-7",
		Timestamp:     "2026-08-24T02:00:00Z",
		OverallStatus: StatusWarn,
		PerTable: map[string]map[string]string{
			"users": {CheckSchema: StatusPass},
		},
		Violations: []Violation{
			{Kind: ViolationPIIRemediated, Table: "users", Severity: StatusWarn},
		},
		Remediation: map[string]*RemediationReport{
			"users": {
				ColumnsDropped: []string{"ssn"},
				ColumnsMasked:  []string{"email"},
				ColumnsHashed:  []string{"phone"},
				RowsIn:         5,
				RowsOut:        5,
			},
		},
	}
	startedAt := time.Date(2026, 8, 24, 2, 0, 0, 0, time.UTC)
	finishedAt := startedAt.Add(1200 * time.Millisecond)

	record, err := NewRunRecord("orders_daily", summary, startedAt, finishedAt)

	require.NoError(t, err)
	assert.Equal(t, "run-7", record.RunID)
	assert.Equal(t, "orders_daily", record.Pipeline)
	assert.Equal(t, StatusWarn, record.OverallStatus)
	assert.Equal(t, 1, record.ViolationCount)
	assert.Equal(t, int64(1200), record.Duration)
	assert.Contains(t, record.TablesChecked, "users")
	assert.Contains(t, record.ColumnsDropped, "users.ssn")
	// hash列与mask列合并记录为已脱敏列
	assert.Contains(t, record.ColumnsMasked, "users.email")
	assert.Contains(t, record.ColumnsMasked, "users.phone")
	assert.Equal(t, "run-7", record.Summary["run_id"])
}
