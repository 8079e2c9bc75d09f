/*
 * @module service/models/run_record
 * @description 治理运行记录模型，持久化每次运行的摘要供报表和看板查询
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 运行完成 -> 摘要落库 -> 历史查询
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/governance/governance_service.go
 */

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GovernanceRunRecord 治理运行记录
type GovernanceRunRecord struct {
	ID             string         `gorm:"type:uuid;primary_key" json:"id"`
	RunID          string         `gorm:"not null;index" json:"run_id"`
	Pipeline       string         `gorm:"not null;index;default:'default'" json:"pipeline"`
	OverallStatus  string         `gorm:"type:varchar(20);not null" json:"overall_status"`
	ViolationCount int            `gorm:"not null;default:0" json:"violation_count"`
	TablesChecked  pq.StringArray `gorm:"type:text[]" json:"tables_checked"`
	ColumnsDropped pq.StringArray `gorm:"type:text[]" json:"columns_dropped"`
	ColumnsMasked  pq.StringArray `gorm:"type:text[]" json:"columns_masked"`
	Summary        JSONB          `gorm:"type:jsonb" json:"summary"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Duration       int64          `json:"duration"` // 运行时长，毫秒
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (GovernanceRunRecord) TableName() string {
	return "governance_run_records"
}

// BeforeCreate 创建前钩子
func (r *GovernanceRunRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// NewRunRecord 从运行摘要构建持久化记录
func NewRunRecord(pipeline string, summary *RunSummary, startedAt, finishedAt time.Time) (*GovernanceRunRecord, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("序列化运行摘要失败: %w", err)
	}
	var payload JSONB
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("反序列化运行摘要失败: %w", err)
	}

	record := &GovernanceRunRecord{
		RunID:          summary.RunID,
		Pipeline:       pipeline,
		OverallStatus:  summary.OverallStatus,
		ViolationCount: len(summary.Violations),
		TablesChecked:  make(pq.StringArray, 0, len(summary.PerTable)),
		ColumnsDropped: make(pq.StringArray, 0),
		ColumnsMasked:  make(pq.StringArray, 0),
		Summary:        payload,
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		Duration:       finishedAt.Sub(startedAt).Milliseconds(),
	}

	for table := range summary.PerTable {
		record.TablesChecked = append(record.TablesChecked, table)
	}
	for table, report := range summary.Remediation {
		for _, col := range report.ColumnsDropped {
			record.ColumnsDropped = append(record.ColumnsDropped, fmt.Sprintf("%s.%s", table, col))
		}
		for _, col := range report.ColumnsMasked {
			record.ColumnsMasked = append(record.ColumnsMasked, fmt.Sprintf("%s.%s", table, col))
		}
		for _, col := range report.ColumnsHashed {
			record.ColumnsMasked = append(record.ColumnsMasked, fmt.Sprintf("%s.%s", table, col))
		}
	}

	return record, nil
}
