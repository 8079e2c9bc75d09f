/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"testing"

	"governance-service/service/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建内存测试数据库并迁移治理运行记录表
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	if err := db.AutoMigrate(&models.GovernanceRunRecord{}); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// Close 关闭测试数据库连接
func (t *TestDB) Close() {
	if sqlDB, err := t.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// UsersTableSpec 用户表规格工厂，带一个PII邮箱列
func UsersTableSpec() *models.TableSpec {
	return &models.TableSpec{
		TableName: "users",
		Columns: []models.ColumnSpec{
			{Name: "id", ExpectedType: "int", Required: true},
			{Name: "email", ExpectedType: "string", PIITag: "email", Nullable: true},
			{Name: "country", ExpectedType: "string", AllowedValues: []string{"CN", "US", "DE"}, Nullable: true},
		},
	}
}

// EventsTableSpec 事件表规格工厂，user_id外键指向users.id
func EventsTableSpec() *models.TableSpec {
	return &models.TableSpec{
		TableName: "events",
		Columns: []models.ColumnSpec{
			{Name: "event_id", ExpectedType: "int", Required: true},
			{Name: "user_id", ExpectedType: "int", Nullable: true},
		},
	}
}

// UsersEventsDataset 用户/事件双表数据集工厂
// badRows指定events中user_id指向不存在用户的行数
func UsersEventsDataset(userCount, eventCount, badRows int) models.Dataset {
	users := &models.Table{
		Name:    "users",
		Columns: []string{"id", "email", "country"},
	}
	for i := 1; i <= userCount; i++ {
		users.Rows = append(users.Rows, models.Row{
			"id":      i,
			"email":   fmt.Sprintf("user%d@example.com", i),
			"country": "CN",
		})
	}

	events := &models.Table{
		Name:    "events",
		Columns: []string{"event_id", "user_id"},
	}
	for i := 1; i <= eventCount; i++ {
		userID := (i % userCount) + 1
		if i <= badRows {
			userID = userCount + 1000 + i
		}
		events.Rows = append(events.Rows, models.Row{
			"event_id": i,
			"user_id":  userID,
		})
	}

	return models.Dataset{"users": users, "events": events}
}

// UsersEventsConfig 用户/事件场景的规则配置工厂
func UsersEventsConfig() *models.RuleConfig {
	return &models.RuleConfig{
		RunID:  "test-run",
		Tables: []string{"users", "events"},
		UniqueKeys: []models.UniqueKey{
			{Table: "users", Columns: []string{"id"}},
		},
		FKEdges: []models.FKEdge{
			{ChildTable: "events", ChildColumn: "user_id", ParentTable: "users", ParentColumn: "id"},
		},
		PIIPolicy: map[string]string{"email": models.PIIModeMask},
	}
}

// AssertNoViolationKind 断言结果中不包含指定类型的违规
func AssertNoViolationKind(t *testing.T, result *models.CheckResult, kind string) {
	t.Helper()
	for _, v := range result.Violations {
		if v.Kind == kind {
			t.Fatalf("unexpected violation kind %s: %+v", kind, v)
		}
	}
}

// FindViolation 按类型查找第一条违规，未找到返回nil
func FindViolation(result *models.CheckResult, kind string) *models.Violation {
	for i := range result.Violations {
		if result.Violations[i].Kind == kind {
			return &result.Violations[i]
		}
	}
	return nil
}
