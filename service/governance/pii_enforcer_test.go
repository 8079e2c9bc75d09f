/*
 * @module service/governance/pii_enforcer_test
 * @description PII策略执行器单元测试
 * @architecture 测试层 - 纯函数测试，无外部依赖
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 构造含PII列的表 -> 策略执行 -> 断言curated表与修复报告
 * @rules 覆盖drop/mask/hash三种模式、未知模式和输入表只读的不变式
 * @dependencies testing, testify
 * @refs pii_enforcer.go
 */

package governance

import (
	"strings"
	"testing"

	"governance-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerSpec() *models.TableSpec {
	return &models.TableSpec{
		TableName: "customers",
		Columns: []models.ColumnSpec{
			{Name: "id", ExpectedType: "int", Required: true},
			{Name: "email", ExpectedType: "string", PIITag: "email", Nullable: true},
			{Name: "ssn", ExpectedType: "string", PIITag: "national_id", Nullable: true},
			{Name: "city", ExpectedType: "string", Nullable: true},
		},
	}
}

func customerTable(rows int) *models.Table {
	table := &models.Table{
		Name:    "customers",
		Columns: []string{"id", "email", "ssn", "city"},
	}
	for i := 1; i <= rows; i++ {
		table.Rows = append(table.Rows, models.Row{
			"id":    i,
			"email": "user@example.com",
			"ssn":   "123-45-6789",
			"city":  "Beijing",
		})
	}
	return table
}

func TestEnforcePIIPolicy(t *testing.T) {
	t.Run("drop模式输出不包含敏感列", func(t *testing.T) {
		data := customerTable(3)
		policy := map[string]string{"email": models.PIIModeDrop}

		curated, result := EnforcePIIPolicy("customers", data, customerSpec(), policy)

		assert.NotContains(t, curated.Table.Columns, "email")
		for _, row := range curated.Table.Rows {
			_, exists := row["email"]
			assert.False(t, exists)
		}
		assert.Equal(t, []string{"email"}, curated.Remediation.ColumnsDropped)
		assert.Equal(t, models.StatusWarn, result.Status)
	})

	t.Run("mask模式所有行统一替换为占位符", func(t *testing.T) {
		data := customerTable(10)
		policy := map[string]string{"email": models.PIIModeMask}

		curated, result := EnforcePIIPolicy("customers", data, customerSpec(), policy)

		require.Len(t, curated.Table.Rows, 10)
		for _, row := range curated.Table.Rows {
			assert.Equal(t, "***MASKED***", row["email"])
		}
		assert.Equal(t, []string{"email"}, curated.Remediation.ColumnsMasked)
		assert.Equal(t, 10, curated.Remediation.RowsOut)
		v := findViolation(t, result, models.ViolationPIIRemediated)
		assert.Equal(t, 10, v.RowCount)
	})

	t.Run("hash模式确定性且不可逆", func(t *testing.T) {
		data := customerTable(2)
		policy := map[string]string{"national_id": models.PIIModeHash}

		curated, _ := EnforcePIIPolicy("customers", data, customerSpec(), policy)

		first := curated.Table.Rows[0]["ssn"].(string)
		second := curated.Table.Rows[1]["ssn"].(string)
		assert.True(t, strings.HasPrefix(first, "PII_"))
		// 相同输入产生相同摘要
		assert.Equal(t, first, second)
		assert.NotContains(t, first, "123-45-6789")
	})

	t.Run("hash模式空值原样保留", func(t *testing.T) {
		data := &models.Table{
			Name:    "customers",
			Columns: []string{"id", "email", "ssn", "city"},
			Rows:    []models.Row{{"id": 1, "email": "a@b.c", "ssn": nil, "city": "X"}},
		}
		policy := map[string]string{"national_id": models.PIIModeHash}

		curated, _ := EnforcePIIPolicy("customers", data, customerSpec(), policy)

		assert.Nil(t, curated.Table.Rows[0]["ssn"])
	})

	t.Run("未注册标签的列原样保留", func(t *testing.T) {
		data := customerTable(1)
		policy := map[string]string{"email": models.PIIModeMask}

		curated, _ := EnforcePIIPolicy("customers", data, customerSpec(), policy)

		// ssn打了national_id标签但策略未注册，保持原值
		assert.Equal(t, "123-45-6789", curated.Table.Rows[0]["ssn"])
	})

	t.Run("未知修复模式判FAIL", func(t *testing.T) {
		data := customerTable(2)
		policy := map[string]string{"email": "encrypt"}

		curated, result := EnforcePIIPolicy("customers", data, customerSpec(), policy)

		assert.Equal(t, models.StatusFail, result.Status)
		v := findViolation(t, result, models.ViolationPIIRemediationFailed)
		assert.Equal(t, "email", v.Column)
		// 失败的列不做任何修复
		assert.Equal(t, "user@example.com", curated.Table.Rows[0]["email"])
	})

	t.Run("输入表保持只读", func(t *testing.T) {
		data := customerTable(2)
		policy := map[string]string{"email": models.PIIModeMask, "national_id": models.PIIModeDrop}

		EnforcePIIPolicy("customers", data, customerSpec(), policy)

		assert.Equal(t, []string{"id", "email", "ssn", "city"}, data.Columns)
		assert.Equal(t, "user@example.com", data.Rows[0]["email"])
		assert.Equal(t, "123-45-6789", data.Rows[0]["ssn"])
	})

	t.Run("无PII列时报告为空且判PASS", func(t *testing.T) {
		data := customerTable(1)

		curated, result := EnforcePIIPolicy("customers", data, customerSpec(), nil)

		assert.Equal(t, models.StatusPass, result.Status)
		assert.Empty(t, curated.Remediation.ColumnsDropped)
		assert.Empty(t, curated.Remediation.ColumnsMasked)
		assert.Empty(t, curated.Remediation.ColumnsHashed)
		assert.Equal(t, 1, curated.Remediation.RowsIn)
		assert.Equal(t, 1, curated.Remediation.RowsOut)
	})
}
