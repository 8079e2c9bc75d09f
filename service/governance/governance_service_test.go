/*
 * @module service/governance/governance_service_test
 * @description 治理服务门面集成测试，使用内存SQLite和内存数据集加载器
 * @architecture 测试层 - 服务集成测试
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 测试数据库初始化 -> 运行执行 -> 落库与查询断言
 * @dependencies testing, testify, gorm, sqlite
 * @refs governance_service.go
 */

package governance

import (
	"context"
	"testing"

	"governance-service/service/loader"
	"governance-service/service/models"
	"governance-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()
	testDB := testutil.NewTestDB()
	t.Cleanup(testDB.Close)

	dataset := testutil.UsersEventsDataset(3, 6, 2)
	svc := NewService(testDB.DB, loader.NewMemoryLoader(dataset))
	return svc, testDB
}

func testSpecs() map[string]*models.TableSpec {
	return map[string]*models.TableSpec{
		"users":  testutil.UsersTableSpec(),
		"events": testutil.EventsTableSpec(),
	}
}

func TestServiceExecuteRun(t *testing.T) {
	t.Run("完整运行返回摘要并落库", func(t *testing.T) {
		svc, testDB := newTestService(t)
		config := testutil.UsersEventsConfig()

		summary, err := svc.ExecuteRun(context.Background(), "orders_daily", testSpecs(), config)

		require.NoError(t, err)
		// 两条事件指向不存在的用户
		assert.Equal(t, models.StatusFail, summary.OverallStatus)
		fk := violationInSummary(summary, models.ViolationFK)
		require.NotNil(t, fk)
		assert.Equal(t, 2, fk.RowCount)

		var record models.GovernanceRunRecord
		require.NoError(t, testDB.DB.Where("run_id = ?", summary.RunID).First(&record).Error)
		assert.Equal(t, "orders_daily", record.Pipeline)
		assert.Equal(t, models.StatusFail, record.OverallStatus)
		assert.Equal(t, len(summary.Violations), record.ViolationCount)
		assert.Contains(t, record.ColumnsMasked, "users.email")
	})

	t.Run("配置错误直接返回不落库", func(t *testing.T) {
		svc, testDB := newTestService(t)

		_, err := svc.ExecuteRun(context.Background(), "p", testSpecs(), &models.RuleConfig{})

		require.Error(t, err)
		var confErr *models.ConfigurationError
		assert.ErrorAs(t, err, &confErr)

		var count int64
		testDB.DB.Model(&models.GovernanceRunRecord{}).Count(&count)
		assert.Zero(t, count)
	})
}

func TestServiceQueries(t *testing.T) {
	t.Run("LatestSummary未命中缓存时回源数据库", func(t *testing.T) {
		svc, _ := newTestService(t)
		config := testutil.UsersEventsConfig()

		executed, err := svc.ExecuteRun(context.Background(), "p1", testSpecs(), config)
		require.NoError(t, err)

		latest, err := svc.LatestSummary(context.Background(), "p1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, executed.RunID, latest.RunID)
		assert.Equal(t, executed.OverallStatus, latest.OverallStatus)
	})

	t.Run("无记录的流水线返回nil", func(t *testing.T) {
		svc, _ := newTestService(t)

		latest, err := svc.LatestSummary(context.Background(), "unknown")

		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("GetRun按运行ID查询", func(t *testing.T) {
		svc, _ := newTestService(t)
		config := testutil.UsersEventsConfig()

		summary, err := svc.ExecuteRun(context.Background(), "p2", testSpecs(), config)
		require.NoError(t, err)

		record, err := svc.GetRun(context.Background(), summary.RunID)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, summary.RunID, record.RunID)

		missing, err := svc.GetRun(context.Background(), "no-such-run")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ListRuns分页并按流水线过滤", func(t *testing.T) {
		svc, _ := newTestService(t)
		specs := testSpecs()

		for i := 0; i < 3; i++ {
			config := testutil.UsersEventsConfig()
			config.RunID = ""
			_, err := svc.ExecuteRun(context.Background(), "p3", specs, config)
			require.NoError(t, err)
		}
		config := testutil.UsersEventsConfig()
		config.RunID = "other-run"
		_, err := svc.ExecuteRun(context.Background(), "p4", specs, config)
		require.NoError(t, err)

		records, total, err := svc.ListRuns(context.Background(), "p3", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, records, 2)

		all, total, err := svc.ListRuns(context.Background(), "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, all, 4)
	})

	t.Run("SummaryForRun还原落库摘要", func(t *testing.T) {
		svc, _ := newTestService(t)
		config := testutil.UsersEventsConfig()

		executed, err := svc.ExecuteRun(context.Background(), "p5", testSpecs(), config)
		require.NoError(t, err)

		restored, err := svc.SummaryForRun(context.Background(), executed.RunID)
		require.NoError(t, err)
		require.NotNil(t, restored)
		assert.Equal(t, executed.RunID, restored.RunID)
		assert.Equal(t, len(executed.Violations), len(restored.Violations))
	})
}
