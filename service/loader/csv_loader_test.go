/*
 * @module service/loader/csv_loader_test
 * @description CSV数据集加载器单元测试
 * @architecture 测试层 - 文件IO测试，使用临时目录
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 写入临时CSV -> 加载 -> 断言内存表结构
 * @dependencies testing, testify
 * @refs csv_loader.go
 */

package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0644))
}

func TestCSVLoader(t *testing.T) {
	t.Run("加载UTF8文件并识别空单元格", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "users.csv", []byte("id,email,city\n1,a@example.com,北京\n2,,上海\n"))

		dataset, err := NewCSVLoader(dir, "utf-8").LoadDataset(context.Background(), []string{"users"})

		require.NoError(t, err)
		table := dataset["users"]
		require.NotNil(t, table)
		assert.Equal(t, []string{"id", "email", "city"}, table.Columns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "a@example.com", table.Rows[0]["email"])
		assert.Equal(t, "北京", table.Rows[0]["city"])
		// 空字符串单元格视为空值
		assert.Nil(t, table.Rows[1]["email"])
	})

	t.Run("加载GBK编码文件", func(t *testing.T) {
		dir := t.TempDir()
		encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("id,city\n1,北京\n"))
		require.NoError(t, err)
		writeFile(t, dir, "cities.csv", encoded)

		dataset, err := NewCSVLoader(dir, "gbk").LoadDataset(context.Background(), []string{"cities"})

		require.NoError(t, err)
		assert.Equal(t, "北京", dataset["cities"].Rows[0]["city"])
	})

	t.Run("仅有列头的文件产生零行表", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "empty.csv", []byte("id,name\n"))

		dataset, err := NewCSVLoader(dir, "").LoadDataset(context.Background(), []string{"empty"})

		require.NoError(t, err)
		assert.Equal(t, 0, dataset["empty"].RowCount())
		assert.Equal(t, []string{"id", "name"}, dataset["empty"].Columns)
	})

	t.Run("文件缺失返回错误", func(t *testing.T) {
		dir := t.TempDir()

		_, err := NewCSVLoader(dir, "").LoadDataset(context.Background(), []string{"ghost"})

		assert.Error(t, err)
	})
}

func TestMemoryLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.csv", []byte("id\n1\n"))
	dataset, err := NewCSVLoader(dir, "").LoadDataset(context.Background(), []string{"users"})
	require.NoError(t, err)

	loaded, err := NewMemoryLoader(dataset).LoadDataset(context.Background(), []string{"users", "missing"})

	require.NoError(t, err)
	assert.Contains(t, loaded, "users")
	// 不存在的表不占槽位，由协调器降级处理
	assert.NotContains(t, loaded, "missing")
}
