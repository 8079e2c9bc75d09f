/*
 * @module service/loader/loader
 * @description 数据集加载器边界，定义加载契约并提供数据库表加载实现
 * @architecture 适配器模式 - 屏蔽存储细节，向引擎提供只读内存表
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 表名解析 -> 行读取 -> 内存表构建 -> 数据集返回
 * @rules 加载器一次性返回完整数据集，引擎不做流式读取；加载失败整体返回错误
 * @dependencies gorm.io/gorm, governance-service/service/models
 * @refs service/governance/governance_service.go
 */

package loader

import (
	"context"
	"fmt"

	"governance-service/service/models"

	"gorm.io/gorm"
)

// DatasetLoader 数据集加载契约，引擎只消费该接口，不直接读存储
type DatasetLoader interface {
	LoadDataset(ctx context.Context, tables []string) (models.Dataset, error)
}

// DBLoader 基于gorm的数据库表加载器
type DBLoader struct {
	db     *gorm.DB
	schema string
}

// NewDBLoader 创建数据库表加载器，schema为空时使用连接默认schema
func NewDBLoader(db *gorm.DB, schema string) *DBLoader {
	return &DBLoader{db: db, schema: schema}
}

// LoadDataset 读取配置的全部表到内存数据集
func (l *DBLoader) LoadDataset(ctx context.Context, tables []string) (models.Dataset, error) {
	dataset := make(models.Dataset, len(tables))

	for _, tableName := range tables {
		table, err := l.loadTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("加载表 %s 失败: %w", tableName, err)
		}
		dataset[tableName] = table
	}

	return dataset, nil
}

// loadTable 读取单张表，列顺序取自数据库列定义
func (l *DBLoader) loadTable(ctx context.Context, tableName string) (*models.Table, error) {
	fullName := tableName
	if l.schema != "" {
		fullName = fmt.Sprintf("%s.%s", l.schema, tableName)
	}

	columnTypes, err := l.db.WithContext(ctx).Migrator().ColumnTypes(fullName)
	if err != nil {
		return nil, fmt.Errorf("读取列定义失败: %w", err)
	}
	columns := make([]string, 0, len(columnTypes))
	for _, col := range columnTypes {
		columns = append(columns, col.Name())
	}

	rows := make([]map[string]interface{}, 0)
	if err := l.db.WithContext(ctx).Table(fullName).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("读取行数据失败: %w", err)
	}

	table := &models.Table{
		Name:    tableName,
		Columns: columns,
		Rows:    make([]models.Row, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, models.Row(row))
	}

	return table, nil
}

// MemoryLoader 静态内存数据集加载器，用于测试和固定数据场景
type MemoryLoader struct {
	dataset models.Dataset
}

// NewMemoryLoader 创建内存数据集加载器
func NewMemoryLoader(dataset models.Dataset) *MemoryLoader {
	return &MemoryLoader{dataset: dataset}
}

// LoadDataset 返回构造时给定的数据集中配置要求的表
func (l *MemoryLoader) LoadDataset(ctx context.Context, tables []string) (models.Dataset, error) {
	dataset := make(models.Dataset, len(tables))
	for _, tableName := range tables {
		if table, ok := l.dataset[tableName]; ok {
			dataset[tableName] = table
		}
	}
	return dataset, nil
}
