/*
 * @module service/loader/csv_loader
 * @description CSV文件数据集加载器，支持UTF-8和GBK编码的原始数据文件
 * @architecture 适配器模式 - 文件存储到内存表的转换
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 文件定位 -> 编码转换 -> CSV解析 -> 内存表构建
 * @rules 首行为列头；空字符串单元格视为空值；表名与文件名（去扩展名）一致
 * @dependencies golang.org/x/text, encoding/csv, governance-service/service/models
 * @refs loader.go
 */

package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"governance-service/service/models"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// CSVLoader CSV文件数据集加载器
type CSVLoader struct {
	dir      string
	encoding string // utf-8 或 gbk/gb2312
}

// NewCSVLoader 创建CSV加载器，dir为数据文件目录
func NewCSVLoader(dir, encoding string) *CSVLoader {
	if encoding == "" {
		encoding = "utf-8"
	}
	return &CSVLoader{dir: dir, encoding: strings.ToLower(encoding)}
}

// LoadDataset 读取配置的全部表，每张表对应目录下的 <table>.csv
func (l *CSVLoader) LoadDataset(ctx context.Context, tables []string) (models.Dataset, error) {
	dataset := make(models.Dataset, len(tables))

	for _, tableName := range tables {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		table, err := l.loadFile(tableName)
		if err != nil {
			return nil, fmt.Errorf("加载表 %s 失败: %w", tableName, err)
		}
		dataset[tableName] = table
	}

	return dataset, nil
}

// loadFile 解析单个CSV文件为内存表
func (l *CSVLoader) loadFile(tableName string) (*models.Table, error) {
	path := filepath.Join(l.dir, tableName+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	switch l.encoding {
	case "gbk", "gb2312":
		reader = transform.NewReader(file, simplifiedchinese.GBK.NewDecoder())
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV失败: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("文件 %s 缺少列头行", path)
	}

	header := records[0]
	table := &models.Table{
		Name:    tableName,
		Columns: header,
		Rows:    make([]models.Row, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		row := make(models.Row, len(header))
		for i, col := range header {
			if i >= len(record) || record[i] == "" {
				row[col] = nil
				continue
			}
			row[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
