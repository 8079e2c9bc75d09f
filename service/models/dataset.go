/*
 * @module service/models/dataset
 * @description 数据集与表结构定义模型，描述一次治理运行所校验的表数据和表规格
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 数据加载 -> 只读校验 -> 治理结果输出
 * @rules 数据集和表规格在一次运行内不可变，校验器只读访问
 * @dependencies 无
 * @refs service/governance/, service/loader/
 */

package models

// Row 一行表数据，字段名到字段值的映射
type Row = map[string]interface{}

// Table 一张内存表，行有序排列
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// RowCount 返回表行数
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn 判断表中是否存在指定列
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Dataset 一次运行内的全部表数据，表名到表的映射
type Dataset map[string]*Table

// ColumnSpec 列规格定义
type ColumnSpec struct {
	Name          string   `json:"name"`
	ExpectedType  string   `json:"expected_type"` // string/int/float/bool/timestamp
	AllowedValues []string `json:"allowed_values,omitempty"`
	PIITag        string   `json:"pii_tag,omitempty"`
	Nullable      bool     `json:"nullable"`
	Required      bool     `json:"required"`
}

// TableSpec 表规格定义，列顺序与声明顺序一致
type TableSpec struct {
	TableName string       `json:"table_name"`
	Columns   []ColumnSpec `json:"columns"`
}

// ColumnSpecByName 按列名查找列规格
func (s *TableSpec) ColumnSpecByName(name string) (*ColumnSpec, bool) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// PIIColumns 返回带有PII标签的列名列表，顺序与规格声明一致
func (s *TableSpec) PIIColumns() []string {
	cols := make([]string, 0)
	for _, col := range s.Columns {
		if col.PIITag != "" {
			cols = append(cols, col.Name)
		}
	}
	return cols
}
