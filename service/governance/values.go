/*
 * @module service/governance/values
 * @description 字段值辅助函数，提供空值判定和声明类型的强制转换检查
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 无状态纯函数
 * @rules 空值判定与类型检查在所有检查器间保持一致
 * @dependencies github.com/spf13/cast
 * @refs schema_validator.go, data_quality.go
 */

package governance

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// isNull 判断字段值是否视为空：nil或纯空白字符串
func isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// coercibleTo 判断字段值能否强制转换为声明类型
// 未知的声明类型视为可转换，由配置校验层负责拦截非法类型名
func coercibleTo(value interface{}, expectedType string) bool {
	if isNull(value) {
		return true
	}

	switch strings.ToLower(expectedType) {
	case "string", "text", "":
		_, err := cast.ToStringE(value)
		return err == nil
	case "int", "integer", "bigint":
		_, err := cast.ToInt64E(value)
		return err == nil
	case "float", "double", "decimal", "number":
		_, err := cast.ToFloat64E(value)
		return err == nil
	case "bool", "boolean":
		_, err := cast.ToBoolE(value)
		return err == nil
	case "timestamp", "datetime", "date", "time":
		_, err := cast.ToTimeE(value)
		return err == nil
	default:
		return true
	}
}

// valueKey 返回字段值的规范字符串形式，用于集合成员判定和重复键分组
func valueKey(value interface{}) string {
	return fmt.Sprintf("%v", value)
}
