/*
 * @module api/controllers/response
 * @description 统一API响应结构定义，所有控制器共用的响应信封
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/governance_engine_req.md
 * @stateFlow 无状态数据结构
 * @rules 所有HTTP响应使用统一信封，分页查询附带总数和分页参数
 * @refs api/controllers/run_controller.go
 */

package controllers

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}
