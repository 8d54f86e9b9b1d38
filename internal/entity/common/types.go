package common

import "math"

// Response 是成功响应的统一包装。
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorBody 是失败响应的统一包装。
//
// Error 与 Code 只在非生产模式下填充。
type ErrorBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Pagination 列表接口附带的分页元数据，总是由 total/page/limit 推导。
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// NewPagination 根据总数、页码、每页数量以及本页实际条数计算分页信息。
func NewPagination(total int64, page, limit, returned int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if total < 0 {
		total = 0
	}
	offset := int64(page-1) * int64(limit)
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		HasMore:    offset+int64(returned) < total,
	}
}
