package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StoreCode 后端存储返回的稳定错误码
type StoreCode string

const (
	CodeUniqueViolation      StoreCode = "UNIQUE_VIOLATION"
	CodeNotFound             StoreCode = "NOT_FOUND"
	CodeForeignKeyViolation  StoreCode = "FOREIGN_KEY_VIOLATION"
	CodeRequiredFieldMissing StoreCode = "REQUIRED_FIELD_MISSING"
	CodeInvalidDataType      StoreCode = "INVALID_DATA_TYPE"
	CodeOperationFailed      StoreCode = "OPERATION_FAILED"
	CodeConnection           StoreCode = "CONNECTION"
	CodeTimeout              StoreCode = "TIMEOUT"
)

// StoreError 表示一次失败的存储操作。
//
// Target 列出引起冲突的字段（例如唯一约束涉及的列），Err 保留驱动的原始错误。
type StoreError struct {
	Code   StoreCode
	Model  string
	Target []string
	Err    error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	b.WriteString("store: ")
	b.WriteString(string(e.Code))
	if e.Model != "" {
		b.WriteString(" on ")
		b.WriteString(e.Model)
	}
	if len(e.Target) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Target, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Field 返回第一个目标字段，没有时返回空字符串。
func (e *StoreError) Field() string {
	if e == nil || len(e.Target) == 0 {
		return ""
	}
	return e.Target[0]
}

// NewStoreError 创建存储错误
func NewStoreError(code StoreCode, model string, err error, target ...string) *StoreError {
	return &StoreError{Code: code, Model: model, Target: target, Err: err}
}

// StoreCodeOf 返回错误链上的存储错误码。
func StoreCodeOf(err error) (StoreCode, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code, true
	}
	return "", false
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	code, ok := StoreCodeOf(err)
	return ok && code == CodeNotFound
}

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	code, ok := StoreCodeOf(err)
	return ok && code == CodeUniqueViolation
}

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError 汇总请求体的字段校验失败
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages 返回每个字段的可读消息
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Field+" "+f.Message)
	}
	return out
}

// TokenError 表示无效或过期的访问令牌
type TokenError struct {
	Expired bool
	Err     error
}

func (e *TokenError) Error() string {
	prefix := "invalid token"
	if e.Expired {
		prefix = "token expired"
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *TokenError) Unwrap() error { return e.Err }

// StatusError 携带调用方预先决定的 HTTP 状态码
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// WithStatus 创建带状态码的错误
func WithStatus(status int, format string, args ...any) *StatusError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &StatusError{Status: status, Message: msg}
}

// BadRequest 400
func BadRequest(format string, args ...any) *StatusError {
	return WithStatus(http.StatusBadRequest, format, args...)
}

// NotFound 404
func NotFound(format string, args ...any) *StatusError {
	return WithStatus(http.StatusNotFound, format, args...)
}

// InvalidQuery 列表查询参数无法解释时返回
func InvalidQuery(format string, args ...any) *StatusError {
	return BadRequest(format, args...)
}
