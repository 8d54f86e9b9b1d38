package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/entity/common"
	"userapi/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 非存储类错误的分类码
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeUnclassified = "UNCLASSIFIED"
)

// 对外错误消息
const (
	msgUniqueViolation   = "A record with this %s already exists"
	msgNotFound          = "Record not found"
	msgForeignKey        = "Invalid reference: related record does not exist"
	msgRequiredField     = "Required field is missing"
	msgInvalidData       = "Invalid data provided"
	msgOperationFailed   = "Database operation failed"
	msgValidationFailed  = "Validation failed"
	msgTokenInvalid      = "Invalid token"
	msgTokenExpired      = "Token expired"
	msgInternalFallback  = "Internal server error"
	defaultConflictField = "field"
)

// ErrorNormalizer 将任意错误转换为 HTTP 状态码和统一的失败响应体。
//
// production 为 true 时响应体不包含 error / code 等内部细节，日志也不记录完整错误链。
type ErrorNormalizer struct {
	production bool
	logger     *logrus.Logger
	metrics    *observability.Prom
}

// NewErrorNormalizer 创建错误归一化器，logger 为空时使用 logrus 标准 logger
func NewErrorNormalizer(production bool, logger *logrus.Logger, metrics *observability.Prom) *ErrorNormalizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorNormalizer{production: production, logger: logger, metrics: metrics}
}

// Normalize 计算错误对应的状态码与响应体。presetStatus 为调用方已设置的状态码。
func (n *ErrorNormalizer) Normalize(err error, presetStatus int) (int, common.ErrorBody) {
	status, code, body := classify(err, presetStatus)
	if !n.production {
		body.Error = err.Error()
		body.Code = code
	}
	return status, body
}

// Respond 记录日志和指标，并写出失败响应
func (n *ErrorNormalizer) Respond(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, body := classify(err, c.Writer.Status())
	n.log(c, err, status, code, body.Message)
	n.metrics.ObserveError(status, code)

	if !n.production {
		body.Error = err.Error()
		body.Code = code
	}
	c.AbortWithStatusJSON(status, body)
}

// Middleware 在处理链结束后处理通过 c.Error 记录的最后一个错误
func (n *ErrorNormalizer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		n.Respond(c, c.Errors.Last().Err)
	}
}

func (n *ErrorNormalizer) log(c *gin.Context, err error, status int, code, message string) {
	fields := logrus.Fields{
		"status":  status,
		"code":    code,
		"message": message,
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
	}
	if id, ok := c.Get(requestIDKey); ok {
		fields["request_id"] = id
	}
	entry := n.logger.WithFields(fields)
	if !n.production {
		entry = entry.WithError(err)
	}
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		return
	}
	entry.Warn("request failed")
}

// classify 是错误分类表，返回状态码、分类码以及不含内部细节的响应体
func classify(err error, presetStatus int) (int, string, common.ErrorBody) {
	body := common.ErrorBody{Success: false}

	var storeErr *apperr.StoreError
	if errors.As(err, &storeErr) {
		code := string(storeErr.Code)
		switch storeErr.Code {
		case apperr.CodeUniqueViolation:
			field := defaultConflictField
			if len(storeErr.Target) > 0 {
				field = strings.Join(storeErr.Target, ", ")
			}
			body.Message = fmt.Sprintf(msgUniqueViolation, field)
			body.Errors = map[string]string{"field": field, "value": "already exists"}
			return http.StatusConflict, code, body
		case apperr.CodeNotFound:
			body.Message = msgNotFound
			return http.StatusNotFound, code, body
		case apperr.CodeForeignKeyViolation:
			body.Message = msgForeignKey
			return http.StatusBadRequest, code, body
		case apperr.CodeRequiredFieldMissing:
			body.Message = msgRequiredField
			return http.StatusBadRequest, code, body
		case apperr.CodeInvalidDataType:
			body.Message = msgInvalidData
			return http.StatusBadRequest, code, body
		default:
			body.Message = msgOperationFailed
			return http.StatusBadRequest, code, body
		}
	}

	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		body.Message = msgValidationFailed
		body.Errors = validationErr.Messages()
		return http.StatusBadRequest, CodeValidation, body
	}

	var tokenErr *apperr.TokenError
	if errors.As(err, &tokenErr) {
		if tokenErr.Expired {
			body.Message = msgTokenExpired
			return http.StatusUnauthorized, CodeTokenExpired, body
		}
		body.Message = msgTokenInvalid
		return http.StatusUnauthorized, CodeTokenInvalid, body
	}

	status := http.StatusInternalServerError
	var statusErr *apperr.StatusError
	if errors.As(err, &statusErr) && statusErr.Status >= http.StatusBadRequest {
		status = statusErr.Status
	} else if presetStatus >= http.StatusBadRequest {
		status = presetStatus
	}
	body.Message = err.Error()
	if body.Message == "" {
		body.Message = msgInternalFallback
	}
	return status, CodeUnclassified, body
}
