package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"userapi/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// bindJSON 解析请求体并执行 binding 标签校验，失败时返回可交给 ErrorNormalizer 的错误
func bindJSON(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return parseBindError(err, out)
	}
	return nil
}

func parseBindError(err error, out interface{}) error {
	rootType := baseStructType(out)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]apperr.FieldError, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			rule := fieldErr.Tag()
			param := fieldErr.Param()
			fields = append(fields, apperr.FieldError{
				Field:   jsonFieldName(rootType, fieldErr),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return &apperr.ValidationError{Fields: fields}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := strings.TrimSpace(typeErr.Field)
		if field == "" {
			field = "body"
		}
		return &apperr.ValidationError{Fields: []apperr.FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		}}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.BadRequest("Invalid request body")
	}

	return apperr.BadRequest("Invalid request body: %s", err.Error())
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

// jsonFieldName 将结构体字段名映射为 json 标签名，dive 产生的下标（如 RoleIDs[0]）保留
func jsonFieldName(rootType reflect.Type, fieldErr validator.FieldError) string {
	if rootType != nil {
		structField, index := fieldErr.StructField(), ""
		if i := strings.IndexByte(structField, '['); i >= 0 {
			structField, index = structField[:i], structField[i:]
		}
		if sf, ok := rootType.FieldByName(structField); ok {
			tag := sf.Tag.Get("json")
			if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
				return name + index
			}
		}
	}
	return fieldErr.Field()
}

// bindJSONArray 确认请求体中的 key 是 JSON 数组，再绑定并校验完整请求体
func bindJSONArray(c *gin.Context, key string, out interface{}) (isArray bool, err error) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&fields, binding.JSON); err != nil {
		return false, err
	}
	raw := bytes.TrimSpace(fields[key])
	if len(raw) == 0 || raw[0] != '[' {
		return false, nil
	}
	if err := c.ShouldBindBodyWith(out, binding.JSON); err != nil {
		return true, parseBindError(err, out)
	}
	return true, nil
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "gt":
		return "must be greater than " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}

// parseID 解析路径中的正整数 ID
func parseID(c *gin.Context, param, entity string) (uint, error) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("Invalid %s ID", entity)
	}
	return uint(id), nil
}
