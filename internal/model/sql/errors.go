package sql

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"userapi/internal/apperr"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	pgKeyPattern       = regexp.MustCompile(`Key \(([^)]+)\)=`)
	mysqlKeyPattern    = regexp.MustCompile(`for key '([^']+)'`)
	mysqlColumnPattern = regexp.MustCompile(`Column '([^']+)'`)
)

// columnFields 数据库列名到对外字段名的映射
var columnFields = map[string]string{
	"user_id":       "userId",
	"role_id":       "roleId",
	"author_id":     "authorId",
	"role_name":     "roleName",
	"password_hash": "password",
	"created_at":    "createdAt",
	"updated_at":    "updatedAt",
}

// translateError 将 GORM / 驱动错误转换为 *apperr.StoreError。
func translateError(model string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *apperr.StoreError
	if errors.As(err, &storeErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NewStoreError(apperr.CodeNotFound, model, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.NewStoreError(apperr.CodeTimeout, model, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.NewStoreError(apperr.CodeUniqueViolation, model, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, model, err)
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue), errors.Is(err, gorm.ErrInvalidField):
		return apperr.NewStoreError(apperr.CodeInvalidDataType, model, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return translatePostgres(model, pgErr, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return translateMySQL(model, myErr, err)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return translateSQLite(model, liteErr, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "bad connection") {
		return apperr.NewStoreError(apperr.CodeConnection, model, err)
	}
	return apperr.NewStoreError(apperr.CodeOperationFailed, model, err)
}

func translatePostgres(model string, pgErr *pgconn.PgError, err error) error {
	switch pgErr.Code {
	case "23505":
		return apperr.NewStoreError(apperr.CodeUniqueViolation, model, err, postgresKeyFields(pgErr)...)
	case "23503":
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, model, err)
	case "23502":
		return apperr.NewStoreError(apperr.CodeRequiredFieldMissing, model, err, fieldName(pgErr.ColumnName))
	case "22P02", "22001", "22003", "22007", "22008":
		return apperr.NewStoreError(apperr.CodeInvalidDataType, model, err)
	case "57014":
		return apperr.NewStoreError(apperr.CodeTimeout, model, err)
	default:
		return apperr.NewStoreError(apperr.CodeOperationFailed, model, err)
	}
}

func postgresKeyFields(pgErr *pgconn.PgError) []string {
	if m := pgKeyPattern.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return splitColumns(m[1], ",")
	}
	if pgErr.ColumnName != "" {
		return []string{fieldName(pgErr.ColumnName)}
	}
	return nil
}

func translateMySQL(model string, myErr *mysql.MySQLError, err error) error {
	switch myErr.Number {
	case 1062:
		var fields []string
		if m := mysqlKeyPattern.FindStringSubmatch(myErr.Message); len(m) == 2 {
			fields = fieldsFromIndexName(model, m[1])
		}
		return apperr.NewStoreError(apperr.CodeUniqueViolation, model, err, fields...)
	case 1451, 1452:
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, model, err)
	case 1048, 1364:
		var fields []string
		if m := mysqlColumnPattern.FindStringSubmatch(myErr.Message); len(m) == 2 {
			fields = []string{fieldName(m[1])}
		}
		return apperr.NewStoreError(apperr.CodeRequiredFieldMissing, model, err, fields...)
	case 1264, 1292, 1366, 1406:
		return apperr.NewStoreError(apperr.CodeInvalidDataType, model, err)
	default:
		return apperr.NewStoreError(apperr.CodeOperationFailed, model, err)
	}
}

func translateSQLite(model string, liteErr sqlite3.Error, err error) error {
	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return apperr.NewStoreError(apperr.CodeUniqueViolation, model, err, sqliteConstraintFields(liteErr.Error())...)
	case sqlite3.ErrConstraintForeignKey:
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, model, err)
	case sqlite3.ErrConstraintNotNull:
		return apperr.NewStoreError(apperr.CodeRequiredFieldMissing, model, err, sqliteConstraintFields(liteErr.Error())...)
	}
	switch liteErr.Code {
	case sqlite3.ErrMismatch, sqlite3.ErrTooBig:
		return apperr.NewStoreError(apperr.CodeInvalidDataType, model, err)
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return apperr.NewStoreError(apperr.CodeTimeout, model, err)
	default:
		return apperr.NewStoreError(apperr.CodeOperationFailed, model, err)
	}
}

// sqliteConstraintFields 解析 "UNIQUE constraint failed: users.email" 形式的消息
func sqliteConstraintFields(msg string) []string {
	_, cols, ok := strings.Cut(msg, "constraint failed: ")
	if !ok {
		return nil
	}
	parts := strings.Split(cols, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if _, col, found := strings.Cut(part, "."); found {
			part = col
		}
		if part != "" {
			out = append(out, fieldName(part))
		}
	}
	return out
}

// fieldsFromIndexName 从 GORM 生成的索引名（idx_users_email / uni_users_email）推导字段
func fieldsFromIndexName(model, index string) []string {
	if _, after, ok := strings.Cut(index, "."); ok {
		index = after
	}
	if strings.EqualFold(index, "PRIMARY") {
		if model == "user_roles" {
			return []string{"userId", "roleId"}
		}
		return []string{"id"}
	}
	for _, prefix := range []string{"idx_" + model + "_", "uni_" + model + "_"} {
		if strings.HasPrefix(index, prefix) {
			return []string{fieldName(strings.TrimPrefix(index, prefix))}
		}
	}
	return []string{fieldName(index)}
}

func splitColumns(value, sep string) []string {
	parts := strings.Split(value, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, fieldName(part))
		}
	}
	return out
}

func fieldName(column string) string {
	column = strings.Trim(strings.TrimSpace(column), `"`+"`")
	if field, ok := columnFields[column]; ok {
		return field
	}
	return column
}
