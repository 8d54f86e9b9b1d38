package sql

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"userapi/internal/apperr"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name         string
		model        string
		err          error
		expectedCode apperr.StoreCode
		expectedKeys []string
	}{
		{
			name:         "RecordNotFound",
			model:        modelUser,
			err:          gorm.ErrRecordNotFound,
			expectedCode: apperr.CodeNotFound,
		},
		{
			name:         "DeadlineExceeded",
			model:        modelUser,
			err:          fmt.Errorf("query: %w", context.DeadlineExceeded),
			expectedCode: apperr.CodeTimeout,
		},
		{
			name:         "PostgresUnique",
			model:        modelUser,
			err:          &pgconn.PgError{Code: "23505", Detail: "Key (email)=(a@x.com) already exists."},
			expectedCode: apperr.CodeUniqueViolation,
			expectedKeys: []string{"email"},
		},
		{
			name:         "PostgresCompositeUnique",
			model:        modelUserRole,
			err:          &pgconn.PgError{Code: "23505", Detail: "Key (user_id, role_id)=(1, 2) already exists."},
			expectedCode: apperr.CodeUniqueViolation,
			expectedKeys: []string{"userId", "roleId"},
		},
		{
			name:         "PostgresForeignKey",
			model:        modelPost,
			err:          &pgconn.PgError{Code: "23503"},
			expectedCode: apperr.CodeForeignKeyViolation,
		},
		{
			name:         "PostgresNotNull",
			model:        modelPost,
			err:          &pgconn.PgError{Code: "23502", ColumnName: "title"},
			expectedCode: apperr.CodeRequiredFieldMissing,
			expectedKeys: []string{"title"},
		},
		{
			name:         "PostgresInvalidText",
			model:        modelPost,
			err:          &pgconn.PgError{Code: "22P02"},
			expectedCode: apperr.CodeInvalidDataType,
		},
		{
			name:         "PostgresOther",
			model:        modelPost,
			err:          &pgconn.PgError{Code: "42P01"},
			expectedCode: apperr.CodeOperationFailed,
		},
		{
			name:         "MySQLDuplicate",
			model:        modelUser,
			err:          &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.idx_users_email'"},
			expectedCode: apperr.CodeUniqueViolation,
			expectedKeys: []string{"email"},
		},
		{
			name:         "MySQLDuplicatePrimary",
			model:        modelUserRole,
			err:          &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'user_roles.PRIMARY'"},
			expectedCode: apperr.CodeUniqueViolation,
			expectedKeys: []string{"userId", "roleId"},
		},
		{
			name:         "MySQLForeignKey",
			model:        modelPost,
			err:          &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"},
			expectedCode: apperr.CodeForeignKeyViolation,
		},
		{
			name:         "MySQLNull",
			model:        modelPost,
			err:          &mysql.MySQLError{Number: 1048, Message: "Column 'title' cannot be null"},
			expectedCode: apperr.CodeRequiredFieldMissing,
			expectedKeys: []string{"title"},
		},
		{
			name:         "Unknown",
			model:        modelUser,
			err:          errors.New("something odd"),
			expectedCode: apperr.CodeOperationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := translateError(tt.model, tt.err)
			var storeErr *apperr.StoreError
			if !errors.As(translated, &storeErr) {
				t.Fatalf("expected store error, got %v", translated)
			}
			if storeErr.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, storeErr.Code)
			}
			if len(tt.expectedKeys) > 0 && !reflect.DeepEqual(storeErr.Target, tt.expectedKeys) {
				t.Errorf("expected target %v, got %v", tt.expectedKeys, storeErr.Target)
			}
			if !errors.Is(translated, tt.err) {
				t.Errorf("expected original error to stay in the chain")
			}
		})
	}
}

func TestTranslateErrorPassThrough(t *testing.T) {
	if translateError(modelUser, nil) != nil {
		t.Fatal("expected nil for nil error")
	}
	original := apperr.NewStoreError(apperr.CodeNotFound, modelRole, nil)
	if got := translateError(modelUser, original); got != error(original) {
		t.Fatalf("expected store error to pass through unchanged, got %v", got)
	}
}

func TestSQLiteConstraintFields(t *testing.T) {
	tests := []struct {
		msg      string
		expected []string
	}{
		{"UNIQUE constraint failed: users.email", []string{"email"}},
		{"UNIQUE constraint failed: user_roles.user_id, user_roles.role_id", []string{"userId", "roleId"}},
		{"NOT NULL constraint failed: posts.title", []string{"title"}},
		{"database is locked", nil},
	}
	for _, tt := range tests {
		got := sqliteConstraintFields(tt.msg)
		if len(got) == 0 && len(tt.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("%q: expected %v, got %v", tt.msg, tt.expected, got)
		}
	}
}
