package sql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const (
	modelUser     = "users"
	modelRole     = "roles"
	modelUserRole = "user_roles"
	modelPost     = "posts"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ready() error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return nil
}

// Ping checks the underlying connection pool.
func (r *GormRepository) Ping(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return translateError("", err)
	}
	return translateError("", sqlDB.PingContext(ctx))
}

// Close releases the connection pool.
func (r *GormRepository) Close() error {
	if err := r.ready(); err != nil {
		return err
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// uniqueIDs 去重，保持原有顺序
func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
