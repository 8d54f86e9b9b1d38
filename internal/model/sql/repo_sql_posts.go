package sql

import (
	"context"
	"fmt"

	"userapi/internal/apperr"
	"userapi/internal/entity/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListPosts returns all posts with their author.
func (r *GormRepository) ListPosts(ctx context.Context) ([]db.Post, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var posts []db.Post
	if err := r.db.WithContext(ctx).Preload("Author").Order("id ASC").Find(&posts).Error; err != nil {
		return nil, translateError(modelPost, err)
	}
	return posts, nil
}

// GetPostByID loads a post with its author.
func (r *GormRepository) GetPostByID(ctx context.Context, id uint) (*db.Post, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var post db.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, translateError(modelPost, err)
	}
	return &post, nil
}

// CreatePost inserts a post after checking its author exists.
func (r *GormRepository) CreatePost(ctx context.Context, post *db.Post) error {
	if err := r.ready(); err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, post.AuthorID, modelPost, "authorId"); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return translateError(modelPost, err)
		}
		return nil
	})
	return translateError(modelPost, err)
}

// DeletePost removes a post by ID.
func (r *GormRepository) DeletePost(ctx context.Context, id uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&db.Post{}, id)
	if result.Error != nil {
		return translateError(modelPost, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewStoreError(apperr.CodeNotFound, modelPost, gorm.ErrRecordNotFound)
	}
	return nil
}
