package service

import (
	"context"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/entity/db"
	"userapi/internal/entity/dto"
	"userapi/internal/model"
)

// PostService 文章业务逻辑
type PostService struct {
	repo model.Repository
}

func NewPostService(repo model.Repository) *PostService {
	return &PostService{repo: repo}
}

func (s *PostService) ListPosts(ctx context.Context) ([]db.Post, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []db.Post{}
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*db.Post, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Post not found")
		}
		return nil, err
	}
	return post, nil
}

// CreatePost 创建文章，published 缺省为 false；作者不存在时返回外键错误
func (s *PostService) CreatePost(ctx context.Context, req dto.PostCreateRequest) (*db.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &apperr.ValidationError{Fields: []apperr.FieldError{{Field: "title", Rule: "required", Message: "is required"}}}
	}
	post := &db.Post{
		Title:    title,
		Content:  req.Content,
		AuthorID: req.AuthorID,
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.repo.GetPostByID(ctx, post.ID)
}

func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	return s.repo.DeletePost(ctx, id)
}
