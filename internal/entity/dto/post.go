package dto

import "time"

type PostResponse struct {
	ID        uint          `json:"id"`
	Title     string        `json:"title"`
	Content   *string       `json:"content"`
	Published bool          `json:"published"`
	AuthorID  uint          `json:"authorId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Author    *UserResponse `json:"author,omitempty"`
}

type PostCreateRequest struct {
	Title     string  `json:"title" binding:"required,max=255"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
	AuthorID  uint    `json:"authorId" binding:"required,gt=0"`
}
