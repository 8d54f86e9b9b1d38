package db

import "time"

// Post 用户发布的文章。
type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Content   *string   `gorm:"column:content;type:text" json:"content"`
	Published bool      `gorm:"column:published;not null;default:false" json:"published"`
	AuthorID  uint      `gorm:"column:author_id;index;not null" json:"authorId"`

	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}
