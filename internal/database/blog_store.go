package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// BlogStore 负责博客文章的读写。
type BlogStore struct {
	db *gorm.DB
}

func NewBlogStore(db *gorm.DB) *BlogStore {
	return &BlogStore{db: db}
}

// ListBlogs 按发布时间倒序返回文章。
func (s *BlogStore) ListBlogs(ctx context.Context) ([]Blog, error) {
	var blogs []Blog
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&blogs).Error; err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

func (s *BlogStore) FindBlogByID(ctx context.Context, id uint) (*Blog, error) {
	var blog Blog
	if err := s.db.WithContext(ctx).First(&blog, id).Error; err != nil {
		return nil, translate(err)
	}
	return &blog, nil
}

func (s *BlogStore) CreateBlog(ctx context.Context, blog *Blog) error {
	if err := s.db.WithContext(ctx).Create(blog).Error; err != nil {
		return fmt.Errorf("create blog: %w", err)
	}
	return nil
}
