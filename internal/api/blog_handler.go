package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"edtech/internal/api/middleware"
	"edtech/internal/database"
)

// BlogHandler 负责博客文章。
type BlogHandler struct {
	blogs *database.BlogStore
}

func NewBlogHandler(blogs *database.BlogStore) *BlogHandler {
	return &BlogHandler{blogs: blogs}
}

type blogResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

func newBlogResponse(b *database.Blog) blogResponse {
	return blogResponse{ID: b.ID, Title: b.Title, Content: b.Content, Author: b.Author, CreatedAt: b.CreatedAt}
}

func (h *BlogHandler) ListBlogs(c *gin.Context) {
	blogs, err := h.blogs.ListBlogs(c.Request.Context())
	if err != nil {
		Internal(c, "failed to list blogs")
		return
	}
	items := make([]blogResponse, 0, len(blogs))
	for i := range blogs {
		items = append(items, newBlogResponse(&blogs[i]))
	}
	c.JSON(http.StatusOK, items)
}

func (h *BlogHandler) GetBlog(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		BadRequest(c, "invalid blog id")
		return
	}
	blog, err := h.blogs.FindBlogByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c, "blog not found")
			return
		}
		Internal(c, "failed to query blog")
		return
	}
	c.JSON(http.StatusOK, newBlogResponse(blog))
}

type createBlogRequest struct {
	Title   string `json:"title" binding:"required,max=150"`
	Content string `json:"content" binding:"required"`
}

// CreateBlog 以当前账号的用户名作为作者发布文章。
func (h *BlogHandler) CreateBlog(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req createBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	blog := &database.Blog{Title: req.Title, Content: req.Content, Author: account.Username}
	if err := h.blogs.CreateBlog(c.Request.Context(), blog); err != nil {
		Internal(c, "failed to create blog")
		return
	}
	c.JSON(http.StatusCreated, newBlogResponse(blog))
}
