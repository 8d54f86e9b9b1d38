package api

import (
	"net/http"

	"userapi/internal/entity/common"
	"userapi/internal/entity/converter"
	"userapi/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListPosts(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	posts, err := h.posts.ListPosts(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.PostsToResponses(posts)})
}

func (h *HTTPHandler) CreatePost(c *gin.Context) {
	var req dto.PostCreateRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	post, err := h.posts.CreatePost(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.Response{
		Success: true,
		Message: "Post created successfully",
		Data:    converter.PostToResponse(post),
	})
}

func (h *HTTPHandler) GetPost(c *gin.Context) {
	id, err := parseID(c, "id", "post")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.PostToResponse(post)})
}

func (h *HTTPHandler) DeletePost(c *gin.Context) {
	id, err := parseID(c, "id", "post")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	if err := h.posts.DeletePost(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Message: "Post deleted successfully"})
}
