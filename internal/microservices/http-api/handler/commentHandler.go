package handler

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/permission"
	"reviewhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
	pageSize       int
}

func NewCommentHandler(commentService service.CommentService, pageSize int) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		pageSize:       pageSize,
	}
}

// RegisterRoutes registers comment routes nested under a review
func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/titles/:title_id/reviews/:review_id/comments",
		middleware.RequirePolicy(permission.AuthorOrModeratorOrAdmin{}))
	{
		comments.GET("", h.List)
		comments.POST("", h.Create)
		comments.GET("/:comment_id", h.Get)
		comments.PATCH("/:comment_id", h.Update)
		comments.DELETE("/:comment_id", h.Delete)
	}
}

// ids reads title_id, review_id and, when withComment, comment_id from the path.
func ids(c *gin.Context, withComment bool) (titleID, reviewID, commentID int64, ok bool) {
	if titleID, ok = pathID(c, "title_id"); !ok {
		return
	}
	if reviewID, ok = pathID(c, "review_id"); !ok {
		return
	}
	if withComment {
		commentID, ok = pathID(c, "comment_id")
	}
	return
}

// List retrieves the comments of a review
// GET /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, _, ok := ids(c, false)
	if !ok {
		return
	}
	resp, err := h.commentService.List(c.Request.Context(), titleID, reviewID, pageFrom(c, h.pageSize))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get retrieves one comment
// GET /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, commentID, ok := ids(c, true)
	if !ok {
		return
	}
	resp, err := h.commentService.Get(c.Request.Context(), middleware.IdentityFrom(c), titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create posts a comment on a review
// POST /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, _, ok := ids(c, false)
	if !ok {
		return
	}
	var req dto.CommentDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.commentService.Create(c.Request.Context(), middleware.IdentityFrom(c), titleID, reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update rewrites a comment's text
// PATCH /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, commentID, ok := ids(c, true)
	if !ok {
		return
	}
	var req dto.CommentDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.commentService.Update(c.Request.Context(), middleware.IdentityFrom(c), titleID, reviewID, commentID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a comment
// DELETE /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, commentID, ok := ids(c, true)
	if !ok {
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), middleware.IdentityFrom(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
