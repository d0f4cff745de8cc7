package handler

import (
	"context"
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/permission"
	"reviewhub/internal/microservices/http-api/repository"

	"github.com/gin-gonic/gin"
)

// taxonomyService is what categories and genres have in common.
type taxonomyService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.TaxonomyResponse], error)
	Create(ctx context.Context, req dto.TaxonomyRequest) (*dto.TaxonomyResponse, error)
	Delete(ctx context.Context, slug string) error
}

// TaxonomyHandler serves a category or genre collection: list, create, delete by slug.
type TaxonomyHandler struct {
	svc      taxonomyService
	path     string
	pageSize int
}

func NewCategoryHandler(svc taxonomyService, pageSize int) *TaxonomyHandler {
	return &TaxonomyHandler{svc: svc, path: "/categories", pageSize: pageSize}
}

func NewGenreHandler(svc taxonomyService, pageSize int) *TaxonomyHandler {
	return &TaxonomyHandler{svc: svc, path: "/genres", pageSize: pageSize}
}

func (h *TaxonomyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(h.path, middleware.RequirePolicy(permission.AdminOrReadOnly{}))
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.DELETE("/:slug", h.Delete)
	}
}

// List returns the collection newest first
// GET /api/v1/genres?search=dra&page=1
func (h *TaxonomyHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("search"), pageFrom(c, h.pageSize))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create adds an entry; the slug is derived from the name when omitted
// POST /api/v1/genres
func (h *TaxonomyHandler) Create(c *gin.Context) {
	var req dto.TaxonomyRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete removes an entry by slug
// DELETE /api/v1/genres/:slug
func (h *TaxonomyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
