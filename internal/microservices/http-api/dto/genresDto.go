package dto

import "reviewhub/internal/microservices/http-api/models"

// TaxonomyRequest creates a category or a genre. An empty slug is derived from the name.
type TaxonomyRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"omitempty,max=50,slug"`
}

// TaxonomyResponse is how categories and genres are rendered, standalone or nested in a title
type TaxonomyResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromCategory(c *models.Category) TaxonomyResponse {
	return TaxonomyResponse{Name: c.Name, Slug: c.Slug}
}

func FromGenre(g *models.Genre) TaxonomyResponse {
	return TaxonomyResponse{Name: g.Name, Slug: g.Slug}
}
