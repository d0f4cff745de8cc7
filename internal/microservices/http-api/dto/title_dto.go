package dto

import "reviewhub/internal/microservices/http-api/models"

// CreateTitleRequest used for POST /titles. Category and genres are referenced by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        *int     `json:"year" binding:"omitempty,notfuture"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"omitempty,max=50"`
	Genre       []string `json:"genre" binding:"omitempty,dive,max=50"`
}

// UpdateTitleRequest used for PATCH /titles/:title_id (partial updates allowed)
type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" binding:"omitempty,min=1,max=256"`
	Year        *int      `json:"year,omitempty" binding:"omitempty,notfuture"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty" binding:"omitempty,max=50"`
	Genre       *[]string `json:"genre,omitempty" binding:"omitempty,dive,max=50"`
}

// TitleResponse expands category and genres into nested objects
type TitleResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Year        *int               `json:"year"`
	Rating      *float64           `json:"rating"`
	Description string             `json:"description"`
	Category    *TaxonomyResponse  `json:"category"`
	Genre       []TaxonomyResponse `json:"genre"`
}

func FromModelToTitleResponse(t *models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       MapSlice(t.Genres, FromGenre),
	}
	if t.Category != nil {
		c := FromCategory(t.Category)
		resp.Category = &c
	}
	return resp
}
