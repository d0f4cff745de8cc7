package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type GenreRepo struct {
	db *gorm.DB
}

func NewGenreRepo(db *gorm.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

// List returns genres newest first, optionally filtered by a name substring.
func (r *GenreRepo) List(ctx context.Context, search string, page Page) ([]models.Genre, int64, error) {
	var list []models.Genre
	total, err := findPage(r.db.WithContext(ctx), listQuery{
		model:   &models.Genre{},
		filters: []func(*gorm.DB) *gorm.DB{Contains("name", search)},
		order:   "id DESC",
		page:    page,
	}, &list)
	if err != nil {
		return nil, 0, fmt.Errorf("list genres: %w", err)
	}
	return list, total, nil
}

func (r *GenreRepo) Create(ctx context.Context, g *models.Genre) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create genre: %w", translateError(err))
	}
	return nil
}

// GetBySlugs loads the genres for slugs. Any unknown slug is reported through missing.
func (r *GenreRepo) GetBySlugs(ctx context.Context, slugs []string) (found []models.Genre, missing []string, err error) {
	if len(slugs) == 0 {
		return nil, nil, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&found).Error; err != nil {
		return nil, nil, fmt.Errorf("get genres by slug: %w", err)
	}
	seen := make(map[string]bool, len(found))
	for _, g := range found {
		seen[g.Slug] = true
	}
	for _, s := range slugs {
		if !seen[s] {
			missing = append(missing, s)
		}
	}
	return found, missing, nil
}

// DeleteBySlug removes the genre and detaches it from every title.
func (r *GenreRepo) DeleteBySlug(ctx context.Context, slug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Genre
		if err := tx.Where("slug = ?", slug).First(&g).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("genre_id = ?", g.ID).Delete(&models.TitleGenre{}).Error; err != nil {
			return fmt.Errorf("detach genre: %w", err)
		}
		if err := tx.Delete(&g).Error; err != nil {
			return fmt.Errorf("delete genre: %w", err)
		}
		return nil
	})
}
