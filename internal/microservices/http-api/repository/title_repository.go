package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// titleWithRating selects every title column plus the average review score.
// AVG over zero rows is NULL, which leaves Title.Rating nil.
const titleWithRating = "titles.*, (SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// TitleFilter narrows a title listing. Zero fields do not filter.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

// scopes turns the filter into composable gorm scopes.
func (f TitleFilter) scopes() []func(*gorm.DB) *gorm.DB {
	scopes := []func(*gorm.DB) *gorm.DB{Contains("titles.name", f.Name)}
	if f.CategorySlug != "" {
		slug := f.CategorySlug
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("titles.category_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.Category{}).Select("id").Where("slug = ?", slug))
		})
	}
	if f.GenreSlug != "" {
		slug := f.GenreSlug
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("titles.id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Table("title_genres").
					Select("title_genres.title_id").
					Joins("JOIN genres ON genres.id = title_genres.genre_id").
					Where("genres.slug = ?", slug))
		})
	}
	if f.Year != nil {
		year := *f.Year
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("titles.year = ?", year)
		})
	}
	return scopes
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

// List returns titles with their rating, newest id first.
func (r *TitleRepo) List(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error) {
	var list []models.Title
	total, err := findPage(r.db.WithContext(ctx), listQuery{
		model:   &models.Title{},
		filters: filter.scopes(),
		selects: titleWithRating,
		preload: []string{"Category", "Genres"},
		order:   "titles.id DESC",
		page:    page,
	}, &list)
	if err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return list, total, nil
}

// GetByID loads a title with category, genres and rating.
func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	err := r.db.WithContext(ctx).
		Select(titleWithRating).
		Preload("Category").
		Preload("Genres").
		Where("titles.id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

// Exists reports whether a title with id is stored.
func (r *TitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return count > 0, nil
}

// Create inserts t and links it to genres. Genres must already exist.
func (r *TitleRepo) Create(ctx context.Context, t *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return fmt.Errorf("create title: %w", translateError(err))
		}
		if len(genres) > 0 {
			if err := tx.Model(t).Association("Genres").Append(genres); err != nil {
				return fmt.Errorf("link genres: %w", err)
			}
		}
		return nil
	})
}

// Update saves the scalar columns of t. A non-nil genres replaces the genre set.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title, genres *[]models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(t).
			Select("name", "year", "description", "category_id").
			Updates(map[string]any{
				"name":        t.Name,
				"year":        t.Year,
				"description": t.Description,
				"category_id": t.CategoryID,
			}).Error
		if err != nil {
			return fmt.Errorf("update title: %w", translateError(err))
		}
		switch {
		case genres == nil:
		case len(*genres) == 0:
			if err := tx.Model(t).Association("Genres").Clear(); err != nil {
				return fmt.Errorf("clear genres: %w", err)
			}
		default:
			if err := tx.Model(t).Association("Genres").Replace(*genres); err != nil {
				return fmt.Errorf("replace genres: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the title, its reviews and their comments.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete title comments: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete title reviews: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return fmt.Errorf("detach title genres: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Title{})
		if result.Error != nil {
			return fmt.Errorf("delete title: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
