package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, reviewID int64) error
	GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	GetByTitle(ctx context.Context, titleID int64, page Page) ([]models.Review, int64, error)
	CalculateAverageScore(ctx context.Context, titleID int64) (*float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create a new review. A second review by the same author on the same title
// is rejected by the (title_id, author_id) unique index with ErrDuplicate.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Title").Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", translateError(err))
	}
	return nil
}

// Update writes text and score; pub_date, title and author never change.
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Model(review).
		Select("text", "score").
		Updates(map[string]any{"text": review.Text, "score": review.Score}).Error
	if err != nil {
		return fmt.Errorf("update review: %w", translateError(err))
	}
	return nil
}

// Delete a review and its comments
func (r *reviewRepository) Delete(ctx context.Context, reviewID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", reviewID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete review comments: %w", err)
		}
		result := tx.Where("id = ?", reviewID).Delete(&models.Review{})
		if result.Error != nil {
			return fmt.Errorf("delete review: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetByID retrieves a review of a specific title
func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ? AND title_id = ?", reviewID, titleID).
		Preload("Author").
		First(&review).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &review, nil
}

// GetByTitle retrieves the reviews of a title, newest first
func (r *reviewRepository) GetByTitle(ctx context.Context, titleID int64, page Page) ([]models.Review, int64, error) {
	var reviews []models.Review
	total, err := findPage(r.db.WithContext(ctx), listQuery{
		model: &models.Review{},
		filters: []func(*gorm.DB) *gorm.DB{func(db *gorm.DB) *gorm.DB {
			return db.Where("title_id = ?", titleID)
		}},
		preload: []string{"Author"},
		order:   "pub_date DESC, id DESC",
		page:    page,
	}, &reviews)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// CalculateAverageScore returns the mean score of a title, nil when it has no reviews
func (r *reviewRepository) CalculateAverageScore(ctx context.Context, titleID int64) (*float64, error) {
	var avg struct {
		Average *float64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(score) AS average").
		Where("title_id = ?", titleID).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("average score: %w", err)
	}
	return avg.Average, nil
}
