package service

import (
	"context"
	"errors"
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/permission"
	"reviewhub/internal/microservices/http-api/repository"
)

// contentPolicy guards reviews and comments once they are loaded.
var contentPolicy permission.Policy = permission.AuthorOrModeratorOrAdmin{}

func checkObject(id permission.Identity, method string, obj permission.Owned) error {
	if contentPolicy.HasObjectPermission(permission.Request{Method: method, Identity: id}, obj).Allowed() {
		return nil
	}
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	return ErrPermissionDenied
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, page repository.Page) (*dto.Paginated[dto.ReviewResponse], error)
	Get(ctx context.Context, id permission.Identity, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, id permission.Identity, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, id permission.Identity, titleID, reviewID int64) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  *repository.TitleRepo
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo *repository.TitleRepo) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titleRepo.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("title")
	}
	return nil
}

func (s *reviewService) load(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("review")
	}
	return review, err
}

// List retrieves the reviews of a title, newest first
func (s *reviewService) List(ctx context.Context, titleID int64, page repository.Page) (*dto.Paginated[dto.ReviewResponse], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	reviews, total, err := s.reviewRepo.GetByTitle(ctx, titleID, page)
	if err != nil {
		return nil, err
	}
	return dto.NewPaginated(dto.MapSlice(reviews, dto.FromModelToReviewResponse), total, page.Number, page.Size), nil
}

func (s *reviewService) Get(ctx context.Context, id permission.Identity, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := checkObject(id, http.MethodGet, review); err != nil {
		return nil, err
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

// Create posts the caller's review of a title. A second review by the same author is rejected.
func (s *reviewService) Create(ctx context.Context, id permission.Identity, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if err := checkObject(id, http.MethodPost, nil); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: id.UserID,
		Text:     req.Text,
		Score:    req.Score,
	}
	// the (title, author) unique index decides, concurrent posts included
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("non_field_errors", "you have already reviewed this title")
		}
		return nil, err
	}
	review.Author = models.User{ID: id.UserID, Username: id.Username}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := checkObject(id, http.MethodPatch, review); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, id permission.Identity, titleID, reviewID int64) error {
	review, err := s.load(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := checkObject(id, http.MethodDelete, review); err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("review")
		}
		return err
	}
	return nil
}
