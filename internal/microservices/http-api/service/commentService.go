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

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page repository.Page) (*dto.Paginated[dto.CommentResponse], error)
	Get(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.CommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64, req dto.CommentDTO) (*dto.CommentResponse, error)
	Delete(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

// requireReview checks the review exists and belongs to the title in the path
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	_, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("review")
	}
	return err
}

func (s *commentService) load(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("comment")
	}
	return comment, err
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page repository.Page) (*dto.Paginated[dto.CommentResponse], error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	comments, total, err := s.commentRepo.GetByReview(ctx, reviewID, page)
	if err != nil {
		return nil, err
	}
	return dto.NewPaginated(dto.MapSlice(comments, dto.FromModelToCommentResponse), total, page.Number, page.Size), nil
}

func (s *commentService) Get(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.load(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := checkObject(id, http.MethodGet, comment); err != nil {
		return nil, err
	}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.CommentDTO) (*dto.CommentResponse, error) {
	if err := checkObject(id, http.MethodPost, nil); err != nil {
		return nil, err
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: id.UserID,
		Text:     req.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = models.User{ID: id.UserID, Username: id.Username}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64, req dto.CommentDTO) (*dto.CommentResponse, error) {
	comment, err := s.load(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := checkObject(id, http.MethodPatch, comment); err != nil {
		return nil, err
	}

	comment.Text = req.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64) error {
	comment, err := s.load(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := checkObject(id, http.MethodDelete, comment); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("comment")
		}
		return err
	}
	return nil
}
