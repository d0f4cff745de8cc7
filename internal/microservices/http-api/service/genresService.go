package service

import (
	"context"
	"errors"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"

	"github.com/gosimple/slug"
)

const maxSlugLength = 50

// deriveSlug returns requested, or a slug made from name when requested is empty.
func deriveSlug(name, requested string) (string, error) {
	s := strings.TrimSpace(requested)
	if s == "" {
		s = slug.Make(name)
		if len(s) > maxSlugLength {
			s = strings.TrimRight(s[:maxSlugLength], "-")
		}
	}
	if s == "" || !slug.IsSlug(s) {
		return "", NewValidationError("slug", "enter a valid slug")
	}
	return s, nil
}

type CategoryService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.TaxonomyResponse], error)
	Create(ctx context.Context, req dto.TaxonomyRequest) (*dto.TaxonomyResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo *repository.CategoryRepo
}

func NewCategoryService(r *repository.CategoryRepo) CategoryService {
	return &categoryService{repo: r}
}

func (s *categoryService) List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.TaxonomyResponse], error) {
	page = page.Normalize()
	list, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	return dto.NewPaginated(dto.MapSlice(list, dto.FromCategory), total, page.Number, page.Size), nil
}

func (s *categoryService) Create(ctx context.Context, req dto.TaxonomyRequest) (*dto.TaxonomyResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}
	sl, err := deriveSlug(name, req.Slug)
	if err != nil {
		return nil, err
	}
	c := &models.Category{Name: name, Slug: sl}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, duplicateSlug(err, "category")
	}
	resp := dto.FromCategory(c)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("category")
		}
		return err
	}
	return nil
}

type GenreService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.TaxonomyResponse], error)
	Create(ctx context.Context, req dto.TaxonomyRequest) (*dto.TaxonomyResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo *repository.GenreRepo
}

func NewGenreService(r *repository.GenreRepo) GenreService {
	return &genreService{repo: r}
}

func (s *genreService) List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.TaxonomyResponse], error) {
	page = page.Normalize()
	list, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	return dto.NewPaginated(dto.MapSlice(list, dto.FromGenre), total, page.Number, page.Size), nil
}

func (s *genreService) Create(ctx context.Context, req dto.TaxonomyRequest) (*dto.TaxonomyResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}
	sl, err := deriveSlug(name, req.Slug)
	if err != nil {
		return nil, err
	}
	g := &models.Genre{Name: name, Slug: sl}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, duplicateSlug(err, "genre")
	}
	resp := dto.FromGenre(g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("genre")
		}
		return err
	}
	return nil
}

func duplicateSlug(err error, what string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return NewValidationError("slug", what+" with this slug already exists")
	}
	return err
}
