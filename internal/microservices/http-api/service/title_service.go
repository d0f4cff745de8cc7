package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/validators"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page repository.Page) (*dto.Paginated[dto.TitleResponse], error)
	GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     *repository.TitleRepo
	categories *repository.CategoryRepo
	genres     *repository.GenreRepo
}

func NewTitleService(titles *repository.TitleRepo, categories *repository.CategoryRepo, genres *repository.GenreRepo) TitleService {
	return &titleService{titles: titles, categories: categories, genres: genres}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page repository.Page) (*dto.Paginated[dto.TitleResponse], error) {
	page = page.Normalize()
	list, total, err := s.titles.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return dto.NewPaginated(dto.MapSlice(list, dto.FromModelToTitleResponse), total, page.Number, page.Size), nil
}

func (s *titleService) GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToTitleResponse(t)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}
	if err := checkYear(req.Year); err != nil {
		return nil, err
	}
	t := &models.Title{
		Name:        name,
		Year:        req.Year,
		Description: req.Description,
	}
	if req.Category != "" {
		categoryID, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		t.CategoryID = categoryID
	}
	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	if err := s.titles.Create(ctx, t, genres); err != nil {
		return nil, duplicateTitle(err)
	}
	return s.GetByID(ctx, t.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError("name", "this field may not be blank")
		}
		t.Name = name
	}
	if req.Year != nil {
		if err := checkYear(req.Year); err != nil {
			return nil, err
		}
		t.Year = req.Year
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Category != nil {
		// an empty slug detaches the title from its category
		t.CategoryID = nil
		if *req.Category != "" {
			if t.CategoryID, err = s.resolveCategory(ctx, *req.Category); err != nil {
				return nil, err
			}
		}
	}
	var genres *[]models.Genre
	if req.Genre != nil {
		resolved, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			resolved = []models.Genre{}
		}
		genres = &resolved
	}

	if err := s.titles.Update(ctx, t, genres); err != nil {
		return nil, duplicateTitle(err)
	}
	return s.GetByID(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("title")
		}
		return err
	}
	return nil
}

func (s *titleService) load(ctx context.Context, id int64) (*models.Title, error) {
	t, err := s.titles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("title")
	}
	return t, err
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*int64, error) {
	c, err := s.categories.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewValidationError("category", fmt.Sprintf("object with slug=%s does not exist", slug))
	}
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	found, missing, err := s.genres.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		verr := &ValidationError{}
		for _, m := range missing {
			verr.Add("genre", fmt.Sprintf("object with slug=%s does not exist", m))
		}
		return nil, verr
	}
	return found, nil
}

func checkYear(year *int) error {
	if year == nil {
		return nil
	}
	if err := validators.ValidateYear(*year); err != nil {
		return NewValidationError("year", err.Error())
	}
	return nil
}

func duplicateTitle(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return NewValidationError("name", "title with this name already exists")
	}
	return err
}
