package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCategoryRoutes(t *testing.T) {
	m := new(MockTaxonomyService)
	router := setupRouter(t, nil, func(rg *gin.RouterGroup) {
		NewCategoryHandler(m, 10).RegisterRoutes(rg)
	})
	page := dto.NewPaginated([]dto.TaxonomyResponse{{Name: "Books", Slug: "books"}}, 1, 1, 10)
	m.On("List", mock.Anything, "", repository.Page{Number: 1, Size: 10}).Return(page, nil)
	m.On("Create", mock.Anything, dto.TaxonomyRequest{Name: "Films"}).
		Return(&dto.TaxonomyResponse{Name: "Films", Slug: "films"}, nil)
	m.On("Delete", mock.Anything, "films").Return(nil)
	m.On("Delete", mock.Anything, "nope").Return(service.ErrNotFound)

	w := perform(router, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"books"`)

	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodPost, "/api/v1/categories", "", gin.H{"name": "Films"}).Code)
	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodPost, "/api/v1/categories", "user", gin.H{"name": "Films"}).Code)

	w = perform(router, http.MethodPost, "/api/v1/categories", "admin", gin.H{"name": "Films"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"name":"Films","slug":"films"}`, w.Body.String())

	w = perform(router, http.MethodPost, "/api/v1/categories", "admin", gin.H{"name": "Films", "slug": "Not A Slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "slug")

	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodDelete, "/api/v1/categories/films", "admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodDelete, "/api/v1/categories/nope", "admin", nil).Code)
	m.AssertExpectations(t)
}

func TestGenreRoutes_ModeratorCannotWrite(t *testing.T) {
	m := new(MockTaxonomyService)
	router := setupRouter(t, nil, func(rg *gin.RouterGroup) {
		NewGenreHandler(m, 10).RegisterRoutes(rg)
	})

	w := perform(router, http.MethodDelete, "/api/v1/genres/drama", "mod", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	m.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func titleRouter(t *testing.T, m *MockTitleService) *gin.Engine {
	return setupRouter(t, nil, func(rg *gin.RouterGroup) {
		NewTitleHandler(m, 10).RegisterRoutes(rg)
	})
}

func TestTitleList_Filters(t *testing.T) {
	m := new(MockTitleService)
	rating := 7.5
	page := dto.NewPaginated([]dto.TitleResponse{{ID: 3, Name: "Hamlet", Rating: &rating}}, 1, 1, 10)
	m.On("List", mock.Anything, mock.MatchedBy(func(f repository.TitleFilter) bool {
		return f.GenreSlug == "drama" && f.CategorySlug == "books" && f.Name == "ham" && f.Year != nil && *f.Year == 1603
	}), repository.Page{Number: 1, Size: 10}).Return(page, nil)

	w := perform(titleRouter(t, m), http.MethodGet, "/api/v1/titles?genre=drama&category=books&name=ham&year=1603", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rating":7.5`)
	m.AssertExpectations(t)
}

func TestTitleList_BadYear(t *testing.T) {
	m := new(MockTitleService)

	w := perform(titleRouter(t, m), http.MethodGet, "/api/v1/titles?year=soon", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "year")
	assert.Empty(t, m.Calls)
}

func TestTitleGet(t *testing.T) {
	m := new(MockTitleService)
	router := titleRouter(t, m)
	m.On("GetByID", mock.Anything, int64(3)).Return(&dto.TitleResponse{ID: 3, Name: "Hamlet"}, nil)
	m.On("GetByID", mock.Anything, int64(4)).Return(nil, service.ErrNotFound)

	w := perform(router, http.MethodGet, "/api/v1/titles/3", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rating":null`)

	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/api/v1/titles/4", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/api/v1/titles/abc", "", nil).Code)
	m.AssertExpectations(t)
}

func TestTitleCreate(t *testing.T) {
	m := new(MockTitleService)
	router := titleRouter(t, m)
	year := 1603
	req := dto.CreateTitleRequest{Name: "Hamlet", Year: &year, Category: "books", Genre: []string{"drama"}}
	m.On("Create", mock.Anything, req).Return(&dto.TitleResponse{ID: 1, Name: "Hamlet", Year: &year}, nil)

	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodPost, "/api/v1/titles", "mod", req).Code)
	assert.Equal(t, http.StatusCreated, perform(router, http.MethodPost, "/api/v1/titles", "admin", req).Code)

	future := time.Now().Year() + 1
	w := perform(router, http.MethodPost, "/api/v1/titles", "admin", gin.H{"name": "Later", "year": future})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "year")

	m.On("Create", mock.Anything, dto.CreateTitleRequest{Name: "Lost", Genre: []string{"nope"}}).
		Return(nil, service.NewValidationError("genre", "unknown slug: nope"))
	w = perform(router, http.MethodPost, "/api/v1/titles", "admin", gin.H{"name": "Lost", "genre": []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "genre")
	m.AssertExpectations(t)
}

func TestTitleUpdateAndDelete(t *testing.T) {
	m := new(MockTitleService)
	router := titleRouter(t, m)
	name := "Hamlet, Prince of Denmark"
	m.On("Update", mock.Anything, int64(1), dto.UpdateTitleRequest{Name: &name}).
		Return(&dto.TitleResponse{ID: 1, Name: name}, nil)
	m.On("Delete", mock.Anything, int64(1)).Return(nil)

	w := perform(router, http.MethodPatch, "/api/v1/titles/1", "admin", gin.H{"name": name})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodDelete, "/api/v1/titles/1", "admin", nil).Code)
	m.AssertExpectations(t)
}

func reviewRouter(t *testing.T, m *MockReviewService) *gin.Engine {
	return setupRouter(t, nil, func(rg *gin.RouterGroup) {
		NewReviewHandler(m, 10).RegisterRoutes(rg)
	})
}

func TestReviewCreate(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		body       any
		setup      func(m *MockReviewService)
		wantStatus int
		wantField  string
	}{
		{
			name:       "anonymous",
			body:       gin.H{"text": "great", "score": 9},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "score out of range",
			token:      "user",
			body:       gin.H{"text": "great", "score": 11},
			wantStatus: http.StatusBadRequest,
			wantField:  "score",
		},
		{
			name:       "missing text",
			token:      "user",
			body:       gin.H{"score": 5},
			wantStatus: http.StatusBadRequest,
			wantField:  "text",
		},
		{
			name:  "second review",
			token: "user",
			body:  gin.H{"text": "again", "score": 3},
			setup: func(m *MockReviewService) {
				m.On("Create", mock.Anything, userIdentity, int64(1), dto.CreateReviewDTO{Text: "again", Score: 3}).
					Return(nil, service.NewValidationError("non_field_errors", "you have already reviewed this title"))
			},
			wantStatus: http.StatusBadRequest,
			wantField:  "non_field_errors",
		},
		{
			name:  "unknown title",
			token: "user",
			body:  gin.H{"text": "great", "score": 9},
			setup: func(m *MockReviewService) {
				m.On("Create", mock.Anything, userIdentity, int64(1), mock.Anything).Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "created",
			token: "user",
			body:  gin.H{"text": "great", "score": 9},
			setup: func(m *MockReviewService) {
				m.On("Create", mock.Anything, userIdentity, int64(1), dto.CreateReviewDTO{Text: "great", Score: 9}).
					Return(&dto.ReviewResponse{ID: 5, Title: 1, Author: "reader", Text: "great", Score: 9}, nil)
			},
			wantStatus: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockReviewService)
			if tt.setup != nil {
				tt.setup(m)
			}
			w := perform(reviewRouter(t, m), http.MethodPost, "/api/v1/titles/1/reviews", tt.token, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantField != "" {
				assert.Contains(t, fieldErrors(t, w), tt.wantField)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestReviewObjectAccess(t *testing.T) {
	m := new(MockReviewService)
	router := reviewRouter(t, m)
	page := dto.NewPaginated([]dto.ReviewResponse{{ID: 5, Author: "reader"}}, 1, 1, 10)
	m.On("List", mock.Anything, int64(1), repository.Page{Number: 1, Size: 10}).Return(page, nil)
	m.On("Get", mock.Anything, modIdentity, int64(1), int64(5)).Return(&dto.ReviewResponse{ID: 5}, nil)
	m.On("Delete", mock.Anything, userIdentity, int64(1), int64(6)).Return(service.ErrPermissionDenied)
	m.On("Delete", mock.Anything, modIdentity, int64(1), int64(6)).Return(nil)
	text := "edited"
	m.On("Update", mock.Anything, userIdentity, int64(1), int64(5), dto.UpdateReviewDTO{Text: &text}).
		Return(&dto.ReviewResponse{ID: 5, Text: text}, nil)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/v1/titles/1/reviews", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/v1/titles/1/reviews/5", "mod", nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodPatch, "/api/v1/titles/1/reviews/5", "user", gin.H{"text": text}).Code)
	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodDelete, "/api/v1/titles/1/reviews/6", "user", nil).Code)
	assert.Equal(t, http.StatusNoContent, perform(router, http.MethodDelete, "/api/v1/titles/1/reviews/6", "mod", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/api/v1/titles/1/reviews/x", "mod", nil).Code)
	m.AssertExpectations(t)
}

func TestCommentRoutes(t *testing.T) {
	m := new(MockCommentService)
	router := setupRouter(t, nil, func(rg *gin.RouterGroup) {
		NewCommentHandler(m, 10).RegisterRoutes(rg)
	})
	base := "/api/v1/titles/1/reviews/5/comments"
	page := dto.NewPaginated([]dto.CommentResponse{{ID: 7, Review: 5, Author: "reader", Text: "agreed"}}, 1, 1, 10)
	m.On("List", mock.Anything, int64(1), int64(5), repository.Page{Number: 1, Size: 10}).Return(page, nil)
	m.On("Create", mock.Anything, userIdentity, int64(1), int64(5), dto.CommentDTO{Text: "agreed"}).
		Return(&dto.CommentResponse{ID: 7, Review: 5, Author: "reader", Text: "agreed"}, nil)
	m.On("Get", mock.Anything, userIdentity, int64(1), int64(5), int64(8)).Return(nil, service.ErrNotFound)
	m.On("Update", mock.Anything, adminIdentity, int64(1), int64(5), int64(7), dto.CommentDTO{Text: "moderated"}).
		Return(&dto.CommentResponse{ID: 7, Text: "moderated"}, nil)
	m.On("Delete", mock.Anything, userIdentity, int64(1), int64(5), int64(7)).Return(errors.New("db down"))

	w := perform(router, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"agreed"`)

	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodPost, base, "", gin.H{"text": "agreed"}).Code)
	assert.Equal(t, http.StatusCreated, perform(router, http.MethodPost, base, "user", gin.H{"text": "agreed"}).Code)
	assert.Equal(t, http.StatusBadRequest, perform(router, http.MethodPost, base, "user", gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, base+"/8", "user", nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodPatch, base+"/7", "admin", gin.H{"text": "moderated"}).Code)
	assert.Equal(t, http.StatusInternalServerError, perform(router, http.MethodDelete, base+"/7", "user", nil).Code)
	m.AssertExpectations(t)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/healthz", Health(stubPinger{}))
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/healthz", "", nil).Code)

	router = gin.New()
	router.GET("/healthz", Health(stubPinger{err: errors.New("connection refused")}))
	w := perform(router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}
