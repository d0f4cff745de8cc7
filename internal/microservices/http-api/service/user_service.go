package service

import (
	"context"
	"errors"
	"regexp"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/permission"
	"reviewhub/internal/microservices/http-api/repository"
)

// reservedUsername collides with the users/me route.
const reservedUsername = "me"

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func checkUsername(username string) error {
	switch {
	case username == "":
		return NewValidationError("username", "this field is required")
	case username == reservedUsername:
		return NewValidationError("username", `the username "me" is reserved`)
	case !usernamePattern.MatchString(username):
		return NewValidationError("username", "may contain only letters, digits and @/./+/-/_ characters")
	}
	return nil
}

type UserService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.UserResponse], error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error
	Me(ctx context.Context, id permission.Identity) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, id permission.Identity, req dto.UpdateMeRequest) (*dto.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.UserResponse], error) {
	page = page.Normalize()
	users, total, err := s.userRepo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	return dto.NewPaginated(dto.MapSlice(users, dto.FromModelToUserResponse), total, page.Number, page.Size), nil
}

// Create adds a user on behalf of an admin. Such users are active but hold no
// confirmation code.
func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := checkUsername(req.Username); err != nil {
		return nil, err
	}
	role := models.RoleUser
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, NewValidationError("role", err.Error())
		}
		role = parsed
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, duplicateUser(err)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, req)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.find(ctx, username)
	if err != nil {
		return err
	}
	if err := s.userRepo.DeleteByID(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user")
		}
		return err
	}
	return nil
}

func (s *userService) Me(ctx context.Context, id permission.Identity) (*dto.UserResponse, error) {
	user, err := s.self(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// UpdateMe applies the self-service subset; role and email stay untouched.
func (s *userService) UpdateMe(ctx context.Context, id permission.Identity, req dto.UpdateMeRequest) (*dto.UserResponse, error) {
	user, err := s.self(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, req.AsAdminUpdate())
}

func (s *userService) self(ctx context.Context, id permission.Identity) (*models.User, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return user, err
}

func (s *userService) find(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user")
	}
	return user, err
}

func (s *userService) apply(ctx context.Context, user *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.Username != nil {
		if err := checkUsername(*req.Username); err != nil {
			return nil, err
		}
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			return nil, NewValidationError("role", err.Error())
		}
		user.Role = role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, duplicateUser(err)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func duplicateUser(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return NewValidationError("username", "a user with this username or email already exists")
	}
	return err
}
