package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/permission"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/middleware/auth"
)

const confirmationSubject = "Your confirmation code"

// dummyCodeHash is compared against when there is nothing to compare, so a miss
// takes as long as a wrong code.
var dummyCodeHash, _ = auth.HashCode("no-pending-code")

type AuthService interface {
	// RequestCode creates an inactive account for email and mails it a confirmation code.
	RequestCode(ctx context.Context, email string) (*dto.SignupResponse, error)
	// ExchangeCode trades a pending confirmation code for an access token.
	ExchangeCode(ctx context.Context, email, code string) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to the identity of an active user.
	Authenticate(ctx context.Context, token string) (permission.Identity, error)
}

type authService struct {
	userRepo repository.UserRepository
	codeRepo repository.ConfirmationCodeRepository
	tokens   *TokenService
	mailer   Mailer
	from     string
	codeTTL  time.Duration
	logger   *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	codeRepo repository.ConfirmationCodeRepository,
	tokens *TokenService,
	mailer Mailer,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		codeRepo: codeRepo,
		tokens:   tokens,
		mailer:   mailer,
		from:     cfg.EmailFrom,
		codeTTL:  cfg.ConfirmationCodeTTL,
		logger:   logger,
	}
}

// usernameFromEmail takes the local part of an address.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (s *authService) RequestCode(ctx context.Context, email string) (*dto.SignupResponse, error) {
	email = strings.TrimSpace(email)

	// Check if email exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, NewValidationError("email", "a user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	username := usernameFromEmail(email)
	if err := checkUsername(username); err != nil {
		return nil, err
	}

	code, err := auth.NewCode()
	if err != nil {
		return nil, err
	}
	codeHash, err := auth.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
		IsActive: false,
	}
	// the unique indexes settle concurrent requests for the same address
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("email", "a user with this email or username already exists")
		}
		return nil, err
	}

	if err := s.codeRepo.Save(ctx, email, codeHash, s.codeTTL); err != nil {
		s.rollbackSignup(ctx, user, false)
		return nil, err
	}

	body := fmt.Sprintf("Your confirmation code: %s", code)
	if err := s.mailer.Send(ctx, confirmationSubject, body, s.from, []string{email}); err != nil {
		s.logger.ErrorContext(ctx, "confirmation_mail_failed", "email", email, "error", err)
		s.rollbackSignup(ctx, user, true)
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.logger.InfoContext(ctx, "confirmation_code_sent", "email", email, "username", username)
	return &dto.SignupResponse{Email: email, Username: username}, nil
}

// rollbackSignup removes what RequestCode stored so the address can try again.
func (s *authService) rollbackSignup(ctx context.Context, user *models.User, codeSaved bool) {
	// the request context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	if codeSaved {
		if err := s.codeRepo.Consume(ctx, user.Email); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.ErrorContext(ctx, "signup_rollback_failed", "email", user.Email, "error", err)
		}
	}
	if err := s.userRepo.DeleteByID(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "signup_rollback_failed", "email", user.Email, "error", err)
	}
}

func (s *authService) ExchangeCode(ctx context.Context, email, code string) (*dto.TokenResponse, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		auth.VerifyCode(dummyCodeHash, code)
		return nil, ErrWrongCode
	}
	if err != nil {
		return nil, err
	}

	pending, err := s.codeRepo.Find(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		auth.VerifyCode(dummyCodeHash, code)
		return nil, ErrWrongCode
	}
	if err != nil {
		return nil, err
	}
	if err := auth.VerifyCode(pending.CodeHash, code); err != nil {
		return nil, ErrWrongCode
	}

	// only the caller that deletes the code gets a token
	if err := s.codeRepo.Consume(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWrongCode
		}
		return nil, err
	}

	if !user.IsActive {
		user.IsActive = true
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "token_issued", "user_id", user.ID)
	return &dto.TokenResponse{Token: token}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (permission.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return permission.Anonymous(), fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return permission.Anonymous(), ErrUnauthenticated
	}
	if err != nil {
		return permission.Anonymous(), err
	}
	if !user.IsActive {
		return permission.Anonymous(), ErrUnauthenticated
	}
	// role and staff flag are read from storage, not from the token
	return permission.FromUser(user), nil
}
