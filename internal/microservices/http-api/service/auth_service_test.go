package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string, page repository.Page) ([]models.User, int64, error) {
	args := m.Called(ctx, search, page)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCodeRepository mocks the ConfirmationCodeRepository interface
type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	args := m.Called(ctx, email, codeHash, ttl)
	return args.Error(0)
}

func (m *MockCodeRepository) Find(ctx context.Context, email string) (*models.ConfirmationCode, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConfirmationCode), args.Error(1)
}

func (m *MockCodeRepository) Consume(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockMailer records sent mail
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, subject, body, from string, to []string) error {
	args := m.Called(ctx, subject, body, from, to)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           testSecret,
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: time.Hour,
		EmailFrom:           "noreply@reviewhub.test",
	}
}

func newMockedAuthService(users *MockUserRepository, codes *MockCodeRepository, mailer *MockMailer) AuthService {
	cfg := testConfig()
	return NewAuthService(users, codes, NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL), mailer, cfg, testutil.DiscardLogger())
}

func TestRequestCode_EmailExists(t *testing.T) {
	users, codes, mailer := new(MockUserRepository), new(MockCodeRepository), new(MockMailer)
	svc := newMockedAuthService(users, codes, mailer)

	users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&models.User{Email: "taken@example.com"}, nil)

	resp, err := svc.RequestCode(context.Background(), "taken@example.com")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Nil(t, resp)
	users.AssertExpectations(t)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCode_Success(t *testing.T) {
	users, codes, mailer := new(MockUserRepository), new(MockCodeRepository), new(MockMailer)
	svc := newMockedAuthService(users, codes, mailer)

	users.On("FindByEmail", mock.Anything, "jane.doe@example.com").Return(nil, repository.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "jane.doe" && !u.IsActive && u.Role == models.RoleUser
	})).Return(nil)
	codes.On("Save", mock.Anything, "jane.doe@example.com", mock.AnythingOfType("string"), time.Hour).Return(nil)
	mailer.On("Send", mock.Anything, confirmationSubject, mock.AnythingOfType("string"),
		"noreply@reviewhub.test", []string{"jane.doe@example.com"}).Return(nil)

	resp, err := svc.RequestCode(context.Background(), "jane.doe@example.com")

	require.NoError(t, err)
	assert.Equal(t, "jane.doe", resp.Username)
	assert.Equal(t, "jane.doe@example.com", resp.Email)
	users.AssertExpectations(t)
	codes.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRequestCode_MailFailureRollsBack(t *testing.T) {
	users, codes, mailer := new(MockUserRepository), new(MockCodeRepository), new(MockMailer)
	svc := newMockedAuthService(users, codes, mailer)

	users.On("FindByEmail", mock.Anything, "jane@example.com").Return(nil, repository.ErrNotFound)
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	codes.On("Save", mock.Anything, "jane@example.com", mock.Anything, mock.Anything).Return(nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))
	codes.On("Consume", mock.Anything, "jane@example.com").Return(nil)
	users.On("DeleteByID", mock.Anything, "generated-id").Return(nil)

	resp, err := svc.RequestCode(context.Background(), "jane@example.com")

	assert.ErrorIs(t, err, ErrDelivery)
	assert.Nil(t, resp)
	users.AssertExpectations(t)
	codes.AssertExpectations(t)
}

func TestRequestCode_ReservedUsername(t *testing.T) {
	users, codes, mailer := new(MockUserRepository), new(MockCodeRepository), new(MockMailer)
	svc := newMockedAuthService(users, codes, mailer)

	users.On("FindByEmail", mock.Anything, "me@example.com").Return(nil, repository.ErrNotFound)

	_, err := svc.RequestCode(context.Background(), "me@example.com")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// sentCode extracts the code from the last confirmation mail.
func sentCode(t *testing.T, mailer *MockMailer) string {
	t.Helper()
	var body string
	for _, call := range mailer.Calls {
		if call.Method == "Send" {
			body = call.Arguments.String(2)
		}
	}
	_, code, ok := strings.Cut(body, ": ")
	require.True(t, ok, "no confirmation mail sent")
	return code
}

func newDBAuthService(t *testing.T) (AuthService, repository.UserRepository, *MockMailer) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cfg := testConfig()
	svc := NewAuthService(users, repository.NewConfirmationCodeRepository(db),
		NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL), mailer, cfg, testutil.DiscardLogger())
	return svc, users, mailer
}

func TestConfirmationFlow(t *testing.T) {
	svc, users, mailer := newDBAuthService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "reader@example.com")
	require.NoError(t, err)

	// a second request for the same address is rejected
	_, err = svc.RequestCode(ctx, "reader@example.com")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	code := sentCode(t, mailer)
	stored, err := users.FindByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	_, err = svc.ExchangeCode(ctx, "reader@example.com", "wrong-code")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ExchangeCode(ctx, "nobody@example.com", code)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "no such user or wrong confirmation code/email")

	resp, err := svc.ExchangeCode(ctx, "reader@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	// the code is single use
	_, err = svc.ExchangeCode(ctx, "reader@example.com", code)
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "reader", id.Username)
	assert.Equal(t, models.RoleUser, id.Role)
	assert.True(t, id.Authenticated())
}

func TestAuthenticate_RejectsInactiveAndBadTokens(t *testing.T) {
	svc, users, mailer := newDBAuthService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "reader@example.com")
	require.NoError(t, err)
	resp, err := svc.ExchangeCode(ctx, "reader@example.com", sentCode(t, mailer))
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	user, err := users.FindByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, users.Update(ctx, user))

	_, err = svc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
