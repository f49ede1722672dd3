package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

// MockAdminRepository реализует repository.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(admin *entity.Admin) error {
	args := m.Called(admin)
	return args.Error(0)
}

func (m *MockAdminRepository) GetByUsername(username string) (*entity.Admin, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

func (m *MockAdminRepository) GetByID(id uint) (*entity.Admin, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

func (m *MockAdminRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func newTestAuthService(t *testing.T, adminRepo *MockAdminRepository) *AuthService {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", 1)
	require.NoError(t, err)

	service, err := NewAuthService(adminRepo, jwtService)
	require.NoError(t, err)
	return service
}

// hashPassword хеширует пароль так же, как Admin.BeforeSave (в тестах GORM хуки не вызываются)
func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register_FirstAdmin(t *testing.T) {
	// Arrange
	adminRepo := new(MockAdminRepository)
	service := newTestAuthService(t, adminRepo)

	adminRepo.On("Count").Return(int64(0), nil)
	adminRepo.On("Create", mock.MatchedBy(func(a *entity.Admin) bool {
		return a.Username == "admin"
	})).Return(nil)

	// Act
	admin, err := service.Register("  admin  ", "secret-password")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username, "имя должно обрезаться")
	adminRepo.AssertExpectations(t)
}

func TestAuthService_Register_SecondAdminRejected(t *testing.T) {
	// Arrange: bootstrap-регистрация закрывается после первого администратора
	adminRepo := new(MockAdminRepository)
	service := newTestAuthService(t, adminRepo)

	adminRepo.On("Count").Return(int64(1), nil)

	// Act
	admin, err := service.Register("another", "secret-password")

	// Assert
	require.Error(t, err)
	assert.Nil(t, admin)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	adminRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Register_EmptyCredentials(t *testing.T) {
	// Arrange
	service := newTestAuthService(t, new(MockAdminRepository))

	// Act & Assert
	for _, tc := range []struct{ username, password string }{
		{"", "password"},
		{"admin", ""},
		{"   ", "password"},
	} {
		_, err := service.Register(tc.username, tc.password)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	adminRepo := new(MockAdminRepository)
	service := newTestAuthService(t, adminRepo)

	stored := &entity.Admin{
		ID:       1,
		Username: "admin",
		Password: hashPassword(t, "secret-password"),
	}
	adminRepo.On("GetByUsername", "admin").Return(stored, nil)

	// Act
	token, admin, err := service.Login("admin", "secret-password")

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, uint(1), admin.ID)

	// Токен должен проходить обратную проверку
	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.AdminID)
	assert.Equal(t, "admin", claims.Username)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	// Arrange
	adminRepo := new(MockAdminRepository)
	service := newTestAuthService(t, adminRepo)

	stored := &entity.Admin{
		ID:       1,
		Username: "admin",
		Password: hashPassword(t, "secret-password"),
	}
	adminRepo.On("GetByUsername", "admin").Return(stored, nil)

	// Act
	token, admin, err := service.Login("admin", "wrong")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.Nil(t, admin)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_Login_UnknownUser_SameError(t *testing.T) {
	// Arrange: ответ для неизвестного имени не должен отличаться от неверного пароля
	adminRepo := new(MockAdminRepository)
	service := newTestAuthService(t, adminRepo)

	adminRepo.On("GetByUsername", "ghost").
		Return(nil, fmt.Errorf("%w: admin not found", apperrors.ErrNotFound))

	// Act
	_, _, err := service.Login("ghost", "whatever")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized), "ErrNotFound не должен просачиваться наружу")
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAuthService_VerifyToken_Invalid(t *testing.T) {
	// Arrange
	service := newTestAuthService(t, new(MockAdminRepository))

	// Act
	claims, err := service.VerifyToken("not-a-token")

	// Assert
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}
