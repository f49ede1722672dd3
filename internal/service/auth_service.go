package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/pkg/auth"
)

// AuthService предоставляет методы для аутентификации администраторов
type AuthService struct {
	adminRepo  repository.AdminRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(adminRepo repository.AdminRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if adminRepo == nil {
		return nil, fmt.Errorf("AdminRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}

	return &AuthService{
		adminRepo:  adminRepo,
		jwtService: jwtService,
	}, nil
}

// Register создает первого администратора.
// Bootstrap-операция: после появления хотя бы одного администратора
// повторная регистрация отклоняется.
func (s *AuthService) Register(username, password string) (*entity.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidation)
	}

	count, err := s.adminRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to check admin existence: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: admin already exists", apperrors.ErrConflict)
	}

	admin := &entity.Admin{
		Username: username,
		Password: password, // Хешируется в BeforeSave
	}

	if err := s.adminRepo.Create(admin); err != nil {
		return nil, err
	}

	return admin, nil
}

// Login проверяет учетные данные и возвращает подписанный токен.
// Для неизвестного имени и неверного пароля ответ одинаковый,
// чтобы не раскрывать существование аккаунта.
func (s *AuthService) Login(username, password string) (string, *entity.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidation)
	}

	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return "", nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if !admin.CheckPassword(password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(admin)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, admin, nil
}

// VerifyToken проверяет токен администратора и возвращает его claims
func (s *AuthService) VerifyToken(token string) (*auth.AdminClaims, error) {
	return s.jwtService.ParseToken(token)
}
