package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	"github.com/yourusername/quizhost-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/pkg/auth"
)

// AuthService предоставляет методы для регистрации и аутентификации
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register регистрирует нового пользователя и возвращает его вместе с токеном.
// Повторное имя дает ErrConflict. Если производный от имени id уже занят
// другим пользователем, выбирается запасной порядковый id, а исходный хеш
// сохраняется в props["original_id"].
func (s *AuthService) Register(name, password string, props entity.JSONMap) (*entity.User, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if password == "" {
		return nil, "", fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	}

	// Имя должно быть свободно
	if _, err := s.userRepo.GetByName(name); err == nil {
		return nil, "", fmt.Errorf("%w: name %q is already taken", apperrors.ErrConflict, name)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	user, err := entity.NewUser(name, password, props)
	if err != nil {
		return nil, "", err
	}

	// Производный id мог достаться другому имени; тогда берем запасной
	if existing, err := s.userRepo.GetByID(user.ID); err == nil && existing.Name != user.Name {
		total, err := s.userRepo.Count()
		if err != nil {
			return nil, "", err
		}
		log.Printf("[AuthService] Коллизия id=%s между %q и %q, выдается запасной id",
			user.ID, existing.Name, user.Name)
		user.Props["original_id"] = user.ID
		user.ID = strconv.FormatInt(total+1, 10)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] Зарегистрирован пользователь name=%s id=%s", user.Name, user.ID)
	return user, token, nil
}

// Login аутентифицирует пользователя по имени и паролю.
// Неизвестное имя — ErrNotFound, неверный пароль — ErrUnauthorized.
func (s *AuthService) Login(name, password string) (*entity.User, string, error) {
	user, err := s.userRepo.GetByName(name)
	if err != nil {
		return nil, "", err
	}

	if !user.CheckPassword(password) {
		return nil, "", fmt.Errorf("%w: bad credential for name %q", apperrors.ErrUnauthorized, name)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(id string) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}
