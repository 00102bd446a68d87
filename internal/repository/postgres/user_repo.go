package postgres

import (
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя.
// Нарушение уникальности имени переводится в ErrConflict.
func (r *UserRepo) Create(user *entity.User) error {
	err := r.db.Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return apperrors.ErrConflict
		}
		log.Printf("[UserRepo.Create] Ошибка при создании пользователя name=%s: %v", user.Name, err)
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByName возвращает пользователя по имени
func (r *UserRepo) GetByName(name string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("name = ?", name).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

// Count возвращает общее количество пользователей
func (r *UserRepo) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.User{}).Count(&total).Error
	return total, err
}
