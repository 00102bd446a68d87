package repository

import (
	"github.com/yourusername/quizhost-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByName(name string) (*entity.User, error)
	// Count возвращает общее число пользователей; используется при выборе
	// запасного id, когда производный от имени id уже занят.
	Count() (int64, error)
}
