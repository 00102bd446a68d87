package dto

import (
	"time"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
)

// UserResponse представляет пользователя в ответах API.
// Хеш пароля наружу не выдается никогда.
type UserResponse struct {
	ID        string         `json:"_id"`
	Name      string         `json:"name"`
	Props     entity.JSONMap `json:"props,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewUserResponse создает DTO из доменной сущности
func NewUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Props:     user.Props,
		CreatedAt: user.CreatedAt,
	}
}
