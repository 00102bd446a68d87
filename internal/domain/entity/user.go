package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/internal/pkg/ident"
)

// User представляет зарегистрированного пользователя.
// Идентичность неизменяема после создания, кроме мешка свойств Props.
// Анонимный посетитель моделируется nil-указателем (см. IsAnonymous).
type User struct {
	ID       string  `gorm:"primaryKey;size:64" json:"_id"`
	Name     string  `gorm:"size:100;not null;uniqueIndex" json:"name"`
	PassHash string  `gorm:"size:100;not null" json:"-"`
	Props    JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"props,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// NewUser создает пользователя: id детерминированно выводится из имени,
// пароль сразу хешируется bcrypt.
func NewUser(name, password string, props JSONMap) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = JSONMap{}
	}
	return &User{
		ID:       ident.FromText(name),
		Name:     name,
		PassHash: string(hash),
		Props:    props,
	}, nil
}

// IsAnonymous возвращает true для синтетической идентичности "нет посетителя".
// Метод безопасен на nil-получателе: анонимный viewer и есть nil.
func (u *User) IsAnonymous() bool {
	return u == nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу.
// Возвращает только булево — никакой дополнительной информации при несовпадении.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password))
	return err == nil
}

// Validate проверяет структурную целостность загруженного документа пользователя
func (u *User) Validate() error {
	if u.ID == "" {
		return &apperrors.MissingFieldError{Field: "_id"}
	}
	if u.Name == "" {
		return &apperrors.MissingFieldError{Field: "name"}
	}
	if u.PassHash == "" {
		return &apperrors.MissingFieldError{Field: "pass_hash"}
	}
	return nil
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем.
// NewUser хеширует сразу; хук страхует пути, создающие пользователя в обход конструктора.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.PassHash) > 0 && !strings.HasPrefix(u.PassHash, "$2a$") &&
		!strings.HasPrefix(u.PassHash, "$2b$") && !strings.HasPrefix(u.PassHash, "$2y$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.PassHash), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для name=%s: %v", u.Name, err)
			return err
		}
		u.PassHash = string(hashed)
	}
	return nil
}
