package repository

import (
	"github.com/yourusername/quizhost-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с хранимой формой викторин
type QuizRepository interface {
	GetByID(id string) (*entity.QuizDoc, error)
	// List возвращает все хранимые документы викторин
	List() ([]entity.QuizDoc, error)
	// Upsert вставляет документ викторины; при replace существующая запись
	// с тем же id перезаписывается целиком, иначе остается нетронутой.
	Upsert(doc *entity.QuizDoc, replace bool) error
}
