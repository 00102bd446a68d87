package repository

import (
	"github.com/yourusername/quizhost-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	// GetByIDs возвращает найденные вопросы в порядке запрошенных id;
	// отсутствующие id молча пропускаются, решение об их судьбе
	// принимает сервисный слой.
	GetByIDs(ids []string) ([]*entity.Question, error)
	// Upsert вставляет вопрос; при replace существующая запись с тем же id
	// перезаписывается целиком, иначе остается нетронутой.
	Upsert(question *entity.Question, replace bool) error
}
