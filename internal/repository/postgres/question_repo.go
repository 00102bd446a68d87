package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByIDs возвращает найденные вопросы в порядке запрошенных id.
// Отсутствующие id молча пропускаются.
func (r *QuestionRepo) GetByIDs(ids []string) ([]*entity.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var loaded []entity.Question
	if err := r.db.Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.Question, len(loaded))
	for i := range loaded {
		if err := loaded[i].Validate(); err != nil {
			return nil, err
		}
		byID[loaded[i].ID] = &loaded[i]
	}

	// Порядок результата повторяет порядок запрошенных id
	questions := make([]*entity.Question, 0, len(loaded))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// Upsert вставляет вопрос. При replace существующая запись с тем же id
// перезаписывается целиком, иначе вставка конфликтующего id — no-op.
func (r *QuestionRepo) Upsert(question *entity.Question, replace bool) error {
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if replace {
		onConflict = clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
	}
	return r.db.Clauses(onConflict).Create(question).Error
}
