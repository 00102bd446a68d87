package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// GetByID возвращает хранимый документ викторины по ID
func (r *QuizRepo) GetByID(id string) (*entity.QuizDoc, error) {
	var doc entity.QuizDoc
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List возвращает все хранимые документы викторин
func (r *QuizRepo) List() ([]entity.QuizDoc, error) {
	var docs []entity.QuizDoc
	if err := r.db.Order("created_at").Find(&docs).Error; err != nil {
		return nil, err
	}
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// Upsert вставляет документ викторины. При replace существующая запись
// перезаписывается целиком, иначе вставка конфликтующего id — no-op.
func (r *QuizRepo) Upsert(doc *entity.QuizDoc, replace bool) error {
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if replace {
		onConflict = clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
	}
	return r.db.Clauses(onConflict).Create(doc).Error
}
