package entity

import (
	"fmt"
	"time"

	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/internal/pkg/ident"
)

// Question представляет один вопрос с вариантами ответов.
// Вопрос неизменяем после создания и может входить в несколько викторин по id.
type Question struct {
	ID       string      `gorm:"primaryKey;size:64" json:"_id"`
	Text     string      `gorm:"size:500;not null" json:"text"`
	Variants StringArray `gorm:"type:jsonb;not null" json:"variants"`
	Ans      int         `gorm:"not null" json:"-"` // Скрыто от игрока
	Props    JSONMap     `gorm:"type:jsonb;not null;default:'{}'" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// NewQuestion создает вопрос с детерминированным id из текста.
// Инвариант 0 <= ans < len(variants) проверяется здесь: невалидный вопрос
// не должен существовать, нарушение — невосстановимая ошибка конструирования.
func NewQuestion(text string, variants []string, ans int, props JSONMap) (*Question, error) {
	q := &Question{
		ID:       ident.FromText(text),
		Text:     text,
		Variants: append(StringArray{}, variants...),
		Ans:      ans,
		Props:    props,
	}
	if q.Props == nil {
		q.Props = JSONMap{}
	}
	if ans < 0 || ans >= len(q.Variants) {
		return nil, fmt.Errorf("%w: ans = %d, len(variants) = %d",
			apperrors.ErrInvalidAnswerIndex, ans, len(q.Variants))
	}
	return q, nil
}

// Check возвращает true только при точном совпадении индекса с правильным ответом.
// Частичных совпадений и приведения типов нет.
func (q *Question) Check(ans int) bool {
	return q.Ans == ans
}

// Projection возвращает представление вопроса в форме документа.
// Игровой вид: только _id, text и variants — ни индекса ответа, ни свойств.
// Полный вид дополнительно содержит ans и все свойства на верхнем уровне.
// Для корректно сконструированного вопроса не возвращает ошибок.
func (q *Question) Projection(playerView bool) JSONMap {
	doc := JSONMap{
		"_id":      q.ID,
		"text":     q.Text,
		"variants": append([]string{}, q.Variants...),
	}
	if !playerView {
		doc["ans"] = q.Ans
		for k, v := range q.Props {
			doc[k] = v
		}
	}
	return doc
}

// Validate проверяет структурную целостность загруженного документа вопроса.
// Отсутствующее обязательное поле дает MissingFieldError с именем поля;
// индекс ответа повторно проверяется на границы — документ мог быть
// поврежден в хранилище.
func (q *Question) Validate() error {
	if q.ID == "" {
		return &apperrors.MissingFieldError{Field: "_id"}
	}
	if q.Text == "" {
		return &apperrors.MissingFieldError{Field: "text"}
	}
	if len(q.Variants) == 0 {
		return &apperrors.MissingFieldError{Field: "variants"}
	}
	if q.Ans < 0 || q.Ans >= len(q.Variants) {
		return fmt.Errorf("%w: ans = %d, len(variants) = %d",
			apperrors.ErrInvalidAnswerIndex, q.Ans, len(q.Variants))
	}
	return nil
}
