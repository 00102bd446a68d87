package entity

import (
	"fmt"
	"time"

	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/internal/pkg/ident"
)

// ViewKind выбирает проекцию и политику доступа викторины
type ViewKind string

const (
	// ViewPlayer - игровой вид: без ключа ответов и без свойств
	ViewPlayer ViewKind = "player"
	// ViewFull - полный (авторский) вид: все поля, включая ответы и политики
	ViewFull ViewKind = "full"
)

// Quiz - собранный агрегат викторины: метаданные плюс разрешенные вопросы.
// Durable-форма (только id вопросов) описывается QuizDoc.
// Агрегат неизменяем после сборки; все методы — чистые функции своих аргументов
// и безопасны для конкурентных запросов.
type Quiz struct {
	ID   string
	Name string

	// Questions отображает id вопроса в сам вопрос; order хранит порядок
	// вставки для отображения (семантически порядок незначим).
	Questions map[string]*Question
	order     []string

	PlayerAccess AccessPolicy
	FullAccess   AccessPolicy

	Props JSONMap
}

// AssembleQuiz собирает агрегат из готовых частей.
// Дубликаты id во входной последовательности не отвергаются: побеждает
// последний вопрос, позиция в порядке остается за первым вхождением.
// Ненастроенные политики получают умолчания: игровой доступ — пустой
// blacklist (открыт всем), полный — пустой whitelist (закрыт).
func AssembleQuiz(id, name string, questions []*Question, playerAccess, fullAccess AccessPolicy, props JSONMap) *Quiz {
	z := &Quiz{
		ID:           id,
		Name:         name,
		Questions:    make(map[string]*Question, len(questions)),
		order:        make([]string, 0, len(questions)),
		PlayerAccess: playerAccess,
		FullAccess:   fullAccess,
		Props:        props,
	}
	if z.Props == nil {
		z.Props = JSONMap{}
	}
	for _, q := range questions {
		if _, seen := z.Questions[q.ID]; !seen {
			z.order = append(z.order, q.ID)
		}
		z.Questions[q.ID] = q
	}
	if !z.PlayerAccess.Configured() {
		z.PlayerAccess = AccessPolicy{Kind: AccessBlacklist}
	}
	if !z.FullAccess.Configured() {
		z.FullAccess = AccessPolicy{Kind: AccessWhitelist}
	}
	return z
}

// NewQuiz создает викторину с детерминированным id из имени
func NewQuiz(name string, questions []*Question, playerAccess, fullAccess AccessPolicy, props JSONMap) *Quiz {
	return AssembleQuiz(ident.FromText(name), name, questions, playerAccess, fullAccess, props)
}

// QuestionIDs возвращает id вопросов в порядке вставки
func (z *Quiz) QuestionIDs() []string {
	return append([]string{}, z.order...)
}

// Len возвращает количество вопросов
func (z *Quiz) Len() int {
	return len(z.Questions)
}

// PolicyFor возвращает политику доступа для запрошенного вида
func (z *Quiz) PolicyFor(view ViewKind) AccessPolicy {
	if view == ViewFull {
		return z.FullAccess
	}
	return z.PlayerAccess
}

// CheckAccess вычисляет решение по доступу для посетителя и вида.
// Отказ — значение, не ошибка: (granted, reason), reason пригоден как
// сообщение клиенту.
func (z *Quiz) CheckAccess(viewer *User, view ViewKind) (bool, string) {
	return z.PolicyFor(view).Evaluate(viewer)
}

// CheckAnswers сверяет присланные ответы со всеми вопросами викторины.
// Для каждого вопроса викторины: false, если ответа нет в submitted, иначе
// результат точной проверки. Чужие id в submitted молча игнорируются.
func (z *Quiz) CheckAnswers(submitted map[string]int) map[string]bool {
	result := make(map[string]bool, len(z.Questions))
	for qid, q := range z.Questions {
		ans, ok := submitted[qid]
		result[qid] = ok && q.Check(ans)
	}
	return result
}

// Projection возвращает представление викторины в форме документа:
// _id, name и отображение id вопроса → проекция вопроса. Полный вид
// дополнительно содержит свойства и сырые определения политик на верхнем
// уровне. Расхождение ключа с собственным id вопроса — фатальная ошибка
// целостности хранилища (ErrIDMismatch).
func (z *Quiz) Projection(playerView bool) (JSONMap, error) {
	questions := JSONMap{}
	for qid, q := range z.Questions {
		doc := q.Projection(playerView)
		if ownID, _ := doc["_id"].(string); ownID != qid {
			return nil, fmt.Errorf("%w: key %q, question id %q", apperrors.ErrIDMismatch, qid, doc["_id"])
		}
		// Ключом служит qid, дублировать id внутри документа не нужно
		delete(doc, "_id")
		questions[qid] = doc
	}

	out := JSONMap{
		"_id":       z.ID,
		"name":      z.Name,
		"questions": questions,
	}
	if !playerView {
		for k, v := range z.Props {
			out[k] = v
		}
		out["player_access"] = z.PlayerAccess.Doc()
		out["full_access"] = z.FullAccess.Doc()
	}
	return out, nil
}

// StorageDoc возвращает durable-форму викторины: метаданные, политики и
// только список id вопросов — тела вопросов живут в своей коллекции.
func (z *Quiz) StorageDoc() *QuizDoc {
	return &QuizDoc{
		ID:           z.ID,
		Name:         z.Name,
		QuestionIDs:  StringArray(z.QuestionIDs()),
		PlayerAccess: z.PlayerAccess,
		FullAccess:   z.FullAccess,
		Props:        z.Props,
	}
}

// QuizDoc - хранимая форма викторины
type QuizDoc struct {
	ID           string       `gorm:"primaryKey;size:64" json:"_id"`
	Name         string       `gorm:"size:100;not null" json:"name"`
	QuestionIDs  StringArray  `gorm:"type:jsonb;not null" json:"questions"`
	PlayerAccess AccessPolicy `gorm:"type:jsonb;not null" json:"player_access"`
	FullAccess   AccessPolicy `gorm:"type:jsonb;not null" json:"full_access"`
	Props        JSONMap      `gorm:"type:jsonb;not null;default:'{}'" json:"props,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName определяет имя таблицы для GORM
func (QuizDoc) TableName() string {
	return "quizzes"
}

// Validate проверяет структурную целостность загруженного документа викторины
func (d *QuizDoc) Validate() error {
	if d.ID == "" {
		return &apperrors.MissingFieldError{Field: "_id"}
	}
	if d.Name == "" {
		return &apperrors.MissingFieldError{Field: "name"}
	}
	return nil
}
