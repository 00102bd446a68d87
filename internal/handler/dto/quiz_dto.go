package dto

import (
	"github.com/yourusername/quizhost-api/internal/domain/entity"
)

// NewQuizDocResponse возвращает хранимый документ викторины в исходной
// проводной форме: метаданные, id вопросов, обе политики и произвольные
// свойства, поднятые на верхний уровень. Тел вопросов (и тем более ключа
// ответов) в хранимой форме нет.
func NewQuizDocResponse(doc *entity.QuizDoc) entity.JSONMap {
	out := entity.JSONMap{}
	for k, v := range doc.Props {
		out[k] = v
	}

	questionIDs := []string(doc.QuestionIDs)
	if questionIDs == nil {
		questionIDs = []string{}
	}

	out["_id"] = doc.ID
	out["name"] = doc.Name
	out["questions"] = questionIDs
	out["player_access"] = doc.PlayerAccess.Doc()
	out["full_access"] = doc.FullAccess.Doc()
	return out
}

// NewQuizListResponse собирает список викторин в отображение id → документ
func NewQuizListResponse(docs []entity.QuizDoc) map[string]entity.JSONMap {
	out := make(map[string]entity.JSONMap, len(docs))
	for i := range docs {
		out[docs[i].ID] = NewQuizDocResponse(&docs[i])
	}
	return out
}
