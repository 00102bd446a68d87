package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	"github.com/yourusername/quizhost-api/internal/middleware"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Стабы репозиториев: in-memory хранилище для сквозных тестов хендлеров
// ============================================================================

type stubQuizRepo struct {
	docs map[string]*entity.QuizDoc
}

func (r *stubQuizRepo) GetByID(id string) (*entity.QuizDoc, error) {
	if doc, ok := r.docs[id]; ok {
		return doc, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *stubQuizRepo) List() ([]entity.QuizDoc, error) {
	out := make([]entity.QuizDoc, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *stubQuizRepo) Upsert(doc *entity.QuizDoc, replace bool) error {
	if _, exists := r.docs[doc.ID]; exists && !replace {
		return nil
	}
	r.docs[doc.ID] = doc
	return nil
}

type stubQuestionRepo struct {
	questions map[string]*entity.Question
}

func (r *stubQuestionRepo) GetByIDs(ids []string) ([]*entity.Question, error) {
	var out []*entity.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *stubQuestionRepo) Upsert(q *entity.Question, replace bool) error {
	if _, exists := r.questions[q.ID]; exists && !replace {
		return nil
	}
	r.questions[q.ID] = q
	return nil
}

// stubCache всегда промахивается: кеширование проверяется тестами сервиса
type stubCache struct{}

func (stubCache) Delete(string) error                              { return nil }
func (stubCache) SetJSON(string, interface{}, time.Duration) error { return nil }
func (stubCache) GetJSON(string, interface{}) error                { return apperrors.ErrNotFound }

// newQuizRouter собирает маршруты викторин поверх заданных фикстур.
// Идентичность посетителя подставляется напрямую, без JWT: токены
// проверяются тестами middleware и pkg/auth.
func newQuizRouter(questions []*entity.Question, docs []*entity.QuizDoc, viewer *entity.User) *gin.Engine {
	questionRepo := &stubQuestionRepo{questions: map[string]*entity.Question{}}
	for _, q := range questions {
		questionRepo.questions[q.ID] = q
	}
	quizRepo := &stubQuizRepo{docs: map[string]*entity.QuizDoc{}}
	for _, doc := range docs {
		quizRepo.docs[doc.ID] = doc
	}

	quizService := service.NewQuizService(quizRepo, questionRepo, stubCache{}, service.MissingQuestionPartial, time.Minute)
	h := NewQuizHandler(quizService)

	router := gin.New()
	if viewer != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ViewerKey, viewer)
		})
	}
	api := router.Group("/api")
	{
		api.GET("/quizzes", h.ListQuizzes)
		quiz := api.Group("/quizzes/:id")
		quiz.Use(middleware.ExtractStringParam("id", "quizID"))
		{
			quiz.GET("", h.GetQuiz)
			quiz.POST("/check", h.CheckAnswers)
			quiz.GET("/export", h.ExportQuizQuestions)
		}
		api.POST("/quizzes", h.CreateQuiz)
		api.POST("/questions", h.CreateQuestion)
	}
	return router
}

func dummyFixtures(t *testing.T) (*entity.Question, *entity.QuizDoc) {
	t.Helper()
	question, err := entity.NewQuestion("Is this dummy question?", []string{"Yes", "No", "Maybe"}, 0,
		entity.JSONMap{"category": "dummy"})
	require.NoError(t, err)
	quiz := entity.NewQuiz("Dummy quiz", []*entity.Question{question},
		entity.AccessPolicy{Kind: entity.AccessAnonymous},
		entity.AccessPolicy{Kind: entity.AccessBlacklist},
		entity.JSONMap{"category": "dummy"})
	return question, quiz.StorageDoc()
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

func TestGetQuiz_PlayerView_Anonymous(t *testing.T) {
	question, doc := dummyFixtures(t)
	router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)

	w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Dummy quiz", resp["name"])
	qdoc := resp["questions"].(map[string]interface{})[question.ID].(map[string]interface{})
	assert.Equal(t, "Is this dummy question?", qdoc["text"])
	assert.NotContains(t, qdoc, "ans", "ключ ответов не должен утечь игроку")
}

func TestGetQuiz_FullView(t *testing.T) {
	question, doc := dummyFixtures(t)

	t.Run("авторизованный проходит пустой blacklist", func(t *testing.T) {
		viewer := &entity.User{ID: "7", Name: "author"}
		router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, viewer)

		w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID+"?view=full", nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, "dummy", resp["category"])
		qdoc := resp["questions"].(map[string]interface{})[question.ID].(map[string]interface{})
		assert.Equal(t, float64(0), qdoc["ans"])
	})

	t.Run("аноним не проходит: blacklist - настроенная политика", func(t *testing.T) {
		router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)

		w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID+"?view=full", nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, entity.ReasonAuthRequired, resp["error"])
	})
}

func TestGetQuiz_BadViewParam(t *testing.T) {
	question, doc := dummyFixtures(t)
	router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)

	w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID+"?view=admin", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetQuiz_NotFound(t *testing.T) {
	router := newQuizRouter(nil, nil, nil)

	w := doJSON(router, http.MethodGet, "/api/quizzes/12345", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQuiz_AccessDeniedReason(t *testing.T) {
	question, err := entity.NewQuestion("secret?", []string{"a", "b"}, 0, nil)
	require.NoError(t, err)
	quiz := entity.NewQuiz("Members quiz", []*entity.Question{question},
		entity.AccessPolicy{Kind: entity.AccessWhitelist, IDs: []string{"A"}},
		entity.AccessPolicy{}, nil)
	doc := quiz.StorageDoc()

	t.Run("аноним", func(t *testing.T) {
		router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)
		w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, entity.ReasonAuthRequired, resp["error"])
	})

	t.Run("пользователь вне whitelist", func(t *testing.T) {
		router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc},
			&entity.User{ID: "B", Name: "b", PassHash: "$2a$x"})
		w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, entity.ReasonNotInWhitelist, resp["error"])
	})
}

func TestListQuizzes(t *testing.T) {
	t.Run("пустой список дает 404", func(t *testing.T) {
		router := newQuizRouter(nil, nil, nil)
		w := doJSON(router, http.MethodGet, "/api/quizzes", nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, "Quizzes list is empty", resp["error"])
	})

	t.Run("список ключуется id и отдает документ целиком", func(t *testing.T) {
		question, doc := dummyFixtures(t)
		router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)
		w := doJSON(router, http.MethodGet, "/api/quizzes", nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := parseJSONResponse(t, w)
		stored := resp[doc.ID].(map[string]interface{})
		assert.Equal(t, "Dummy quiz", stored["name"])
		assert.Contains(t, stored["questions"], question.ID)
		// Хранимая форма содержит политики и свойства, но не тела вопросов
		assert.Contains(t, stored["player_access"], "anonymous")
		assert.Contains(t, stored["full_access"], "blacklist")
		assert.Equal(t, "dummy", stored["category"])
		qids := stored["questions"].([]interface{})
		assert.IsType(t, "", qids[0], "список отдает только id вопросов")
	})
}

func TestCheckAnswers(t *testing.T) {
	question, doc := dummyFixtures(t)
	router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)

	testCases := []struct {
		name    string
		answers map[string]int
		want    bool
	}{
		{"верный ответ", map[string]int{question.ID: 0}, true},
		{"неверный ответ", map[string]int{question.ID: 1}, false},
		{"пустая посылка", map[string]int{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/quizzes/"+doc.ID+"/check",
				gin.H{"answers": tc.answers})

			require.Equal(t, http.StatusOK, w.Code)
			resp := parseJSONResponse(t, w)
			results := resp["results"].(map[string]interface{})
			assert.Equal(t, tc.want, results[question.ID])
		})
	}

	t.Run("тело без answers эквивалентно пустой посылке", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/quizzes/"+doc.ID+"/check", gin.H{})

		require.Equal(t, http.StatusOK, w.Code)
		resp := parseJSONResponse(t, w)
		results := resp["results"].(map[string]interface{})
		assert.Equal(t, false, results[question.ID])
	})
}

func TestCreateQuestion(t *testing.T) {
	router := newQuizRouter(nil, nil, nil)

	t.Run("успешное создание", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/questions", gin.H{
			"text":     "New question?",
			"variants": []string{"Yes", "No"},
			"ans":      1,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, "New question?", resp["text"])
		assert.Equal(t, float64(1), resp["ans"])
	})

	t.Run("индекс вне границ дает 400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/questions", gin.H{
			"text":     "Broken?",
			"variants": []string{"Yes", "No"},
			"ans":      5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("без вариантов дает 400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/questions", gin.H{
			"text": "No variants?",
			"ans":  0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateQuiz(t *testing.T) {
	question, err := entity.NewQuestion("q?", []string{"a", "b"}, 0, nil)
	require.NoError(t, err)
	router := newQuizRouter([]*entity.Question{question}, nil, nil)

	w := doJSON(router, http.MethodPost, "/api/quizzes", gin.H{
		"name":          "Created quiz",
		"questions":     []string{question.ID},
		"player_access": gin.H{"anonymous": []string{}},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Created quiz", resp["name"])
	assert.Contains(t, resp["questions"], question.ID)
}

func TestExportQuizQuestions_Gated(t *testing.T) {
	question, err := entity.NewQuestion("q?", []string{"a", "b"}, 0, nil)
	require.NoError(t, err)
	// Полный доступ по умолчанию закрыт (пустой whitelist)
	quiz := entity.NewQuiz("Private quiz", []*entity.Question{question},
		entity.AccessPolicy{}, entity.AccessPolicy{}, nil)
	doc := quiz.StorageDoc()

	router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, nil)
	w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID+"/export", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportQuizQuestions_XLSX(t *testing.T) {
	question, doc := dummyFixtures(t)
	viewer := &entity.User{ID: "7", Name: "author"}
	router := newQuizRouter([]*entity.Question{question}, []*entity.QuizDoc{doc}, viewer)

	w := doJSON(router, http.MethodGet, "/api/quizzes/"+doc.ID+"/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
