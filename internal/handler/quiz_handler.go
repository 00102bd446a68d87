package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	"github.com/yourusername/quizhost-api/internal/handler/dto"
	"github.com/yourusername/quizhost-api/internal/middleware"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с викторинами
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CheckAnswersRequest представляет посылку ответов на проверку.
// Пустая посылка легальна: каждый вопрос викторины тогда считается
// отвеченным неверно.
type CheckAnswersRequest struct {
	Answers map[string]int `json:"answers"`
}

// CreateQuestionRequest представляет запрос на создание вопроса
type CreateQuestionRequest struct {
	Text     string         `json:"text" binding:"required,min=1,max=500"`
	Variants []string       `json:"variants" binding:"required,min=1"`
	Ans      int            `json:"ans"`
	Props    entity.JSONMap `json:"props" binding:"omitempty"`
	Replace  bool           `json:"replace"`
}

// CreateQuizRequest представляет запрос на создание викторины.
// Политики передаются в хранимой форме {"<kind>": [id, ...]}.
type CreateQuizRequest struct {
	Name         string              `json:"name" binding:"required,min=1,max=100"`
	QuestionIDs  []string            `json:"questions" binding:"omitempty"`
	PlayerAccess map[string][]string `json:"player_access" binding:"omitempty"`
	FullAccess   map[string][]string `json:"full_access" binding:"omitempty"`
	Props        entity.JSONMap      `json:"props" binding:"omitempty"`
	Replace      bool                `json:"replace"`
}

// ListQuizzes возвращает отображение id → сводка всех викторин
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	docs, err := h.quizService.ListQuizzes()
	if err != nil {
		h.handleQuizError(c, err)
		return
	}
	if len(docs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quizzes list is empty", "error_type": "not_found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizListResponse(docs))
}

// GetQuiz возвращает проекцию викторины для посетителя.
// Вид выбирается query-параметром view=player|full, по умолчанию player.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)

	var view entity.ViewKind
	switch c.DefaultQuery("view", string(entity.ViewPlayer)) {
	case string(entity.ViewPlayer):
		view = entity.ViewPlayer
	case string(entity.ViewFull):
		view = entity.ViewFull
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be 'player' or 'full'", "error_type": "validation_error"})
		return
	}

	projection, err := h.quizService.GetProjectedQuiz(quizID, middleware.Viewer(c), view)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, projection)
}

// CheckAnswers проверяет присланные ответы на вопросы викторины
func (h *QuizHandler) CheckAnswers(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)

	var req CheckAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.quizService.CheckAnswers(quizID, middleware.Viewer(c), req.Answers)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CreateQuestion создает вопрос
func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.CreateQuestion(req.Text, req.Variants, req.Ans, req.Props, req.Replace)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	// Автору возвращается полный вид созданного вопроса
	c.JSON(http.StatusCreated, question.Projection(false))
}

// CreateQuiz создает викторину из уже существующих вопросов
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.quizService.CreateQuiz(
		req.Name,
		req.QuestionIDs,
		entity.ResolveAccessPolicy(req.PlayerAccess),
		entity.ResolveAccessPolicy(req.FullAccess),
		req.Props,
		req.Replace,
	)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizDocResponse(doc))
}

// ExportQuizQuestions выгружает вопросы викторины с ключом ответов в xlsx
func (h *QuizHandler) ExportQuizQuestions(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)

	quiz, err := h.quizService.ExportQuizQuestions(quizID, middleware.Viewer(c))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", quiz.ID))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Вопросы"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"ID", "Вопрос", "Варианты", "Правильный индекс", "Правильный ответ"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков: %v", err)
	}

	for i, qid := range quiz.QuestionIDs() {
		q := quiz.Questions[qid]
		rowNum := i + 2 // Первая строка занята заголовками
		cell := fmt.Sprintf("A%d", rowNum)

		row := []interface{}{
			q.ID,
			sanitizeForExcel(q.Text),
			sanitizeForExcel(strings.Join(q.Variants, "; ")),
			q.Ans,
			sanitizeForExcel(q.Variants[q.Ans]),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] Ошибка завершения записи: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Ошибка отправки файла: %v", err)
	}
}

// sanitizeForExcel экранирует значения, которые Excel мог бы принять за формулу
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleQuizError обрабатывает ошибки викторин и возвращает соответствующие HTTP-ответы.
// Отказ политики доступа отдается как 401 с причиной — формат исходного API.
func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	var denied *apperrors.AccessDeniedError

	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusUnauthorized, gin.H{"error": denied.Reason, "error_type": "access_denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists", "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidAnswerIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
	default:
		log.Printf("[QuizHandler] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
	}
}
