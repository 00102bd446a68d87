package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	"github.com/yourusername/quizhost-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
)

// Политики обращения с викториной, ссылающейся на отсутствующий вопрос
const (
	// MissingQuestionPartial - пропустить неразрешенные id и отдать частичную викторину
	MissingQuestionPartial = "partial"
	// MissingQuestionStrict - считать отсутствие вопроса ошибкой целостности
	MissingQuestionStrict = "strict"
)

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository

	missingQuestionPolicy string
	viewCacheTTL          time.Duration
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	missingQuestionPolicy string,
	viewCacheTTL time.Duration,
) *QuizService {
	if missingQuestionPolicy == "" {
		missingQuestionPolicy = MissingQuestionPartial
	}
	return &QuizService{
		quizRepo:              quizRepo,
		questionRepo:          questionRepo,
		cacheRepo:             cacheRepo,
		missingQuestionPolicy: missingQuestionPolicy,
		viewCacheTTL:          viewCacheTTL,
	}
}

// loadQuiz загружает хранимый документ и разрешает его вопросы в агрегат.
// Гонка чтения после записи (викторина ссылается на еще не записанный вопрос)
// обрабатывается по настроенной политике: partial пропускает, strict падает.
func (s *QuizService) loadQuiz(quizID string) (*entity.Quiz, error) {
	doc, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.GetByIDs(doc.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve questions for quiz %s: %w", quizID, err)
	}

	if len(questions) < len(doc.QuestionIDs) && s.missingQuestionPolicy == MissingQuestionStrict {
		resolved := make(map[string]bool, len(questions))
		for _, q := range questions {
			resolved[q.ID] = true
		}
		for _, qid := range doc.QuestionIDs {
			if !resolved[qid] {
				return nil, fmt.Errorf("quiz %s references missing question %s", quizID, qid)
			}
		}
	}

	return entity.AssembleQuiz(doc.ID, doc.Name, questions, doc.PlayerAccess, doc.FullAccess, doc.Props), nil
}

func viewCacheKey(quizID string) string {
	return fmt.Sprintf("quiz:view:%s:player", quizID)
}

// GetProjectedQuiz возвращает проекцию викторины для посетителя.
// Решение по доступу принимается до выдачи содержимого; отказ превращается
// в AccessDeniedError с причиной политики. Кешируются только игровые
// проекции: они не зависят от посетителя и не содержат ключа ответов.
func (s *QuizService) GetProjectedQuiz(quizID string, viewer *entity.User, view entity.ViewKind) (entity.JSONMap, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	if granted, reason := quiz.CheckAccess(viewer, view); !granted {
		return nil, &apperrors.AccessDeniedError{Reason: reason}
	}

	playerView := view != entity.ViewFull

	if playerView {
		var cached entity.JSONMap
		if err := s.cacheRepo.GetJSON(viewCacheKey(quizID), &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuizService] Ошибка чтения кеша для quiz=%s: %v", quizID, err)
		}
	}

	projection, err := quiz.Projection(playerView)
	if err != nil {
		return nil, err
	}

	if playerView {
		if err := s.cacheRepo.SetJSON(viewCacheKey(quizID), projection, s.viewCacheTTL); err != nil {
			log.Printf("[QuizService] Ошибка записи кеша для quiz=%s: %v", quizID, err)
		}
	}

	return projection, nil
}

// CheckAnswers сверяет присланные ответы; доступ гейтится игровой политикой,
// как и выдача игрового вида.
func (s *QuizService) CheckAnswers(quizID string, viewer *entity.User, submitted map[string]int) (map[string]bool, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	if granted, reason := quiz.CheckAccess(viewer, entity.ViewPlayer); !granted {
		return nil, &apperrors.AccessDeniedError{Reason: reason}
	}

	return quiz.CheckAnswers(submitted), nil
}

// ListQuizzes возвращает хранимые документы всех викторин
func (s *QuizService) ListQuizzes() ([]entity.QuizDoc, error) {
	return s.quizRepo.List()
}

// CreateQuestion создает вопрос и записывает его в хранилище.
// При replace существующий вопрос с тем же id перезаписывается.
func (s *QuizService) CreateQuestion(text string, variants []string, ans int, props entity.JSONMap, replace bool) (*entity.Question, error) {
	question, err := entity.NewQuestion(text, variants, ans, props)
	if err != nil {
		return nil, err
	}

	if err := s.questionRepo.Upsert(question, replace); err != nil {
		return nil, fmt.Errorf("failed to upsert question: %w", err)
	}

	// Вопрос мог войти в уже закешированные проекции; дешевле инвалидации
	// по зависимостям здесь нет, кеш истечет по TTL
	return question, nil
}

// CreateQuiz создает викторину из уже существующих вопросов и записывает
// ее durable-форму. Кешированная игровая проекция инвалидируется.
func (s *QuizService) CreateQuiz(name string, questionIDs []string, playerAccess, fullAccess entity.AccessPolicy, props entity.JSONMap, replace bool) (*entity.QuizDoc, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}

	questions, err := s.questionRepo.GetByIDs(questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve questions: %w", err)
	}
	if len(questions) < len(questionIDs) && s.missingQuestionPolicy == MissingQuestionStrict {
		return nil, fmt.Errorf("%w: quiz references unknown questions", apperrors.ErrValidation)
	}

	quiz := entity.NewQuiz(name, questions, playerAccess, fullAccess, props)
	doc := quiz.StorageDoc()

	if err := s.quizRepo.Upsert(doc, replace); err != nil {
		return nil, fmt.Errorf("failed to upsert quiz: %w", err)
	}

	if err := s.cacheRepo.Delete(viewCacheKey(doc.ID)); err != nil {
		log.Printf("[QuizService] Ошибка инвалидации кеша для quiz=%s: %v", doc.ID, err)
	}

	log.Printf("[QuizService] Записана викторина id=%s name=%q, вопросов: %d", doc.ID, doc.Name, quiz.Len())
	return doc, nil
}

// ExportQuizQuestions возвращает полный вид викторины для выгрузки в xlsx.
// Доступ гейтится полной политикой: выгрузка содержит ключ ответов.
func (s *QuizService) ExportQuizQuestions(quizID string, viewer *entity.User) (*entity.Quiz, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	if granted, reason := quiz.CheckAccess(viewer, entity.ViewFull); !granted {
		return nil, &apperrors.AccessDeniedError{Reason: reason}
	}

	return quiz, nil
}
