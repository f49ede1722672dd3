package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// Ключи и время жизни кеша take-view
const (
	takeViewCacheKeyFmt = "quiz:take:%d"
	takeViewCacheTTL    = 5 * time.Minute
)

// TakeQuestionView - вопрос в проекции для прохождения: без полей,
// раскрывающих правильный ответ. Options включаются только для multiplechoice.
type TakeQuestionView struct {
	ID      uint     `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Points  int      `json:"points"`
	Options []string `json:"options,omitempty"`
}

// TakeQuizView - проекция викторины для прохождения
type TakeQuizView struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	TotalPoints int                `json:"total_points"`
	Questions   []TakeQuestionView `json:"questions"`
}

// QuizService предоставляет методы для работы с каталогом викторин
type QuizService struct {
	quizRepo  repository.QuizRepository
	cacheRepo repository.CacheRepository
}

// NewQuizService создает новый сервис каталога викторин
func NewQuizService(quizRepo repository.QuizRepository, cacheRepo repository.CacheRepository) *QuizService {
	return &QuizService{
		quizRepo:  quizRepo,
		cacheRepo: cacheRepo,
	}
}

// CreateQuiz создает новую пустую викторину
func (s *QuizService) CreateQuiz(title, description string) (*entity.Quiz, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	quiz := &entity.Quiz{
		Title:       title,
		Description: strings.TrimSpace(description),
		TotalPoints: 0,
	}

	if err := s.quizRepo.Create(quiz); err != nil {
		// ErrConflict (дубликат названия) пробрасываем как есть
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	return quiz, nil
}

// AddQuestion валидирует и нормализует вопрос, добавляет его в викторину и
// пересчитывает total_points. Вставка и пересчет атомарны (одна транзакция в репозитории).
func (s *QuizService) AddQuestion(quizID uint, question entity.Question) (*entity.Quiz, error) {
	if err := question.Validate(); err != nil {
		return nil, err
	}
	question.Normalize()

	quiz, err := s.quizRepo.AddQuestion(quizID, &question)
	if err != nil {
		return nil, err
	}

	s.invalidateTakeView(quizID)
	return quiz, nil
}

// RemoveQuestion удаляет вопрос из викторины с пересчетом total_points.
// Ранее записанные результаты не трогаем: исторические записи остаются
// валидными ссылками на викторину, которая с тех пор могла измениться.
func (s *QuizService) RemoveQuestion(quizID uint, questionID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.RemoveQuestion(quizID, questionID)
	if err != nil {
		return nil, err
	}

	s.invalidateTakeView(quizID)
	return quiz, nil
}

// ListQuizzes возвращает список викторин с пагинацией
func (s *QuizService) ListQuizzes(page, pageSize int) ([]entity.Quiz, error) {
	offset := (page - 1) * pageSize
	return s.quizRepo.List(pageSize, offset)
}

// GetQuizWithQuestions возвращает викторину с полными вопросами (админский доступ)
func (s *QuizService) GetQuizWithQuestions(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(quizID)
}

// GetQuizForTaking возвращает проекцию викторины для прохождения.
// correct_option, correct_answer и acceptable_answers не попадают в проекцию
// ни для одного типа вопроса. Горячие викторины отдаются из кеша.
func (s *QuizService) GetQuizForTaking(quizID uint) (*TakeQuizView, error) {
	cacheKey := fmt.Sprintf(takeViewCacheKeyFmt, quizID)

	if s.cacheRepo != nil {
		var cached TakeQuizView
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			// Ошибка кеша не фатальна, идем в БД
			log.Printf("[QuizService] Ошибка чтения кеша take-view для викторины #%d: %v", quizID, err)
		}
	}

	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}

	view := NewTakeQuizView(quiz)

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(cacheKey, view, takeViewCacheTTL); err != nil {
			log.Printf("[QuizService] Ошибка записи кеша take-view для викторины #%d: %v", quizID, err)
		}
	}

	return view, nil
}

// NewTakeQuizView строит проекцию для прохождения из полной викторины
func NewTakeQuizView(quiz *entity.Quiz) *TakeQuizView {
	questions := make([]TakeQuestionView, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		view := TakeQuestionView{
			ID:     q.ID,
			Type:   q.Type,
			Prompt: q.Prompt,
			Points: q.Points,
		}
		if q.Type == entity.QuestionTypeMultipleChoice {
			view.Options = []string(q.Options)
		}
		questions[i] = view
	}

	return &TakeQuizView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		TotalPoints: quiz.TotalPoints,
		Questions:   questions,
	}
}

// invalidateTakeView сбрасывает кеш проекции после изменения набора вопросов
func (s *QuizService) invalidateTakeView(quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(fmt.Sprintf(takeViewCacheKeyFmt, quizID)); err != nil {
		log.Printf("[QuizService] Ошибка инвалидации кеша take-view для викторины #%d: %v", quizID, err)
	}
}
