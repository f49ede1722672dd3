package service

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
)

// PassPercentage - фиксированный порог прохождения викторины (в процентах)
const PassPercentage = 60

// LeaderboardLimit - максимальный размер таблицы лидеров
const LeaderboardLimit = 20

// Ключи и время жизни кеша таблицы лидеров
const (
	leaderboardCacheKeyFmt = "quiz:leaderboard:%d"
	leaderboardCacheTTL    = 30 * time.Second
)

// Сообщения результата
const (
	messagePassed = "Passed!"
	messageFailed = "Failed. Try again!"
)

// GradeResult - итог оценивания одной сдачи
type GradeResult struct {
	Score        int                  `json:"score"`
	Total        int                  `json:"total"`
	Percentage   int                  `json:"percentage"`
	Passed       bool                 `json:"passed"`
	Message      string               `json:"message"`
	Details      []entity.ScoreDetail `json:"details"`
	SavedScoreID *uint                `json:"saved_score_id"`
	Username     string               `json:"username,omitempty"`
}

// GradingService оценивает сдачи и ведет таблицу лидеров
type GradingService struct {
	quizRepo  repository.QuizRepository
	scoreRepo repository.ScoreRepository
	cacheRepo repository.CacheRepository
}

// NewGradingService создает новый сервис оценивания
func NewGradingService(
	quizRepo repository.QuizRepository,
	scoreRepo repository.ScoreRepository,
	cacheRepo repository.CacheRepository,
) *GradingService {
	return &GradingService{
		quizRepo:  quizRepo,
		scoreRepo: scoreRepo,
		cacheRepo: cacheRepo,
	}
}

// Grade оценивает упорядоченный список сырых ответов против викторины.
// Чистая функция: без побочных эффектов и обращений к хранилищу,
// детерминирована для одинаковых (викторина, ответы).
// Ответ сопоставляется вопросу позиционно; отсутствующий или
// нечитаемый ответ засчитывается как неверный, а не как ошибка.
func (s *GradingService) Grade(quiz *entity.Quiz, answers []json.RawMessage) *GradeResult {
	score := 0
	details := make([]entity.ScoreDetail, 0, len(quiz.Questions))

	for i := range quiz.Questions {
		q := &quiz.Questions[i]

		var raw json.RawMessage
		if i < len(answers) {
			raw = answers[i]
		}

		isCorrect := gradeAnswer(q, raw)

		pointsEarned := 0
		if isCorrect {
			pointsEarned = q.Points
			score += q.Points
		}

		details = append(details, entity.ScoreDetail{
			QuestionID:   q.ID,
			Type:         q.Type,
			IsCorrect:    isCorrect,
			PointsEarned: pointsEarned,
		})
	}

	total := quiz.TotalPoints
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}

	passed := percentage >= PassPercentage
	message := messageFailed
	if passed {
		message = messagePassed
	}

	return &GradeResult{
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Passed:     passed,
		Message:    message,
		Details:    details,
	}
}

// gradeAnswer применяет правило сопоставления для типа вопроса
func gradeAnswer(q *entity.Question, raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	switch q.Type {
	case entity.QuestionTypeMultipleChoice:
		idx, ok := decodeIntAnswer(raw)
		return ok && q.IsCorrectChoice(idx)
	case entity.QuestionTypeTrueFalse:
		var answer string
		if err := json.Unmarshal(raw, &answer); err != nil {
			return false
		}
		return q.IsCorrectLiteral(answer)
	case entity.QuestionTypeShortText, entity.QuestionTypeEssay:
		var answer string
		if err := json.Unmarshal(raw, &answer); err != nil {
			return false
		}
		return q.MatchesAcceptable(answer)
	default:
		return false
	}
}

// decodeIntAnswer интерпретирует сырой ответ как целое число.
// Принимает JSON число без дробной части и строку с целым числом.
func decodeIntAnswer(raw json.RawMessage) (int, bool) {
	var num json.Number
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&num); err == nil {
		if v, err := num.Int64(); err == nil {
			return int(v), true
		}
		return 0, false
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return v, true
		}
	}

	return 0, false
}

// Submit оценивает сдачу и, если указано непустое имя, пытается записать
// результат в таблицу лидеров. Сбой записи не проваливает оценивание:
// ошибка логируется, ответ уходит с saved_score_id = null.
func (s *GradingService) Submit(quizID uint, answers []json.RawMessage, username string) (*GradeResult, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}

	result := s.Grade(quiz, answers)

	username = strings.TrimSpace(username)
	if username == "" {
		return result, nil
	}
	result.Username = username

	record := &entity.ScoreRecord{
		QuizID:     quiz.ID,
		Username:   username,
		Score:      result.Score,
		Total:      result.Total,
		Percentage: result.Percentage,
		Details:    entity.ScoreDetailArray(result.Details),
	}

	if err := s.scoreRepo.Save(record); err != nil {
		// Запись в таблицу лидеров - best-effort: оценивание уже состоялось
		log.Printf("[GradingService] Не удалось сохранить результат для викторины #%d (username=%s): %v", quizID, username, err)
		return result, nil
	}

	result.SavedScoreID = &record.ID
	s.invalidateLeaderboard(quizID)

	return result, nil
}

// GetLeaderboard возвращает до LeaderboardLimit лучших результатов викторины.
// Расшифровка по вопросам в эту выборку не входит.
func (s *GradingService) GetLeaderboard(quizID uint) ([]entity.ScoreRecord, error) {
	cacheKey := fmt.Sprintf(leaderboardCacheKeyFmt, quizID)

	if s.cacheRepo != nil {
		var cached []entity.ScoreRecord
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	records, err := s.scoreRepo.GetTopByQuiz(quizID, LeaderboardLimit)
	if err != nil {
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(cacheKey, records, leaderboardCacheTTL); err != nil {
			log.Printf("[GradingService] Ошибка записи кеша таблицы лидеров для викторины #%d: %v", quizID, err)
		}
	}

	return records, nil
}

// GetAllScores возвращает все результаты викторины (для экспорта).
// Проверяет существование викторины, чтобы экспорт несуществующей отдавал 404.
func (s *GradingService) GetAllScores(quizID uint) ([]entity.ScoreRecord, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, err
	}

	records, err := s.scoreRepo.GetAllByQuiz(quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for quiz #%d: %w", quizID, err)
	}
	return records, nil
}

// invalidateLeaderboard сбрасывает кеш таблицы лидеров после новой записи
func (s *GradingService) invalidateLeaderboard(quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(fmt.Sprintf(leaderboardCacheKeyFmt, quizID)); err != nil {
		log.Printf("[GradingService] Ошибка инвалидации кеша таблицы лидеров для викторины #%d: %v", quizID, err)
	}
}
