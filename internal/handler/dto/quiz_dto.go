package dto

import (
	"time"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// QuestionResponse представляет вопрос в админском формате (с полями ответа).
// Для публичной выдачи используется service.TakeQuizView, где этих полей нет.
type QuestionResponse struct {
	ID                uint      `json:"id"`
	QuizID            uint      `json:"quiz_id"`
	Type              string    `json:"type"`
	Prompt            string    `json:"prompt"`
	Points            int       `json:"points"`
	Position          int       `json:"position"`
	Options           []string  `json:"options,omitempty"`
	CorrectOption     *int      `json:"correct_option,omitempty"`
	CorrectAnswer     string    `json:"correct_answer,omitempty"`
	AcceptableAnswers []string  `json:"acceptable_answers,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// QuizResponse представляет викторину в формате для ответа клиенту
type QuizResponse struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	TotalPoints   int                `json:"total_points"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ScoreResponse представляет запись таблицы лидеров (без расшифровки по вопросам)
type ScoreResponse struct {
	ID         uint      `json:"id"`
	QuizID     uint      `json:"quiz_id"`
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewQuestionResponse создает админский DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:                q.ID,
		QuizID:            q.QuizID,
		Type:              q.Type,
		Prompt:            q.Prompt,
		Points:            q.Points,
		Position:          q.Position,
		Options:           []string(q.Options),
		CorrectOption:     q.CorrectOption,
		CorrectAnswer:     q.CorrectAnswer,
		AcceptableAnswers: []string(q.AcceptableAnswers),
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

// NewQuizResponse создает DTO для викторины.
// includeQuestions=true допустим только на админских маршрутах:
// DTO вопросов содержит правильные ответы.
func NewQuizResponse(quiz *entity.Quiz, includeQuestions bool) *QuizResponse {
	if quiz == nil {
		return nil
	}

	var questionsDTO []QuestionResponse
	if includeQuestions {
		questionsDTO = make([]QuestionResponse, len(quiz.Questions))
		for i := range quiz.Questions {
			questionsDTO[i] = NewQuestionResponse(&quiz.Questions[i])
		}
	}

	return &QuizResponse{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		TotalPoints:   quiz.TotalPoints,
		QuestionCount: len(quiz.Questions),
		Questions:     questionsDTO,
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}
}

// NewListQuizResponse создает слайс DTO для публичного каталога.
// Вопросы в каталог не включаются (см. NewQuizResponse).
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	list := make([]*QuizResponse, len(quizzes))
	for i := range quizzes {
		list[i] = NewQuizResponse(&quizzes[i], false)
	}
	return list
}

// NewScoreResponse создает DTO для записи таблицы лидеров
func NewScoreResponse(record *entity.ScoreRecord) *ScoreResponse {
	if record == nil {
		return nil
	}
	return &ScoreResponse{
		ID:         record.ID,
		QuizID:     record.QuizID,
		Username:   record.Username,
		Score:      record.Score,
		Total:      record.Total,
		Percentage: record.Percentage,
		CreatedAt:  record.CreatedAt,
	}
}

// NewLeaderboardResponse создает слайс DTO для таблицы лидеров
func NewLeaderboardResponse(records []entity.ScoreRecord) []*ScoreResponse {
	list := make([]*ScoreResponse, len(records))
	for i := range records {
		list[i] = NewScoreResponse(&records[i])
	}
	return list
}
