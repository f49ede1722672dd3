package entity

import (
	"time"
)

// Quiz представляет викторину с упорядоченным набором вопросов
type Quiz struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:100;not null;uniqueIndex:idx_quizzes_title" json:"title"`
	Description string `gorm:"size:500;not null;default:''" json:"description"`
	// TotalPoints - производное поле: всегда равно сумме points по вопросам.
	// Пересчитывается в одной транзакции с каждым изменением набора вопросов
	// и никогда не задается независимо.
	TotalPoints int        `gorm:"not null;default:0" json:"total_points"`
	Questions   []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// SumPoints возвращает сумму очков по всем вопросам викторины
func (q *Quiz) SumPoints() int {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].Points
	}
	return total
}

// RecomputeTotalPoints пересчитывает TotalPoints из текущего набора вопросов
func (q *Quiz) RecomputeTotalPoints() {
	q.TotalPoints = q.SumPoints()
}

// QuestionByID ищет вопрос по ID, возвращает вопрос и его индекс (-1 если не найден)
func (q *Quiz) QuestionByID(questionID uint) (*Question, int) {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return &q.Questions[i], i
		}
	}
	return nil, -1
}

// NextPosition возвращает позицию для следующего добавляемого вопроса
func (q *Quiz) NextPosition() int {
	maxPos := -1
	for i := range q.Questions {
		if q.Questions[i].Position > maxPos {
			maxPos = q.Questions[i].Position
		}
	}
	return maxPos + 1
}
