package repository

import (
	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	GetWithQuestions(id uint) (*entity.Quiz, error)
	List(limit, offset int) ([]entity.Quiz, error)
	// AddQuestion вставляет вопрос и пересчитывает total_points викторины
	// в одной транзакции. Возвращает викторину с обновленным набором вопросов.
	AddQuestion(quizID uint, question *entity.Question) (*entity.Quiz, error)
	// RemoveQuestion удаляет вопрос и пересчитывает total_points викторины
	// в одной транзакции. Возвращает викторину с обновленным набором вопросов.
	RemoveQuestion(quizID uint, questionID uint) (*entity.Quiz, error)
}
