package repository

import (
	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// ScoreRepository определяет методы для работы с записями таблицы лидеров
type ScoreRepository interface {
	Save(record *entity.ScoreRecord) error
	// GetTopByQuiz возвращает до limit записей для викторины в порядке
	// percentage DESC, score DESC, created_at ASC (ранняя сдача выигрывает при равенстве)
	GetTopByQuiz(quizID uint, limit int) ([]entity.ScoreRecord, error)
	// GetAllByQuiz возвращает все записи викторины в том же порядке (для экспорта)
	GetAllByQuiz(quizID uint) ([]entity.ScoreRecord, error)
}
