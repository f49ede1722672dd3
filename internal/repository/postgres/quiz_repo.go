package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// orderedQuestions применяет каноническую сортировку вопросов (по позиции вставки)
func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// Create создает новую викторину.
// Дубликат названия (unique violation 23505) возвращается как ErrConflict.
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	if err := r.db.Create(quiz).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: quiz title already exists", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID возвращает викторину по ID без вопросов
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами в порядке вставки
func (r *QuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Preload("Questions", orderedQuestions).First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// List возвращает список викторин с пагинацией
func (r *QuizRepo) List(limit, offset int) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.Preload("Questions", orderedQuestions).
		Limit(limit).Offset(offset).Order("id DESC").Find(&quizzes).Error
	return quizzes, err
}

// AddQuestion вставляет вопрос и пересчитывает total_points в одной транзакции.
// Никакое промежуточное состояние, где список вопросов и сумма расходятся,
// не видно снаружи транзакции.
func (r *QuizRepo) AddQuestion(quizID uint, question *entity.Question) (*entity.Quiz, error) {
	var quiz entity.Quiz

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Questions", orderedQuestions).First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		question.QuizID = quiz.ID
		question.Position = quiz.NextPosition()

		if err := tx.Create(question).Error; err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}

		quiz.Questions = append(quiz.Questions, *question)
		quiz.RecomputeTotalPoints()

		return tx.Model(&entity.Quiz{}).
			Where("id = ?", quiz.ID).
			Update("total_points", quiz.TotalPoints).
			Error
	})
	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// RemoveQuestion удаляет вопрос и пересчитывает total_points в одной транзакции.
// Порядок оставшихся вопросов сохраняется.
func (r *QuizRepo) RemoveQuestion(quizID uint, questionID uint) (*entity.Quiz, error) {
	var quiz entity.Quiz

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Questions", orderedQuestions).First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		_, idx := quiz.QuestionByID(questionID)
		if idx < 0 {
			return fmt.Errorf("%w: question #%d not found in quiz #%d", apperrors.ErrNotFound, questionID, quizID)
		}

		if err := tx.Delete(&entity.Question{}, questionID).Error; err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}

		quiz.Questions = append(quiz.Questions[:idx], quiz.Questions[idx+1:]...)
		quiz.RecomputeTotalPoints()

		return tx.Model(&entity.Quiz{}).
			Where("id = ?", quiz.ID).
			Update("total_points", quiz.TotalPoints).
			Error
	})
	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
