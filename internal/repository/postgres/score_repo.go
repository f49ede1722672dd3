package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// Каноническая сортировка таблицы лидеров: процент, затем очки, затем ранняя сдача.
// Тройка (percentage, score, created_at) задает строгий полный порядок.
const leaderboardOrder = "percentage DESC, score DESC, created_at ASC"

// ScoreRepo реализует repository.ScoreRepository
type ScoreRepo struct {
	db *gorm.DB
}

// NewScoreRepo создает новый репозиторий записей таблицы лидеров
func NewScoreRepo(db *gorm.DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Save сохраняет новую запись результата
func (r *ScoreRepo) Save(record *entity.ScoreRecord) error {
	return r.db.Create(record).Error
}

// GetTopByQuiz возвращает до limit лучших записей для викторины
func (r *ScoreRepo) GetTopByQuiz(quizID uint, limit int) ([]entity.ScoreRecord, error) {
	var records []entity.ScoreRecord
	err := r.db.Where("quiz_id = ?", quizID).
		Order(leaderboardOrder).
		Limit(limit).
		Find(&records).Error
	// Пустой слайс - валидный результат, ErrRecordNotFound здесь не проверяем
	return records, err
}

// GetAllByQuiz возвращает все записи викторины (используется для экспорта)
func (r *ScoreRepo) GetAllByQuiz(quizID uint) ([]entity.ScoreRecord, error) {
	var records []entity.ScoreRecord
	err := r.db.Where("quiz_id = ?", quizID).
		Order(leaderboardOrder).
		Find(&records).Error
	return records, err
}
