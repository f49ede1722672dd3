package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ScoreDetail - поэлементная расшифровка оценки одного вопроса
type ScoreDetail struct {
	QuestionID   uint   `json:"question_id"`
	Type         string `json:"type"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int    `json:"points_earned"`
}

// ScoreDetailArray - пользовательский тип для хранения расшифровки в JSONB
type ScoreDetailArray []ScoreDetail

// Scan реализует интерфейс sql.Scanner для ScoreDetailArray
func (d *ScoreDetailArray) Scan(value interface{}) error {
	if value == nil {
		*d = ScoreDetailArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*d = ScoreDetailArray{}
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// Value реализует интерфейс driver.Valuer для ScoreDetailArray
func (d ScoreDetailArray) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// ScoreRecord представляет запись таблицы лидеров.
// Создается ровно один раз на засчитанную сдачу с непустым именем,
// после этого не изменяется и не удаляется.
type ScoreRecord struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	QuizID     uint             `gorm:"not null;index:idx_scores_quiz" json:"quiz_id"`
	Username   string           `gorm:"size:50;not null" json:"username"`
	Score      int              `gorm:"not null;default:0" json:"score"`
	Total      int              `gorm:"not null;default:0" json:"total"`
	Percentage int              `gorm:"not null;default:0" json:"percentage"`
	Details    ScoreDetailArray `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ScoreRecord) TableName() string {
	return "scores"
}
