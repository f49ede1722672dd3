package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// Типы вопросов
const (
	QuestionTypeMultipleChoice = "multiplechoice"
	QuestionTypeTrueFalse      = "truefalse"
	QuestionTypeShortText      = "shorttext"
	QuestionTypeEssay          = "essay"
)

// Литералы правильного ответа для вопросов типа truefalse
const (
	TrueFalseLiteralTrue  = "true"
	TrueFalseLiteralFalse = "false"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос викторины.
// Это tagged variant над четырьмя типами: для каждого Type заполнены
// только релевантные вариантные поля, остальные пустые (см. Normalize).
type Question struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	QuizID uint   `gorm:"not null;index" json:"quiz_id"`
	Type   string `gorm:"size:20;not null" json:"type"`
	Prompt string `gorm:"size:500;not null" json:"prompt"`
	Points int    `gorm:"not null;default:1" json:"points"`
	// Position задает порядок отображения и позиционное сопоставление ответов при сдаче
	Position int `gorm:"not null;default:0" json:"position"`

	// multiplechoice
	Options StringArray `gorm:"type:jsonb" json:"-"`
	// CorrectOption - указатель, чтобы отличать "индекс отсутствует" от валидного индекса 0
	CorrectOption *int `json:"-"`

	// truefalse: литерал "true" или "false" (строка, не bool)
	CorrectAnswer string `gorm:"size:10" json:"-"`

	// shorttext / essay
	AcceptableAnswers StringArray `gorm:"type:jsonb" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// Validate проверяет вопрос по правилам его типа.
// Возвращает ошибку, обернутую в apperrors.ErrValidation, с указанием поля.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", apperrors.ErrValidation)
	}

	switch q.Type {
	case QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: multiple choice needs at least 2 options", apperrors.ErrValidation)
		}
		for i, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: option #%d is empty", apperrors.ErrValidation, i+1)
			}
		}
		if q.CorrectOption == nil {
			return fmt.Errorf("%w: correct_option is required", apperrors.ErrValidation)
		}
		if *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("%w: correct_option %d is out of range", apperrors.ErrValidation, *q.CorrectOption)
		}
	case QuestionTypeTrueFalse:
		if q.CorrectAnswer != TrueFalseLiteralTrue && q.CorrectAnswer != TrueFalseLiteralFalse {
			return fmt.Errorf("%w: correct_answer must be %q or %q", apperrors.ErrValidation, TrueFalseLiteralTrue, TrueFalseLiteralFalse)
		}
	case QuestionTypeShortText, QuestionTypeEssay:
		if len(q.AcceptableAnswers) == 0 {
			return fmt.Errorf("%w: %s needs acceptable_answers", apperrors.ErrValidation, q.Type)
		}
		for i, ans := range q.AcceptableAnswers {
			if strings.TrimSpace(ans) == "" {
				return fmt.Errorf("%w: acceptable answer #%d is empty", apperrors.ErrValidation, i+1)
			}
		}
	default:
		return fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, q.Type)
	}

	return nil
}

// Normalize приводит вопрос к каноническому виду: обрезает prompt,
// подставляет 1 вместо отсутствующих/неположительных points и обнуляет
// вариантные поля, не относящиеся к типу вопроса.
// Политика points: неположительные значения молча заменяются дефолтом,
// а не отклоняются (как при добавлении вопроса в исходной системе).
func (q *Question) Normalize() {
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Points <= 0 {
		q.Points = 1
	}

	if q.Type != QuestionTypeMultipleChoice {
		q.Options = nil
		q.CorrectOption = nil
	}
	if q.Type != QuestionTypeTrueFalse {
		q.CorrectAnswer = ""
	}
	if q.Type != QuestionTypeShortText && q.Type != QuestionTypeEssay {
		q.AcceptableAnswers = nil
	}
}

// IsCorrectChoice проверяет, совпадает ли выбранный индекс с правильным
func (q *Question) IsCorrectChoice(selectedOption int) bool {
	return q.CorrectOption != nil && selectedOption == *q.CorrectOption
}

// IsCorrectLiteral проверяет буквальное совпадение ответа truefalse (с учетом регистра)
func (q *Question) IsCorrectLiteral(answer string) bool {
	return answer == q.CorrectAnswer
}

// MatchesAcceptable проверяет текстовый ответ по списку допустимых.
// Ответ участника обрезается и приводится к нижнему регистру; допустимые
// ответы приводятся к нижнему регистру без обрезки пробелов внутри.
func (q *Question) MatchesAcceptable(answer string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	for _, acceptable := range q.AcceptableAnswers {
		if strings.ToLower(acceptable) == normalized {
			return true
		}
	}
	return false
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
