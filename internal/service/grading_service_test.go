package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// ============================================================================
// Общие моки для сервисных тестов: MockQuizRepository, MockScoreRepository,
// MockCacheRepository. Используются также в quiz_service_test.go.
// ============================================================================

// MockQuizRepository реализует repository.QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) List(limit, offset int) ([]entity.Quiz, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) AddQuestion(quizID uint, question *entity.Question) (*entity.Quiz, error) {
	args := m.Called(quizID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) RemoveQuestion(quizID uint, questionID uint) (*entity.Quiz, error) {
	args := m.Called(quizID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

// MockScoreRepository реализует repository.ScoreRepository
type MockScoreRepository struct {
	mock.Mock
}

func (m *MockScoreRepository) Save(record *entity.ScoreRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockScoreRepository) GetTopByQuiz(quizID uint, limit int) ([]entity.ScoreRecord, error) {
	args := m.Called(quizID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ScoreRecord), args.Error(1)
}

func (m *MockScoreRepository) GetAllByQuiz(quizID uint) ([]entity.ScoreRecord, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ScoreRecord), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

// helper для создания указателя на int
func intPtr(v int) *int { return &v }

// rawAnswers превращает Go-значения в список сырых JSON ответов
func rawAnswers(t *testing.T, values ...interface{}) []json.RawMessage {
	t.Helper()
	answers := make([]json.RawMessage, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		answers[i] = data
	}
	return answers
}

// mixedQuiz - викторина из примера: truefalse на 2 очка + multiplechoice на 1 очко
func mixedQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:          1,
		Title:       "Смешанная викторина",
		TotalPoints: 3,
		Questions: []entity.Question{
			{
				ID:            1,
				Type:          entity.QuestionTypeTrueFalse,
				Prompt:        "Земля плоская?",
				Points:        2,
				Position:      0,
				CorrectAnswer: entity.TrueFalseLiteralFalse,
			},
			{
				ID:            2,
				Type:          entity.QuestionTypeMultipleChoice,
				Prompt:        "2+2?",
				Points:        1,
				Position:      1,
				Options:       entity.StringArray{"3", "4", "5"},
				CorrectOption: intPtr(1),
			},
		},
	}
}

func TestGradingService_Grade_AllCorrect(t *testing.T) {
	// Arrange
	service := NewGradingService(nil, nil, nil)
	quiz := mixedQuiz()

	// Act: ["false", 1] — оба ответа верные
	result := service.Grade(quiz, rawAnswers(t, "false", 1))

	// Assert
	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 100, result.Percentage)
	assert.True(t, result.Passed)
	assert.Equal(t, "Passed!", result.Message)
	require.Len(t, result.Details, 2)
	assert.True(t, result.Details[0].IsCorrect)
	assert.Equal(t, 2, result.Details[0].PointsEarned)
	assert.True(t, result.Details[1].IsCorrect)
	assert.Equal(t, 1, result.Details[1].PointsEarned)
}

func TestGradingService_Grade_AllWrong(t *testing.T) {
	// Arrange
	service := NewGradingService(nil, nil, nil)
	quiz := mixedQuiz()

	// Act: ["true", 0] — оба ответа неверные
	result := service.Grade(quiz, rawAnswers(t, "true", 0))

	// Assert
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.Percentage)
	assert.False(t, result.Passed)
	assert.Equal(t, "Failed. Try again!", result.Message)
	assert.False(t, result.Details[0].IsCorrect)
	assert.False(t, result.Details[1].IsCorrect)
}

func TestGradingService_Grade_MissingAndExtraAnswers(t *testing.T) {
	// Arrange
	service := NewGradingService(nil, nil, nil)
	quiz := mixedQuiz()

	// Act: короче списка вопросов — недостающие засчитываются как неверные
	result := service.Grade(quiz, rawAnswers(t, "false"))

	// Assert
	assert.Equal(t, 2, result.Score)
	require.Len(t, result.Details, 2, "расшифровка покрывает все вопросы, а не только отвеченные")
	assert.False(t, result.Details[1].IsCorrect)

	// Act: длиннее списка вопросов — лишние ответы игнорируются
	result = service.Grade(quiz, rawAnswers(t, "false", 1, "мусор", 42))

	// Assert
	assert.Equal(t, 3, result.Score)
	assert.Len(t, result.Details, 2)
}

func TestGradingService_Grade_MalformedAnswerIsIncorrect(t *testing.T) {
	// Arrange
	service := NewGradingService(nil, nil, nil)
	quiz := mixedQuiz()

	// Act: объект вместо индекса — нечитаемый ответ неверен, но не ошибка
	result := service.Grade(quiz, []json.RawMessage{
		json.RawMessage(`"false"`),
		json.RawMessage(`{"option": 1}`),
	})

	// Assert
	assert.Equal(t, 2, result.Score)
	assert.False(t, result.Details[1].IsCorrect)
}

func TestGradingService_Grade_NumericStringAnswer(t *testing.T) {
	// Arrange
	service := NewGradingService(nil, nil, nil)
	quiz := mixedQuiz()

	// Act: индекс варианта в виде строки "1" тоже принимается
	result := service.Grade(quiz, rawAnswers(t, "false", "1"))

	// Assert
	assert.Equal(t, 3, result.Score)
	assert.True(t, result.Details[1].IsCorrect)
}

func TestGradingService_Grade_TextAnswerNormalization(t *testing.T) {
	// Arrange: допустимые ответы ["Paris", "paris "]
	service := NewGradingService(nil, nil, nil)
	quiz := &entity.Quiz{
		ID:          2,
		TotalPoints: 1,
		Questions: []entity.Question{
			{
				ID:                1,
				Type:              entity.QuestionTypeShortText,
				Prompt:            "Столица Франции?",
				Points:            1,
				AcceptableAnswers: entity.StringArray{"Paris", "paris "},
			},
		},
	}

	// Act: "  PARIS  " после trim+lower совпадает с "paris"
	result := service.Grade(quiz, rawAnswers(t, "  PARIS  "))

	// Assert
	assert.Equal(t, 1, result.Score)
	assert.True(t, result.Details[0].IsCorrect)
}

func TestGradingService_Grade_ZeroTotalPoints(t *testing.T) {
	// Arrange: викторина без вопросов
	service := NewGradingService(nil, nil, nil)
	quiz := &entity.Quiz{ID: 3, TotalPoints: 0}

	// Act
	result := service.Grade(quiz, nil)

	// Assert: percentage = 0 без деления на ноль, порог 60 не достигнут
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.Percentage)
	assert.False(t, result.Passed)
}

func TestGradingService_Grade_Deterministic(t *testing.T) {
	// Arrange
	service := NewGradingService(nil, nil, nil)
	quiz := mixedQuiz()
	answers := rawAnswers(t, "false", 1)

	// Act: повторное оценивание тех же ответов
	first := service.Grade(quiz, answers)
	second := service.Grade(quiz, answers)

	// Assert: результаты идентичны
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Percentage, second.Percentage)
	assert.Equal(t, first.Details, second.Details)
}

func TestGradingService_Submit_AnonymousDoesNotSave(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	service := NewGradingService(quizRepo, scoreRepo, nil)

	quizRepo.On("GetWithQuestions", uint(1)).Return(mixedQuiz(), nil)

	// Act: пустое (пробельное) имя — анонимная сдача
	result, err := service.Submit(1, rawAnswers(t, "false", 1), "   ")

	// Assert: оценка есть, записи в таблицу лидеров нет
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)
	assert.Nil(t, result.SavedScoreID)
	assert.Empty(t, result.Username)
	scoreRepo.AssertNotCalled(t, "Save", mock.Anything)
}

func TestGradingService_Submit_NamedSavesScore(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	cacheRepo := new(MockCacheRepository)
	service := NewGradingService(quizRepo, scoreRepo, cacheRepo)

	quizRepo.On("GetWithQuestions", uint(1)).Return(mixedQuiz(), nil)
	scoreRepo.On("Save", mock.MatchedBy(func(r *entity.ScoreRecord) bool {
		return r.QuizID == 1 && r.Username == "Ada" && r.Score == 3 && r.Percentage == 100
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.ScoreRecord).ID = 42
	}).Return(nil)
	cacheRepo.On("Delete", "quiz:leaderboard:1").Return(nil)

	// Act: имя с пробелами обрезается
	result, err := service.Submit(1, rawAnswers(t, "false", 1), "  Ada  ")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result.SavedScoreID)
	assert.Equal(t, uint(42), *result.SavedScoreID)
	assert.Equal(t, "Ada", result.Username)
	scoreRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestGradingService_Submit_SaveFailureDoesNotFailGrading(t *testing.T) {
	// Arrange: запись результата падает, оценивание при этом уже состоялось
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	service := NewGradingService(quizRepo, scoreRepo, nil)

	quizRepo.On("GetWithQuestions", uint(1)).Return(mixedQuiz(), nil)
	scoreRepo.On("Save", mock.Anything).Return(errors.New("db is down"))

	// Act
	result, err := service.Submit(1, rawAnswers(t, "false", 1), "Ada")

	// Assert: сдача успешна, saved_score_id = null
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)
	assert.Nil(t, result.SavedScoreID)
}

func TestGradingService_Submit_QuizNotFound(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	service := NewGradingService(quizRepo, new(MockScoreRepository), nil)

	quizRepo.On("GetWithQuestions", uint(99)).
		Return(nil, fmt.Errorf("%w: quiz with id=99 not found", apperrors.ErrNotFound))

	// Act
	result, err := service.Submit(99, nil, "")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGradingService_GetLeaderboard_CacheMiss(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	cacheRepo := new(MockCacheRepository)
	service := NewGradingService(quizRepo, scoreRepo, cacheRepo)

	records := []entity.ScoreRecord{
		{ID: 1, QuizID: 1, Username: "Ada", Score: 3, Percentage: 100},
		{ID: 2, QuizID: 1, Username: "Bob", Score: 2, Percentage: 67},
	}

	cacheRepo.On("GetJSON", "quiz:leaderboard:1", mock.Anything).
		Return(fmt.Errorf("%w: key not found", apperrors.ErrNotFound))
	scoreRepo.On("GetTopByQuiz", uint(1), LeaderboardLimit).Return(records, nil)
	cacheRepo.On("SetJSON", "quiz:leaderboard:1", records, 30*time.Second).Return(nil)

	// Act
	got, err := service.GetLeaderboard(1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, records, got)
	scoreRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestGradingService_GetAllScores_QuizNotFound(t *testing.T) {
	// Arrange: экспорт несуществующей викторины должен отдавать ErrNotFound
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	service := NewGradingService(quizRepo, scoreRepo, nil)

	quizRepo.On("GetByID", uint(7)).
		Return(nil, fmt.Errorf("%w: quiz with id=7 not found", apperrors.ErrNotFound))

	// Act
	got, err := service.GetAllScores(7)

	// Assert
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	scoreRepo.AssertNotCalled(t, "GetAllByQuiz", mock.Anything)
}
