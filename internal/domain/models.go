package domain

import "strings"

// MaxTableNameLength caps table names, counted in characters.
const MaxTableNameLength = 30

// InternalCategoryPrefix marks categories that never appear in public rankings.
const InternalCategoryPrefix = "_"

// GameState is the global game phase.
type GameState string

const (
	GameWaiting    GameState = "waiting"
	GameInQuestion GameState = "in_question"
	GameInAnswers  GameState = "in_answers"
	GameInResults  GameState = "in_results"
)

// TableState is the phase of a single table.
type TableState string

const (
	TableWaitingLeader    TableState = "waiting_leader"
	TableWaitingGameStart TableState = "waiting_game_start"
	TableInQuestion       TableState = "in_question"
	TableInAnswers        TableState = "in_answers"
	TableInResults        TableState = "in_results"
)

// Role is the part a session plays at its table.
type Role string

const (
	RoleLeader   Role = "leader"
	RoleObserver Role = "observer"
)

// QuestionType distinguishes single and multiple choice questions.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
)

// Question is an immutable catalog entry. ID is its position in the catalog.
type Question struct {
	ID             int          `json:"id" yaml:"-"`
	Categories     []string     `json:"categories" yaml:"categories"`
	Type           QuestionType `json:"question_type" yaml:"question_type"`
	Prompt         string       `json:"question" yaml:"question"`
	Images         []string     `json:"images" yaml:"images"`
	AnswerImages   []string     `json:"answer_images" yaml:"answer_images"`
	Answers        []string     `json:"answers" yaml:"answers"`
	CorrectAnswers []int        `json:"correct_answers" yaml:"correct_answers"`
	Score          float64      `json:"score" yaml:"score"`
	Timer          float64      `json:"timer" yaml:"timer"`
}

// IsPublicCategory reports whether a category takes part in public rankings.
func IsPublicCategory(category string) bool {
	return !strings.HasPrefix(category, InternalCategoryPrefix)
}

// QuestionView is the wire form of the active question.
type QuestionView struct {
	Question
	TimeLeft float64 `json:"time_left"`
}

// TableData is the per-table summary shown on screens.
type TableData struct {
	TableID      int        `json:"table_id"`
	TableName    *string    `json:"table_name"`
	TableState   TableState `json:"table_state"`
	Clients      int        `json:"clients"`
	TableAnswers []int      `json:"table_answers"`
	Answered     bool       `json:"answered"`
}

// TableResult is a table's public result used in screen rankings.
type TableResult struct {
	TableID    int                `json:"table_id"`
	TableName  *string            `json:"table_name"`
	Score      float64            `json:"score"`
	Categories map[string]float64 `json:"categories"`
	Answers    map[int][]int      `json:"answers"`
}

// ToTableResult is the result view a table's own sessions receive.
type ToTableResult struct {
	Score           float64            `json:"score"`
	QuestionScore   map[int]float64    `json:"question_score"`
	Categories      map[string]float64 `json:"categories"`
	Answers         map[int][]int      `json:"answers"`
	Questions       []QuestionView     `json:"questions"`
	Place           *int               `json:"place"`
	PlaceCategories map[string]*int    `json:"place_categories"`
	PlaceAmount     int                `json:"place_amount"`
}

// ScreenResults holds the podium and category winners. The "winers" key is
// what deployed front ends read.
type ScreenResults struct {
	Winners         []TableResult           `json:"winers"`
	CategoryWinners map[string]*TableResult `json:"category_winners"`
}
