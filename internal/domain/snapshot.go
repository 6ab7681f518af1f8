package domain

import "time"

// GameSnapshot is the full-state dump persisted whenever results are shown.
type GameSnapshot struct {
	State                GameState             `json:"state"`
	Tables               map[int]TableSnapshot `json:"tables"`
	Questions            []QuestionView        `json:"questions"`
	CurrentQuestionIndex *int                  `json:"current_question_index"`
	Categories           []string              `json:"categories"`
	TakenAt              time.Time             `json:"taken_at"`
}

type TableSnapshot struct {
	ID             int            `json:"id"`
	Name           *string        `json:"name"`
	State          TableState     `json:"state"`
	Leader         bool           `json:"leader"`
	ObserversCount int            `json:"observers_count"`
	TableAnswers   []int          `json:"table_answers"`
	Answered       bool           `json:"answered"`
	Result         ResultSnapshot `json:"result"`
}

type ResultSnapshot struct {
	Score         float64            `json:"score"`
	QuestionScore map[int]float64    `json:"question_score"`
	Categories    map[string]float64 `json:"categories"`
	Answers       map[int][]int      `json:"answers"`
}
