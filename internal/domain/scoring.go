package domain

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// F1Score awards maxScore scaled by the F1 measure between the correct and the
// submitted option sets, rounded to two decimals. No overlap scores zero.
func F1Score(correct, submitted []int, maxScore float64) float64 {
	a := toSet(correct)
	r := toSet(submitted)

	tp := 0
	for idx := range r {
		if _, ok := a[idx]; ok {
			tp++
		}
	}
	if tp == 0 {
		return 0
	}

	precision := float64(tp) / float64(len(r))
	recall := float64(tp) / float64(len(a))
	f1 := 2 * precision * recall / (precision + recall)

	return decimal.NewFromFloat(maxScore * f1).Round(2).InexactFloat64()
}

func toSet(values []int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Result accumulates a table's answers and scores over a game.
type Result struct {
	Score         float64
	QuestionScore map[int]float64
	Categories    map[string]float64
	Answers       map[int][]int
}

func NewResult() *Result {
	return &Result{
		QuestionScore: make(map[int]float64),
		Categories:    make(map[string]float64),
		Answers:       make(map[int][]int),
	}
}

// Answered reports whether a score was already recorded for the question.
func (r *Result) Answered(questionID int) bool {
	_, ok := r.Answers[questionID]
	return ok
}

// Record scores answers against q and adds the award to the running totals.
// Recording a question again replaces its earlier award.
func (r *Result) Record(q Question, answers []int) float64 {
	if prev, ok := r.QuestionScore[q.ID]; ok {
		r.Score = roundScore(r.Score - prev)
		for _, category := range q.Categories {
			r.Categories[category] = roundScore(r.Categories[category] - prev)
		}
	}
	score := F1Score(q.CorrectAnswers, answers, q.Score)

	r.Answers[q.ID] = slices.Clone(answers)
	r.QuestionScore[q.ID] = score
	r.Score = roundScore(r.Score + score)
	for _, category := range q.Categories {
		r.Categories[category] = roundScore(r.Categories[category] + score)
	}
	return score
}

// PublicCategories returns a copy of the category totals without internal categories.
func (r *Result) PublicCategories() map[string]float64 {
	out := make(map[string]float64, len(r.Categories))
	for category, score := range r.Categories {
		if IsPublicCategory(category) {
			out[category] = score
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r *Result) Clone() *Result {
	answers := make(map[int][]int, len(r.Answers))
	for id, a := range r.Answers {
		answers[id] = slices.Clone(a)
	}
	return &Result{
		Score:         r.Score,
		QuestionScore: maps.Clone(r.QuestionScore),
		Categories:    maps.Clone(r.Categories),
		Answers:       answers,
	}
}

// float sums drift; keep totals on the same two-decimal grid as single awards.
func roundScore(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
