package app

import (
	"time"

	"event-trivia-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Cursor walks the question catalog one step at a time and tracks each
// question's countdown.
type Cursor struct {
	questions  []domain.Question
	categories []string
	index      int // -1 until the first Advance
	started    []time.Time
	clock      clockwork.Clock
}

func NewCursor(questions []domain.Question, clock clockwork.Clock) *Cursor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cursor{
		questions:  questions,
		categories: domain.CatalogCategories(questions),
		index:      -1,
		started:    make([]time.Time, len(questions)),
		clock:      clock,
	}
}

// Current returns the active question, or false before the first Advance.
func (c *Cursor) Current() (domain.Question, bool) {
	if c.index < 0 {
		return domain.Question{}, false
	}
	return c.questions[c.index], true
}

// Index returns the cursor position, or false before the first Advance.
func (c *Cursor) Index() (int, bool) {
	return c.index, c.index >= 0
}

// Advance moves to the next question.
func (c *Cursor) Advance() (domain.Question, error) {
	if c.index+1 >= len(c.questions) {
		return domain.Question{}, domain.ErrLastQuestion
	}
	c.index++
	return c.questions[c.index], nil
}

// Retreat moves to the previous question.
func (c *Cursor) Retreat() (domain.Question, error) {
	if c.index <= 0 {
		return domain.Question{}, domain.ErrFirstQuestion
	}
	c.index--
	return c.questions[c.index], nil
}

// StartTimer restarts the countdown of the current question.
func (c *Cursor) StartTimer() {
	if c.index < 0 {
		return
	}
	c.started[c.index] = c.clock.Now()
}

// TimeLeft is the remaining time of the current question in seconds.
func (c *Cursor) TimeLeft() float64 {
	if c.index < 0 {
		return 0
	}
	return c.timeLeft(c.index, 0)
}

// TimeLeftWithGap is TimeLeft extended by gap, the cutoff used for accepting answers.
func (c *Cursor) TimeLeftWithGap(gap time.Duration) float64 {
	if c.index < 0 {
		return 0
	}
	return c.timeLeft(c.index, gap)
}

func (c *Cursor) timeLeft(i int, gap time.Duration) float64 {
	q := c.questions[i]
	if c.started[i].IsZero() {
		return q.Timer
	}
	elapsed := c.clock.Since(c.started[i]).Seconds()
	left := q.Timer - elapsed + gap.Seconds()
	if left < 0 {
		return 0
	}
	return left
}

// CurrentView returns the wire form of the active question.
func (c *Cursor) CurrentView() *domain.QuestionView {
	if c.index < 0 {
		return nil
	}
	return &domain.QuestionView{Question: c.questions[c.index], TimeLeft: c.timeLeft(c.index, 0)}
}

// Views returns the wire form of every catalog question.
func (c *Cursor) Views() []domain.QuestionView {
	out := make([]domain.QuestionView, len(c.questions))
	for i, q := range c.questions {
		out[i] = domain.QuestionView{Question: q, TimeLeft: c.timeLeft(i, 0)}
	}
	return out
}

// Categories lists the catalog categories, internal ones included.
func (c *Cursor) Categories() []string {
	return c.categories
}

func (c *Cursor) Len() int {
	return len(c.questions)
}
