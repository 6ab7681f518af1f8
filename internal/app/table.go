package app

import (
	"slices"
	"unicode/utf8"

	"event-trivia-service/internal/domain"
)

// Table is one team: a leader, a FIFO queue of observers, the answers being
// prepared for the active question and the running result.
//
// Every method expects the owning Game's lock to be held.
type Table struct {
	game      *Game
	id        int
	state     domain.TableState
	name      *string
	leader    *Client
	observers []*Client
	answers   []int
	answered  bool
	result    *domain.Result
}

func newTable(g *Game, id int) *Table {
	return &Table{
		game:    g,
		id:      id,
		state:   domain.TableWaitingLeader,
		answers: []int{},
		result:  domain.NewResult(),
	}
}

func (t *Table) ID() int {
	return t.id
}

// addClient seats c: as leader when the seat is free, otherwise at the back of
// the observer queue.
func (t *Table) addClient(c *Client) {
	c.table = t
	if t.leader == nil {
		t.leader = c
		c.role = domain.RoleLeader
		if t.state == domain.TableWaitingLeader {
			t.state = domain.TableWaitingGameStart
		}
		return
	}
	c.role = domain.RoleObserver
	t.observers = append(t.observers, c)
}

// removeClient detaches c. When c led the table the oldest observer takes
// over and is returned so the caller can tell them.
func (t *Table) removeClient(c *Client) *Client {
	if t.leader == c {
		c.table = nil
		t.leader = nil
		if len(t.observers) == 0 {
			if t.state == domain.TableWaitingGameStart {
				t.state = domain.TableWaitingLeader
			}
			return nil
		}
		next := t.observers[0]
		t.observers = slices.Delete(t.observers, 0, 1)
		next.role = domain.RoleLeader
		t.leader = next
		return next
	}
	if i := slices.Index(t.observers, c); i >= 0 {
		t.observers = slices.Delete(t.observers, i, i+1)
		c.table = nil
	}
	return nil
}

// changeLeader hands the table to the oldest observer and sends the current
// leader to the back of the queue. A leader whose connection is gone is
// dropped instead.
func (t *Table) changeLeader() {
	old := t.leader
	if old == nil {
		return
	}
	if !old.Alive() {
		t.removeClient(old)
		old.Close()
		return
	}
	if len(t.observers) == 0 {
		return
	}
	t.removeClient(old)
	old.table = t
	old.role = domain.RoleObserver
	t.observers = append(t.observers, old)
}

func (t *Table) setName(name string) error {
	if utf8.RuneCountInString(name) > domain.MaxTableNameLength {
		return domain.ErrNameTooLong
	}
	t.name = &name
	return nil
}

// checkAnswerWindow reports whether answers for the active question are still accepted.
func (t *Table) checkAnswerWindow() error {
	if t.state != domain.TableInQuestion {
		return domain.ErrNotInQuestion
	}
	cursor := t.game.cursor
	if _, ok := cursor.Current(); !ok {
		return domain.ErrNoCurrentQuestion
	}
	if cursor.TimeLeftWithGap(t.game.answerGap) <= 0 {
		return domain.ErrTimeIsUp
	}
	return nil
}

// setAnswers stores the leader's provisional selection. Nothing is scored.
func (t *Table) setAnswers(answers []int) error {
	if err := t.checkAnswerWindow(); err != nil {
		return err
	}
	if t.answered {
		return domain.ErrAlreadyAnswered
	}
	t.answers = slices.Clone(answers)
	return nil
}

// answerQuestion commits answers for the active question and scores them. A
// question revisited with previous/next may be answered again.
func (t *Table) answerQuestion(answers []int) (float64, error) {
	if err := t.checkAnswerWindow(); err != nil {
		return 0, err
	}
	if t.answered {
		return 0, domain.ErrAlreadyAnswered
	}
	q, _ := t.game.cursor.Current()
	score := t.result.Record(q, answers)
	t.answers = slices.Clone(answers)
	t.answered = true
	return score, nil
}

func (t *Table) startGame() {
	t.state = domain.TableInQuestion
}

func (t *Table) showAnswers() error {
	if t.state != domain.TableInQuestion {
		return domain.ErrNotInQuestion
	}
	t.state = domain.TableInAnswers
	t.answered = false
	return nil
}

func (t *Table) updateQuestion() {
	t.state = domain.TableInQuestion
	t.answers = []int{}
	t.answered = false
}

func (t *Table) showResult() {
	t.state = domain.TableInResults
	t.answered = false
}

// reset closes every connection and returns the table to a fresh state.
func (t *Table) reset() {
	t.state = domain.TableWaitingLeader
	if t.leader != nil {
		t.leader.table = nil
		t.leader.Close()
		t.leader = nil
	}
	for _, o := range t.observers {
		o.table = nil
		o.Close()
	}
	t.observers = nil
	t.answers = []int{}
	t.answered = false
	t.name = nil
	t.result = domain.NewResult()
}

// clientsCount counts the seated sessions. A leaderless table reports zero.
func (t *Table) clientsCount() int {
	if t.leader == nil {
		return 0
	}
	return len(t.observers) + 1
}

func (t *Table) data() domain.TableData {
	return domain.TableData{
		TableID:      t.id,
		TableName:    t.name,
		TableState:   t.state,
		Clients:      t.clientsCount(),
		TableAnswers: slices.Clone(t.answers),
		Answered:     t.answered,
	}
}

// publicResult is the table's entry in screen rankings, or nil before results.
func (t *Table) publicResult() *domain.TableResult {
	if t.state != domain.TableInResults {
		return nil
	}
	r := t.result.Clone()
	return &domain.TableResult{
		TableID:    t.id,
		TableName:  t.name,
		Score:      r.Score,
		Categories: r.PublicCategories(),
		Answers:    r.Answers,
	}
}

// rankedResult is the result view the table's own sessions see once results are shown.
func (t *Table) rankedResult() *domain.ToTableResult {
	if t.state != domain.TableInResults {
		return nil
	}
	r := t.result.Clone()
	return &domain.ToTableResult{
		Score:           r.Score,
		QuestionScore:   r.QuestionScore,
		Categories:      r.PublicCategories(),
		Answers:         r.Answers,
		Questions:       t.game.cursor.Views(),
		Place:           t.game.tablePlace(t),
		PlaceCategories: t.game.tablePlaceCategories(t),
		PlaceAmount:     t.game.rankedTableCount(),
	}
}

func (t *Table) event(role domain.Role) domain.TableEvent {
	return domain.TableEvent{
		EventType: domain.EventTable,
		TableData: t.data(),
		Role:      role,
		Question:  t.game.cursor.CurrentView(),
		Result:    t.rankedResult(),
	}
}

func (t *Table) snapshot() domain.TableSnapshot {
	r := t.result.Clone()
	return domain.TableSnapshot{
		ID:             t.id,
		Name:           t.name,
		State:          t.state,
		Leader:         t.leader != nil,
		ObserversCount: len(t.observers),
		TableAnswers:   slices.Clone(t.answers),
		Answered:       t.answered,
		Result: domain.ResultSnapshot{
			Score:         r.Score,
			QuestionScore: r.QuestionScore,
			Categories:    r.Categories,
			Answers:       r.Answers,
		},
	}
}

// clients lists the seated sessions, observers first.
func (t *Table) clients() []*Client {
	out := slices.Clone(t.observers)
	if t.leader != nil {
		out = append(out, t.leader)
	}
	return out
}
