package app

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"event-trivia-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTableCount = 8
	DefaultAnswerGap  = 2 * time.Second
)

// CatalogRepository provides the ordered question catalog.
type CatalogRepository interface {
	GetCatalog(ctx context.Context) ([]domain.Question, error)
}

// SnapshotStore persists full game snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot domain.GameSnapshot) error
}

// Game drives every table through one shared question sequence.
//
// A single mutex guards the game, its tables and the sessions' roles. Every
// command mutates state and queues its broadcasts inside that critical
// section; the network writes happen later on each session's own writer.
type Game struct {
	mu        sync.Mutex
	state     domain.GameState
	tables    []*Table
	cursor    *Cursor
	screens   []*Client
	catalog   CatalogRepository
	snapshots SnapshotStore
	clock     clockwork.Clock
	answerGap time.Duration
}

type Option func(*Game)

func WithClock(clock clockwork.Clock) Option {
	return func(g *Game) { g.clock = clock }
}

// WithAnswerGap sets how long after the countdown ends answers are still accepted.
func WithAnswerGap(gap time.Duration) Option {
	return func(g *Game) { g.answerGap = gap }
}

func WithTables(count int) Option {
	return func(g *Game) {
		g.tables = make([]*Table, 0, count)
		for id := 1; id <= count; id++ {
			g.tables = append(g.tables, newTable(g, id))
		}
	}
}

func WithSnapshotStore(store SnapshotStore) Option {
	return func(g *Game) { g.snapshots = store }
}

// NewGame loads the catalog and builds a game waiting to start.
func NewGame(ctx context.Context, catalog CatalogRepository, opts ...Option) (*Game, error) {
	questions, err := catalog.GetCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	g := &Game{
		state:     domain.GameWaiting,
		catalog:   catalog,
		clock:     clockwork.NewRealClock(),
		answerGap: DefaultAnswerGap,
	}
	WithTables(DefaultTableCount)(g)
	for _, opt := range opts {
		opt(g)
	}
	g.cursor = NewCursor(questions, g.clock)
	return g, nil
}

func (g *Game) State() domain.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) TableCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tables)
}

// HasTable reports whether id names a table of the current roster.
func (g *Game) HasTable(id int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.table(id) != nil
}

func (g *Game) table(id int) *Table {
	if id < 1 || id > len(g.tables) {
		return nil
	}
	return g.tables[id-1]
}

func (g *Game) attached(t *Table) bool {
	return g.table(t.id) == t
}

// Join seats c at the table with the given id.
func (g *Game) Join(tableID int, c *Client) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return domain.ErrTableNotFound
	}
	t.addClient(c)
	log.Info().Int("table_id", t.id).Str("client_id", c.ID).Str("role", string(c.role)).Msg("client joined table")

	g.notifyTableLocked(t)
	g.notifyScreensLocked()
	return nil
}

// Leave removes c from its table. It is a no-op for a session already detached.
func (g *Game) Leave(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := c.table
	if t == nil {
		return
	}
	t.removeClient(c)
	log.Info().Int("table_id", t.id).Str("client_id", c.ID).Msg("client left table")

	if !g.attached(t) {
		return
	}
	g.notifyTableLocked(t)
	g.notifyScreensLocked()
}

// AddScreen registers a spectator and sends it the current state.
func (g *Game) AddScreen(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.screens = append(g.screens, c)
	log.Info().Str("client_id", c.ID).Int("screens", len(g.screens)).Msg("screen connected")
	g.deliverLocked([]*Client{c}, g.screenStateLocked())
}

func (g *Game) RemoveScreen(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeScreenLocked(c)
}

func (g *Game) removeScreenLocked(c *Client) {
	g.screens = slices.DeleteFunc(g.screens, func(s *Client) bool { return s == c })
}

// Start asks the first question at every table.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startLocked()
}

func (g *Game) startLocked() error {
	if g.state != domain.GameWaiting {
		return domain.ErrGameStarted
	}
	if _, err := g.cursor.Advance(); err != nil {
		return err
	}
	g.cursor.StartTimer()
	g.state = domain.GameInQuestion
	for _, t := range g.tables {
		t.startGame()
	}
	g.broadcastLocked()
	log.Info().Int("tables", len(g.tables)).Int("questions", g.cursor.Len()).Msg("game started")
	return nil
}

// ShowAnswers reveals the correct answers of the active question.
func (g *Game) ShowAnswers() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.showAnswersLocked()
}

func (g *Game) showAnswersLocked() error {
	if g.state != domain.GameInQuestion {
		return domain.GameStateError("show answers", g.state)
	}
	g.state = domain.GameInAnswers
	for _, t := range g.tables {
		if t.state != domain.TableInQuestion {
			continue
		}
		if err := t.showAnswers(); err != nil {
			log.Warn().Err(err).Int("table_id", t.id).Msg("show answers skipped")
		}
	}
	g.broadcastLocked()
	return nil
}

func (g *Game) NextQuestion() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked((*Cursor).Advance)
}

func (g *Game) PreviousQuestion() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked((*Cursor).Retreat)
}

// moveLocked steps the cursor and puts every table on the new question. A
// failed step leaves the game untouched.
func (g *Game) moveLocked(step func(*Cursor) (domain.Question, error)) error {
	if g.state != domain.GameInQuestion && g.state != domain.GameInAnswers {
		return domain.GameStateError("change question", g.state)
	}
	q, err := step(g.cursor)
	if err != nil {
		return err
	}
	g.cursor.StartTimer()
	g.state = domain.GameInQuestion
	for _, t := range g.tables {
		t.updateQuestion()
	}
	g.broadcastLocked()
	log.Info().Int("question_id", q.ID).Msg("question changed")
	return nil
}

// ShowResults moves every table to its results and persists a snapshot.
// Persistence failures are logged.
func (g *Game) ShowResults(ctx context.Context) error {
	g.mu.Lock()
	snapshot, err := g.showResultsLocked()
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.persist(ctx, snapshot)
	return nil
}

func (g *Game) showResultsLocked() (domain.GameSnapshot, error) {
	if g.state == domain.GameWaiting {
		return domain.GameSnapshot{}, domain.ErrGameNotStarted
	}
	g.state = domain.GameInResults
	for _, t := range g.tables {
		t.showResult()
	}
	g.broadcastLocked()
	log.Info().Int("tables", len(g.tables)).Msg("results shown")
	return g.snapshotLocked(), nil
}

func (g *Game) persist(ctx context.Context, snapshot domain.GameSnapshot) {
	if g.snapshots == nil {
		return
	}
	if err := g.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		log.Error().Err(err).Msg("persist game snapshot")
	}
}

// Reset returns the game to waiting with a freshly loaded catalog. Every table
// session is disconnected. When the catalog cannot be reloaded the previous
// one is reused.
func (g *Game) Reset(ctx context.Context) error {
	questions, err := g.catalog.GetCatalog(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reload catalog, keeping previous one")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		questions = g.cursor.questions
	}
	g.state = domain.GameWaiting
	g.cursor = NewCursor(questions, g.clock)
	for _, t := range g.tables {
		t.reset()
	}
	g.notifyScreensLocked()
	log.Info().Int("questions", len(questions)).Msg("game reset")
	return nil
}

// NextStep performs whichever transition naturally follows the current state.
func (g *Game) NextStep() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case domain.GameWaiting:
		return g.startLocked()
	case domain.GameInQuestion:
		return g.showAnswersLocked()
	case domain.GameInAnswers:
		return g.moveLocked((*Cursor).Advance)
	default:
		return domain.GameStateError("take the next step", g.state)
	}
}

// Resize grows or shrinks the roster to count tables. Dropped tables are reset
// first; surviving ids are never touched.
func (g *Game) Resize(count int) error {
	if count < 0 {
		return domain.ErrNegativeCount
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	current := len(g.tables)
	if count == current {
		return nil
	}
	if count < current {
		for i := current - 1; i >= count; i-- {
			g.tables[i].reset()
			g.tables[i] = nil
		}
		g.tables = g.tables[:count]
	} else {
		for id := current + 1; id <= count; id++ {
			g.tables = append(g.tables, newTable(g, id))
		}
	}
	g.notifyScreensLocked()
	log.Info().Int("from", current).Int("to", count).Msg("tables resized")
	return nil
}

// ChangeLeader rotates leadership at a table to its oldest observer.
func (g *Game) ChangeLeader(tableID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return domain.ErrTableNotFound
	}
	t.changeLeader()
	g.notifyTableLocked(t)
	g.notifyScreensLocked()
	return nil
}

// withTable runs fn on the table c is seated at, under the game lock.
func (g *Game) withTable(c *Client, fn func(*Table) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c.table == nil {
		return domain.ErrSessionClosed
	}
	return fn(c.table)
}

// Snapshot captures the full game state.
func (g *Game) Snapshot() domain.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// PublicSnapshot is Snapshot with the correct answers withheld until results
// are shown.
func (g *Game) PublicSnapshot() domain.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snapshot := g.snapshotLocked()
	if snapshot.State != domain.GameInResults {
		for i := range snapshot.Questions {
			snapshot.Questions[i].CorrectAnswers = []int{}
		}
	}
	return snapshot
}

func (g *Game) snapshotLocked() domain.GameSnapshot {
	tables := make(map[int]domain.TableSnapshot, len(g.tables))
	for _, t := range g.tables {
		tables[t.id] = t.snapshot()
	}
	var index *int
	if i, ok := g.cursor.Index(); ok {
		index = &i
	}
	return domain.GameSnapshot{
		State:                g.state,
		Tables:               tables,
		Questions:            g.cursor.Views(),
		CurrentQuestionIndex: index,
		Categories:           slices.Clone(g.cursor.Categories()),
		TakenAt:              g.clock.Now().UTC(),
	}
}

// broadcastLocked pushes the new state to every table and every screen.
func (g *Game) broadcastLocked() {
	for _, t := range g.tables {
		g.notifyTableLocked(t)
	}
	g.notifyScreensLocked()
}

func (g *Game) notifyTableLocked(t *Table) {
	observers := slices.Clone(t.observers)
	leader := t.leader

	ev := t.event(domain.RoleObserver)
	if len(observers) > 0 {
		g.deliverLocked(observers, ev)
	}
	if leader != nil {
		ev.Role = domain.RoleLeader
		g.deliverLocked([]*Client{leader}, ev)
	}
}

func (g *Game) screenStateLocked() domain.ScreenTablesStateEvent {
	tables := make([]domain.TableData, 0, len(g.tables))
	for _, t := range g.tables {
		tables = append(tables, t.data())
	}
	return domain.ScreenTablesStateEvent{
		EventType: domain.EventScreenTablesState,
		GameState: g.state,
		Tables:    tables,
		Question:  g.cursor.CurrentView(),
		Results:   g.calcResultsLocked(),
	}
}

func (g *Game) notifyScreensLocked() {
	if len(g.screens) == 0 {
		return
	}
	g.deliverLocked(slices.Clone(g.screens), g.screenStateLocked())
}

// tableAnsweredLocked pings screens that t committed its answer.
func (g *Game) tableAnsweredLocked(t *Table) {
	last := true
	for _, other := range g.tables {
		if other.state == domain.TableInQuestion && !other.answered {
			last = false
			break
		}
	}
	if len(g.screens) == 0 {
		return
	}
	g.deliverLocked(slices.Clone(g.screens), domain.ScreenTableAnsweredEvent{
		EventType: domain.EventScreenTableAnswered,
		TableID:   t.id,
		TableName: t.name,
		Last:      last,
	})
}

// deliverLocked encodes v once and queues it for every recipient. Recipients
// that cannot take it are dropped.
func (g *Game) deliverLocked(recipients []*Client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msgf("encode %T", v)
		return
	}
	g.dropLocked(fanout(recipients, payload))
}

// dropLocked closes unreachable sessions and detaches them from their owner.
// Tables that lost a session are re-sent to their remaining sessions and the
// screens, which also tells a promoted leader about its new role.
func (g *Game) dropLocked(failed []*Client) {
	var affected []*Table
	for _, c := range failed {
		log.Warn().Str("client_id", c.ID).Msg("session unreachable, dropping")
		c.Close()
		t := c.table
		if t == nil {
			g.removeScreenLocked(c)
			continue
		}
		t.removeClient(c)
		if !slices.Contains(affected, t) {
			affected = append(affected, t)
		}
	}
	if len(affected) == 0 {
		return
	}
	for _, t := range affected {
		if g.attached(t) {
			g.notifyTableLocked(t)
		}
	}
	g.notifyScreensLocked()
}
