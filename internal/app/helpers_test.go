package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"event-trivia-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

type staticCatalog []domain.Question

func (c staticCatalog) GetCatalog(context.Context) ([]domain.Question, error) {
	return domain.IndexQuestions(c), nil
}

type recordingStore struct {
	mu        sync.Mutex
	snapshots []domain.GameSnapshot
}

func (s *recordingStore) SaveSnapshot(_ context.Context, snapshot domain.GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// fakeConn records every message the client writes.
type fakeConn struct {
	msgs   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan []byte, 512), closed: make(chan struct{})}
}

func (c *fakeConn) WriteJSON(v any) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	select {
	case c.msgs <- raw:
		return nil
	default:
		return errors.New("fake conn overflow")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// blockingConn never completes a write until released.
type blockingConn struct {
	release chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newBlockingConn() *blockingConn {
	return &blockingConn{release: make(chan struct{}), closed: make(chan struct{})}
}

func (c *blockingConn) WriteJSON(any) error {
	<-c.release
	return errors.New("released")
}

func (c *blockingConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func testQuestions() []domain.Question {
	return []domain.Question{
		{
			Categories:     []string{"math"},
			Type:           domain.SingleChoice,
			Prompt:         "What is 2 + 2?",
			Answers:        []string{"3", "4", "5"},
			CorrectAnswers: []int{1},
			Score:          10,
			Timer:          30,
		},
		{
			Categories:     []string{"geo", "_bonus"},
			Type:           domain.MultipleChoice,
			Prompt:         "Which are capitals?",
			Answers:        []string{"Paris", "Lyon", "Rome"},
			CorrectAnswers: []int{0, 2},
			Score:          20,
			Timer:          30,
		},
		{
			Categories:     []string{"math"},
			Type:           domain.SingleChoice,
			Prompt:         "What is 3 * 3?",
			Answers:        []string{"9", "6"},
			CorrectAnswers: []int{0},
			Score:          10,
			Timer:          30,
		},
	}
}

func newTestGame(t *testing.T, opts ...Option) (*Game, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	opts = append([]Option{WithClock(clock), WithTables(3)}, opts...)
	g, err := NewGame(context.Background(), staticCatalog(testQuestions()), opts...)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g, clock
}

func newTestClient() (*Client, *fakeConn) {
	conn := newFakeConn()
	return NewClient(conn, 64), conn
}

func join(t *testing.T, g *Game, tableID int) (*Client, *fakeConn) {
	t.Helper()
	c, conn := newTestClient()
	if err := g.Join(tableID, c); err != nil {
		t.Fatalf("join table %d: %v", tableID, err)
	}
	return c, conn
}

// nextEvent skips messages until one of the given type satisfies match.
func nextEvent(t *testing.T, conn *fakeConn, eventType domain.EventType, match func(map[string]any) bool) map[string]any {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case raw := <-conn.msgs:
			var msg map[string]any
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("decode message: %v", err)
			}
			if msg["event_type"] != string(eventType) {
				continue
			}
			if match == nil || match(msg) {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
			return nil
		}
	}
}

func answer(g *Game, c *Client, answers []int) error {
	return g.withTable(c, func(t *Table) error {
		_, err := t.answerQuestion(answers)
		return err
	})
}

func tableOf(g *Game, id int) *Table {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.table(id)
}

// assertRoster checks that the leader is never queued as an observer and that
// every seated client points back at the table.
func assertRoster(t *testing.T, g *Game, tbl *Table) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := map[*Client]bool{}
	for _, o := range tbl.observers {
		if o == tbl.leader {
			t.Fatalf("leader %s is also an observer", o.ID)
		}
		if seen[o] {
			t.Fatalf("observer %s queued twice", o.ID)
		}
		seen[o] = true
		if o.role != domain.RoleObserver || o.table != tbl {
			t.Fatalf("observer %s has role %s", o.ID, o.role)
		}
	}
	if tbl.leader != nil && (tbl.leader.role != domain.RoleLeader || tbl.leader.table != tbl) {
		t.Fatalf("leader %s has role %s", tbl.leader.ID, tbl.leader.role)
	}
	if tbl.leader == nil && len(tbl.observers) > 0 {
		t.Fatalf("observers without a leader")
	}
}
