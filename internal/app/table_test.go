package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"event-trivia-service/internal/domain"
)

func TestLeaderPromotionIsFIFO(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 1)
	b, _ := join(t, g, 1)
	c, _ := join(t, g, 1)
	d, _ := join(t, g, 1)
	tbl := tableOf(g, 1)
	assertRoster(t, g, tbl)

	g.Leave(a)
	assertRoster(t, g, tbl)

	g.mu.Lock()
	defer g.mu.Unlock()
	if tbl.leader != b {
		t.Fatalf("expected the oldest observer to lead")
	}
	if len(tbl.observers) != 2 || tbl.observers[0] != c || tbl.observers[1] != d {
		t.Fatalf("expected observers [c d], got %d observers", len(tbl.observers))
	}
	if a.table != nil {
		t.Fatalf("expected departed client to be detached")
	}
}

func TestPromotedLeaderIsNotified(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 2)
	_, bConn := join(t, g, 2)
	nextEvent(t, bConn, domain.EventTable, func(m map[string]any) bool { return m["role"] == "observer" })

	g.Leave(a)
	ev := nextEvent(t, bConn, domain.EventTable, func(m map[string]any) bool { return m["role"] == "leader" })
	if ev["clients"].(float64) != 1 {
		t.Fatalf("expected 1 client after promotion, got %v", ev["clients"])
	}
}

func TestLastLeaderLeavingResetsWaitingTable(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 1)
	tbl := tableOf(g, 1)
	if tbl.state != domain.TableWaitingGameStart {
		t.Fatalf("expected waiting_game_start after a leader joined, got %s", tbl.state)
	}

	g.Leave(a)
	if tbl.state != domain.TableWaitingLeader || tbl.leader != nil {
		t.Fatalf("expected leaderless waiting table, got %s", tbl.state)
	}

	// Leaving twice is harmless.
	g.Leave(a)
}

func TestLeaderlessTableKeepsQuestionState(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 1)
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	g.Leave(a)
	tbl := tableOf(g, 1)
	if tbl.state != domain.TableInQuestion {
		t.Fatalf("expected leaderless table to stay in_question, got %s", tbl.state)
	}

	b, _ := join(t, g, 1)
	if b.role != domain.RoleLeader || tbl.state != domain.TableInQuestion {
		t.Fatalf("expected newcomer to lead without changing state, got %s/%s", b.role, tbl.state)
	}
}

func TestChangeLeaderRotatesToObserver(t *testing.T) {
	g, _ := newTestGame(t)
	a, aConn := join(t, g, 1)
	b, _ := join(t, g, 1)
	tbl := tableOf(g, 1)

	if err := g.ChangeLeader(1); err != nil {
		t.Fatalf("change leader: %v", err)
	}
	assertRoster(t, g, tbl)
	if tbl.leader != b || len(tbl.observers) != 1 || tbl.observers[0] != a {
		t.Fatalf("expected b to lead with a queued")
	}
	nextEvent(t, aConn, domain.EventTable, func(m map[string]any) bool { return m["role"] == "observer" })
}

func TestChangeLeaderWithoutObserversKeepsLeader(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 1)

	if err := g.ChangeLeader(1); err != nil {
		t.Fatalf("change leader: %v", err)
	}
	tbl := tableOf(g, 1)
	if tbl.leader != a || len(tbl.observers) != 0 {
		t.Fatalf("expected sole leader to stay")
	}
	if err := g.ChangeLeader(2); err != nil {
		t.Fatalf("change leader on empty table: %v", err)
	}
	if err := g.ChangeLeader(42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChangeLeaderDropsClosedLeader(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 1)
	b, _ := join(t, g, 1)
	a.Close()

	if err := g.ChangeLeader(1); err != nil {
		t.Fatalf("change leader: %v", err)
	}
	tbl := tableOf(g, 1)
	assertRoster(t, g, tbl)
	if tbl.leader != b || len(tbl.observers) != 0 {
		t.Fatalf("expected closed leader to be dropped")
	}
}

func TestSetNameLength(t *testing.T) {
	g, _ := newTestGame(t)
	a, _ := join(t, g, 1)

	name := strings.Repeat("é", domain.MaxTableNameLength)
	err := g.withTable(a, func(tbl *Table) error { return tbl.setName(name) })
	if err != nil {
		t.Fatalf("set %d character name: %v", domain.MaxTableNameLength, err)
	}

	err = g.withTable(a, func(tbl *Table) error { return tbl.setName(name + "x") })
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := *tableOf(g, 1).name; got != name {
		t.Fatalf("name changed after rejected update: %q", got)
	}
}

func TestAnswerWindow(t *testing.T) {
	g, clock := newTestGame(t)
	a, _ := join(t, g, 1)
	b, _ := join(t, g, 2)

	if err := answer(g, a, []int{1}); !errors.Is(err, domain.ErrState) {
		t.Fatalf("expected state error before start, got %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := answer(g, a, []int{1}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	tbl := tableOf(g, 1)
	if !tbl.answered || tbl.result.Score != 10 || !tbl.result.Answered(0) {
		t.Fatalf("expected scored answer, got answered=%v score=%v", tbl.answered, tbl.result.Score)
	}
	if err := answer(g, a, []int{0}); !errors.Is(err, domain.ErrState) {
		t.Fatalf("expected second answer to be rejected, got %v", err)
	}
	if tbl.result.Score != 10 {
		t.Fatalf("result changed by rejected answer: %v", tbl.result.Score)
	}

	// Still inside the grace gap after the countdown ran out.
	clock.Advance(31 * time.Second)
	err := g.withTable(b, func(tbl *Table) error { return tbl.setAnswers([]int{0}) })
	if err != nil {
		t.Fatalf("set answers within gap: %v", err)
	}

	clock.Advance(2 * time.Second)
	if err := answer(g, b, []int{1}); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if tableOf(g, 2).answered {
		t.Fatalf("late answer must not mark the table answered")
	}
}

func TestSetAnswersDoesNotScore(t *testing.T) {
	g, _ := newTestGame(t)
	a, conn := join(t, g, 1)
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := g.withTable(a, func(tbl *Table) error { return tbl.setAnswers([]int{0, 2}) })
	if err != nil {
		t.Fatalf("set answers: %v", err)
	}
	tbl := tableOf(g, 1)
	if tbl.answered || tbl.result.Answered(0) {
		t.Fatalf("provisional answers must not be scored")
	}
	if len(tbl.answers) != 2 {
		t.Fatalf("expected provisional answers stored, got %v", tbl.answers)
	}
	nextEvent(t, conn, domain.EventTable, func(m map[string]any) bool { return m["table_state"] == "in_question" })
}

func TestTableResetClosesClients(t *testing.T) {
	g, _ := newTestGame(t)
	a, aConn := join(t, g, 1)
	b, bConn := join(t, g, 1)
	g.withTable(a, func(tbl *Table) error { return tbl.setName("Owls") })

	if err := g.Reset(t.Context()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for _, conn := range []*fakeConn{aConn, bConn} {
		select {
		case <-conn.closed:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected table connections to be closed")
		}
	}
	tbl := tableOf(g, 1)
	if tbl.leader != nil || len(tbl.observers) != 0 || tbl.name != nil || tbl.state != domain.TableWaitingLeader {
		t.Fatalf("expected a fresh table after reset")
	}
	if a.table != nil || b.table != nil {
		t.Fatalf("expected clients detached after reset")
	}
}
