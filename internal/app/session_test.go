package app

import (
	"context"
	"strings"
	"testing"

	"event-trivia-service/internal/domain"
)

func errorEvent(t *testing.T, conn *fakeConn, contains string) {
	t.Helper()
	ev := nextEvent(t, conn, domain.EventError, nil)
	if msg, _ := ev["error"].(string); !strings.Contains(msg, contains) {
		t.Fatalf("expected error containing %q, got %q", contains, msg)
	}
}

func TestTableSessionCommands(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()

	leader, leaderConn := newTestClient()
	ls, err := g.OpenTableSession(1, leader)
	if err != nil {
		t.Fatalf("open leader session: %v", err)
	}
	observer, observerConn := newTestClient()
	obs, err := g.OpenTableSession(1, observer)
	if err != nil {
		t.Fatalf("open observer session: %v", err)
	}

	ls.Handle(ctx, []byte(`{"event_type":"from_set_table_name","table_name":"Owls"}`))
	nextEvent(t, observerConn, domain.EventTable, func(m map[string]any) bool { return m["table_name"] == "Owls" })

	obs.Handle(ctx, []byte(`{"event_type":"from_set_table_name","table_name":"Hijack"}`))
	errorEvent(t, observerConn, "leader")
	if name := *tableOf(g, 1).name; name != "Owls" {
		t.Fatalf("observer renamed the table to %q", name)
	}

	ls.Handle(ctx, []byte(`{"event_type":"from_answer_question","table_answers":[1]}`))
	errorEvent(t, leaderConn, "not in question")

	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ls.Handle(ctx, []byte(`{"event_type":"from_set_table_answers","table_answers":[0]}`))
	nextEvent(t, observerConn, domain.EventTable, func(m map[string]any) bool {
		a, _ := m["table_answers"].([]any)
		return len(a) == 1 && a[0].(float64) == 0
	})

	ls.Handle(ctx, []byte(`{"event_type":"from_answer_question","table_answers":[1]}`))
	nextEvent(t, observerConn, domain.EventTable, func(m map[string]any) bool { return m["answered"] == true })
	ls.Handle(ctx, []byte(`{"event_type":"from_answer_question","table_answers":[1]}`))
	errorEvent(t, leaderConn, "already answered")

	obs.Close()
	if tableOf(g, 1).clientsCount() != 1 {
		t.Fatalf("expected observer to have left")
	}
	// A detached session reports the closed session instead of panicking.
	obs.Handle(ctx, []byte(`{"event_type":"from_set_table_name","table_name":"Late"}`))
}

func TestTableSessionRejectsBadInput(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()
	c, conn := newTestClient()
	s, err := g.OpenTableSession(1, c)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	s.Handle(ctx, []byte(`{"event_type":"from_dance"}`))
	errorEvent(t, conn, "from_dance")

	s.Handle(ctx, []byte(`{not json`))
	errorEvent(t, conn, "malformed")

	s.Handle(ctx, []byte(`{"event_type":"from_set_table_name"}`))
	errorEvent(t, conn, "table_name")

	long := strings.Repeat("x", domain.MaxTableNameLength+1)
	s.Handle(ctx, []byte(`{"event_type":"from_set_table_name","table_name":"`+long+`"}`))
	errorEvent(t, conn, "must not exceed")

	if !c.Alive() {
		t.Fatalf("rejected commands must not close the session")
	}
}

func TestOpenTableSessionUnknownTable(t *testing.T) {
	g, _ := newTestGame(t)
	c, _ := newTestClient()
	if _, err := g.OpenTableSession(9, c); err == nil {
		t.Fatalf("expected unknown table to be rejected")
	}
}

func TestAdminSession(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()
	c, conn := newTestClient()
	admin := g.OpenAdminSession(c)

	admin.Handle(ctx, []byte(`{"event_type":"from_admin_show_results"}`))
	errorEvent(t, conn, "not started")

	admin.Handle(ctx, []byte(`{"event_type":"from_admin_start_game"}`))
	if g.State() != domain.GameInQuestion {
		t.Fatalf("expected in_question, got %s", g.State())
	}
	admin.Handle(ctx, []byte(`{"event_type":"from_admin_previous_question"}`))
	errorEvent(t, conn, "first question")

	for i := 0; i < 2; i++ {
		admin.Handle(ctx, []byte(`{"event_type":"from_admin_next_question"}`))
	}
	admin.Handle(ctx, []byte(`{"event_type":"from_admin_next_question"}`))
	errorEvent(t, conn, "last question")

	admin.Handle(ctx, []byte(`{"event_type":"from_admin_show_answers"}`))
	if g.State() != domain.GameInAnswers {
		t.Fatalf("expected in_answers, got %s", g.State())
	}
	admin.Handle(ctx, []byte(`{"event_type":"from_admin_show_results"}`))
	admin.Handle(ctx, []byte(`{"event_type":"from_admin_next_step"}`))
	errorEvent(t, conn, "cannot")

	admin.Handle(ctx, []byte(`{"event_type":"from_admin_resize_tables","count":5}`))
	if g.TableCount() != 5 {
		t.Fatalf("expected 5 tables, got %d", g.TableCount())
	}
	admin.Handle(ctx, []byte(`{"event_type":"from_admin_resize_tables","count":-2}`))
	errorEvent(t, conn, "invalid table count")

	admin.Handle(ctx, []byte(`{"event_type":"from_admin_change_leader","table_id":12}`))
	errorEvent(t, conn, "not found")

	admin.Handle(ctx, []byte(`{"event_type":"from_admin_reset_game"}`))
	if g.State() != domain.GameWaiting {
		t.Fatalf("expected waiting after reset, got %s", g.State())
	}
	admin.Close()
}

func TestScreenSession(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()
	c, conn := newTestClient()
	screen := g.OpenScreenSession(c)

	ev := nextEvent(t, conn, domain.EventScreenTablesState, nil)
	if ev["game_state"] != "waiting" || len(ev["tables"].([]any)) != 3 || ev["results"] != nil {
		t.Fatalf("unexpected initial screen state: %v", ev)
	}
	screen.Handle(ctx, []byte(`{"event_type":"from_admin_start_game"}`))
	if g.State() != domain.GameWaiting {
		t.Fatalf("screens must not drive the game")
	}

	first, _ := newTestClient()
	firstSession, err := g.OpenTableSession(1, first)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	second, _ := newTestClient()
	secondSession, err := g.OpenTableSession(2, second)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.Resize(2); err != nil {
		t.Fatalf("resize: %v", err)
	}

	firstSession.Handle(ctx, []byte(`{"event_type":"from_answer_question","table_answers":[0]}`))
	ev = nextEvent(t, conn, domain.EventScreenTableAnswered, nil)
	if ev["table_id"].(float64) != 1 || ev["last"] != false {
		t.Fatalf("unexpected answered ping: %v", ev)
	}
	secondSession.Handle(ctx, []byte(`{"event_type":"from_answer_question","table_answers":[0,2]}`))
	ev = nextEvent(t, conn, domain.EventScreenTableAnswered, nil)
	if ev["table_id"].(float64) != 2 || ev["last"] != true {
		t.Fatalf("expected the last table to be flagged: %v", ev)
	}

	screen.Close()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.screens) != 0 {
		t.Fatalf("expected screen to be removed")
	}
}
