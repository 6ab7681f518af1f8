package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeTableCommand(t *testing.T) {
	cmd, err := DecodeTableCommand([]byte(`{"event_type":"from_set_table_name","table_name":"Owls"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if name, ok := cmd.(SetTableName); !ok || name.TableName != "Owls" {
		t.Fatalf("unexpected command %#v", cmd)
	}

	cmd, err = DecodeTableCommand([]byte(`{"event_type":"from_answer_question","table_answers":null}`))
	if err == nil || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected null answers to be rejected, got %#v %v", cmd, err)
	}

	cmd, err = DecodeTableCommand([]byte(`{"event_type":"from_set_table_answers","table_answers":[]}`))
	if err != nil {
		t.Fatalf("decode empty answers: %v", err)
	}
	if a, ok := cmd.(SetTableAnswers); !ok || a.TableAnswers == nil || len(a.TableAnswers) != 0 {
		t.Fatalf("unexpected command %#v", cmd)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		data string
		kind error
	}{
		{name: "not json", data: `{`, kind: ErrValidation},
		{name: "missing name", data: `{"event_type":"from_set_table_name"}`, kind: ErrValidation},
		{name: "wrong field type", data: `{"event_type":"from_answer_question","table_answers":"a"}`, kind: ErrValidation},
		{name: "admin event on table", data: `{"event_type":"from_admin_start_game"}`, kind: ErrNotFound},
		{name: "no event type", data: `{}`, kind: ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeTableCommand([]byte(tc.data)); !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestDecodeAdminCommand(t *testing.T) {
	cmd, err := DecodeAdminCommand([]byte(`{"event_type":"from_admin_resize_tables","count":4}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, ok := cmd.(ResizeTables); !ok || r.Count != 4 {
		t.Fatalf("unexpected command %#v", cmd)
	}
	if _, err := DecodeAdminCommand([]byte(`{"event_type":"from_admin_change_leader"}`)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing table_id to be rejected, got %v", err)
	}
	cmd, err = DecodeAdminCommand([]byte(`{"event_type":"from_admin_next_step","extra":true}`))
	if _, ok := cmd.(NextStep); err != nil || !ok {
		t.Fatalf("unexpected next step decode: %#v %v", cmd, err)
	}
	_, err = DecodeAdminCommand([]byte(`{"event_type":"from_set_table_name","table_name":"x"}`))
	if !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "from_set_table_name") {
		t.Fatalf("expected unknown event, got %v", err)
	}
}

func TestOutboundEventShape(t *testing.T) {
	name := "Owls"
	data, err := json.Marshal(TableEvent{
		EventType: EventTable,
		TableData: TableData{TableID: 2, TableName: &name, TableState: TableWaitingGameStart, Clients: 1, TableAnswers: []int{}},
		Role:      RoleLeader,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"event_type", "table_id", "table_name", "table_state", "clients", "table_answers", "answered", "role", "question", "result"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if got["question"] != nil || got["result"] != nil {
		t.Fatalf("expected null question and result, got %s", data)
	}

	data, err = json.Marshal(ScreenResults{Winners: []TableResult{}, CategoryWinners: map[string]*TableResult{"math": nil}})
	if err != nil {
		t.Fatalf("marshal results: %v", err)
	}
	if !strings.Contains(string(data), `"winers":[]`) || !strings.Contains(string(data), `"math":null`) {
		t.Fatalf("unexpected results encoding %s", data)
	}
}

func TestErrorEvent(t *testing.T) {
	ev := NewErrorEvent(ErrLastQuestion)
	if ev.EventType != EventError || !strings.Contains(ev.Error, "last question") {
		t.Fatalf("unexpected error event %+v", ev)
	}
}
