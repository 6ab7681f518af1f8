package domain

import (
	"encoding/json"
	"fmt"
)

// EventType is the discriminant carried in every message's event_type field.
type EventType string

// Inbound from table sessions.
const (
	EventSetTableName    EventType = "from_set_table_name"
	EventSetTableAnswers EventType = "from_set_table_answers"
	EventAnswerQuestion  EventType = "from_answer_question"
)

// Inbound from the admin session.
const (
	EventAdminResizeTables     EventType = "from_admin_resize_tables"
	EventAdminChangeLeader     EventType = "from_admin_change_leader"
	EventAdminStartGame        EventType = "from_admin_start_game"
	EventAdminShowAnswers      EventType = "from_admin_show_answers"
	EventAdminPreviousQuestion EventType = "from_admin_previous_question"
	EventAdminNextQuestion     EventType = "from_admin_next_question"
	EventAdminShowResults      EventType = "from_admin_show_results"
	EventAdminResetGame        EventType = "from_admin_reset_game"
	EventAdminNextStep         EventType = "from_admin_next_step"
)

// Outbound.
const (
	EventTable               EventType = "table"
	EventError               EventType = "error"
	EventScreenTablesState   EventType = "screen_tables_state"
	EventScreenTableAnswered EventType = "screen_table_answered"
)

type envelope struct {
	EventType EventType `json:"event_type"`
}

// TableCommand is one of the messages a table session accepts.
type TableCommand interface {
	tableCommand()
}

type SetTableName struct {
	TableName string
}

type SetTableAnswers struct {
	TableAnswers []int
}

type AnswerQuestion struct {
	TableAnswers []int
}

func (SetTableName) tableCommand()    {}
func (SetTableAnswers) tableCommand() {}
func (AnswerQuestion) tableCommand()  {}

// AdminCommand is one of the messages the admin session accepts.
type AdminCommand interface {
	adminCommand()
}

type ResizeTables struct{ Count int }
type ChangeLeader struct{ TableID int }
type StartGame struct{}
type ShowAnswers struct{}
type PreviousQuestion struct{}
type NextQuestion struct{}
type ShowResults struct{}
type ResetGame struct{}
type NextStep struct{}

func (ResizeTables) adminCommand()     {}
func (ChangeLeader) adminCommand()     {}
func (StartGame) adminCommand()        {}
func (ShowAnswers) adminCommand()      {}
func (PreviousQuestion) adminCommand() {}
func (NextQuestion) adminCommand()     {}
func (ShowResults) adminCommand()      {}
func (ResetGame) adminCommand()        {}
func (NextStep) adminCommand()         {}

// PeekEventType returns the event_type of a raw message.
func PeekEventType(data []byte) (EventType, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", ErrMalformedMessage
	}
	return env.EventType, nil
}

// DecodeTableCommand validates a raw table-session message into its command record.
func DecodeTableCommand(data []byte) (TableCommand, error) {
	eventType, err := PeekEventType(data)
	if err != nil {
		return nil, err
	}
	switch eventType {
	case EventSetTableName:
		var body struct {
			TableName *string `json:"table_name"`
		}
		if err := decodeBody(data, &body); err != nil {
			return nil, err
		}
		if body.TableName == nil {
			return nil, missingField("table_name")
		}
		return SetTableName{TableName: *body.TableName}, nil
	case EventSetTableAnswers, EventAnswerQuestion:
		var body struct {
			TableAnswers *[]int `json:"table_answers"`
		}
		if err := decodeBody(data, &body); err != nil {
			return nil, err
		}
		if body.TableAnswers == nil {
			return nil, missingField("table_answers")
		}
		answers := *body.TableAnswers
		if answers == nil {
			answers = []int{}
		}
		if eventType == EventSetTableAnswers {
			return SetTableAnswers{TableAnswers: answers}, nil
		}
		return AnswerQuestion{TableAnswers: answers}, nil
	default:
		return nil, UnknownEventError(string(eventType))
	}
}

// DecodeAdminCommand validates a raw admin-session message into its command record.
func DecodeAdminCommand(data []byte) (AdminCommand, error) {
	eventType, err := PeekEventType(data)
	if err != nil {
		return nil, err
	}
	switch eventType {
	case EventAdminResizeTables:
		var body struct {
			Count *int `json:"count"`
		}
		if err := decodeBody(data, &body); err != nil {
			return nil, err
		}
		if body.Count == nil {
			return nil, missingField("count")
		}
		return ResizeTables{Count: *body.Count}, nil
	case EventAdminChangeLeader:
		var body struct {
			TableID *int `json:"table_id"`
		}
		if err := decodeBody(data, &body); err != nil {
			return nil, err
		}
		if body.TableID == nil {
			return nil, missingField("table_id")
		}
		return ChangeLeader{TableID: *body.TableID}, nil
	case EventAdminStartGame:
		return StartGame{}, nil
	case EventAdminShowAnswers:
		return ShowAnswers{}, nil
	case EventAdminPreviousQuestion:
		return PreviousQuestion{}, nil
	case EventAdminNextQuestion:
		return NextQuestion{}, nil
	case EventAdminShowResults:
		return ShowResults{}, nil
	case EventAdminResetGame:
		return ResetGame{}, nil
	case EventAdminNextStep:
		return NextStep{}, nil
	default:
		return nil, UnknownEventError(string(eventType))
	}
}

func decodeBody(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: field %q is required", ErrValidation, name)
}

// TableEvent is the full table view sent to each of a table's sessions.
type TableEvent struct {
	EventType EventType `json:"event_type"`
	TableData
	Role     Role           `json:"role"`
	Question *QuestionView  `json:"question"`
	Result   *ToTableResult `json:"result"`
}

// ErrorEvent reports a rejected command back to the originating session.
type ErrorEvent struct {
	EventType EventType `json:"event_type"`
	Error     string    `json:"error"`
}

func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{EventType: EventError, Error: err.Error()}
}

// ScreenTablesStateEvent is the aggregate view pushed to screens.
type ScreenTablesStateEvent struct {
	EventType EventType      `json:"event_type"`
	GameState GameState      `json:"game_state"`
	Tables    []TableData    `json:"tables"`
	Question  *QuestionView  `json:"question"`
	Results   *ScreenResults `json:"results"`
}

// ScreenTableAnsweredEvent tells screens a table committed its answer. Last is
// set once every table still in the question has answered.
type ScreenTableAnsweredEvent struct {
	EventType EventType `json:"event_type"`
	TableID   int       `json:"table_id"`
	TableName *string   `json:"table_name"`
	Last      bool      `json:"last"`
}
