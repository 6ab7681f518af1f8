package app

import (
	"context"
	"errors"

	"event-trivia-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session turns the inbound messages of one connection into game commands.
// Rejected commands are answered with an error event; the connection stays open.
type Session interface {
	Handle(ctx context.Context, data []byte)
	Close()
}

func reject(c *Client, eventType domain.EventType, err error) {
	log.Debug().Err(err).Str("client_id", c.ID).Str("event_type", string(eventType)).
		Str("kind", domain.Kind(err)).Msg("command rejected")
	if errors.Is(err, domain.ErrTransport) {
		return
	}
	if sendErr := c.Send(domain.NewErrorEvent(err)); sendErr != nil {
		log.Warn().Err(sendErr).Str("client_id", c.ID).Msg("send error event")
		c.Close()
	}
}

// TableSession serves a participant seated at a table.
type TableSession struct {
	game   *Game
	client *Client
}

// OpenTableSession seats c at the table and returns its session.
func (g *Game) OpenTableSession(tableID int, c *Client) (*TableSession, error) {
	if err := g.Join(tableID, c); err != nil {
		return nil, err
	}
	return &TableSession{game: g, client: c}, nil
}

func (s *TableSession) Handle(_ context.Context, data []byte) {
	cmd, err := domain.DecodeTableCommand(data)
	if err != nil {
		eventType, _ := domain.PeekEventType(data)
		reject(s.client, eventType, err)
		return
	}
	g := s.game
	err = g.withTable(s.client, func(t *Table) error {
		if s.client.role != domain.RoleLeader {
			return domain.ErrNotLeader
		}
		switch cmd := cmd.(type) {
		case domain.SetTableName:
			if err := t.setName(cmd.TableName); err != nil {
				return err
			}
			g.notifyTableLocked(t)
			g.notifyScreensLocked()
		case domain.SetTableAnswers:
			if err := t.setAnswers(cmd.TableAnswers); err != nil {
				return err
			}
			g.notifyTableLocked(t)
		case domain.AnswerQuestion:
			score, err := t.answerQuestion(cmd.TableAnswers)
			if err != nil {
				return err
			}
			log.Info().Int("table_id", t.id).Float64("score", score).Msg("table answered")
			g.notifyTableLocked(t)
			g.tableAnsweredLocked(t)
			g.notifyScreensLocked()
		}
		return nil
	})
	if err != nil {
		eventType, _ := domain.PeekEventType(data)
		reject(s.client, eventType, err)
	}
}

// Close leaves the table and shuts the connection down.
func (s *TableSession) Close() {
	s.game.Leave(s.client)
	s.client.Close()
}

// AdminSession serves the operator's control connection.
type AdminSession struct {
	game   *Game
	client *Client
}

func (g *Game) OpenAdminSession(c *Client) *AdminSession {
	log.Info().Str("client_id", c.ID).Msg("admin connected")
	return &AdminSession{game: g, client: c}
}

func (s *AdminSession) Handle(ctx context.Context, data []byte) {
	cmd, err := domain.DecodeAdminCommand(data)
	if err == nil {
		err = s.dispatch(ctx, cmd)
	}
	eventType, _ := domain.PeekEventType(data)
	if err != nil {
		reject(s.client, eventType, err)
		return
	}
	log.Info().Str("event_type", string(eventType)).Str("game_state", string(s.game.State())).Msg("admin command applied")
}

func (s *AdminSession) dispatch(ctx context.Context, cmd domain.AdminCommand) error {
	switch cmd := cmd.(type) {
	case domain.ResizeTables:
		return s.game.Resize(cmd.Count)
	case domain.ChangeLeader:
		return s.game.ChangeLeader(cmd.TableID)
	case domain.StartGame:
		return s.game.Start()
	case domain.ShowAnswers:
		return s.game.ShowAnswers()
	case domain.PreviousQuestion:
		return s.game.PreviousQuestion()
	case domain.NextQuestion:
		return s.game.NextQuestion()
	case domain.ShowResults:
		return s.game.ShowResults(ctx)
	case domain.ResetGame:
		return s.game.Reset(ctx)
	case domain.NextStep:
		return s.game.NextStep()
	default:
		return domain.ErrMalformedMessage
	}
}

func (s *AdminSession) Close() {
	log.Info().Str("client_id", s.client.ID).Msg("admin disconnected")
	s.client.Close()
}

// ScreenSession serves a spectator. Inbound messages are ignored.
type ScreenSession struct {
	game   *Game
	client *Client
}

func (g *Game) OpenScreenSession(c *Client) *ScreenSession {
	g.AddScreen(c)
	return &ScreenSession{game: g, client: c}
}

func (s *ScreenSession) Handle(context.Context, []byte) {}

func (s *ScreenSession) Close() {
	s.game.RemoveScreen(s.client)
	s.client.Close()
	log.Info().Str("client_id", s.client.ID).Msg("screen disconnected")
}
