// Package session runs one live game per goroutine. Every inbound event for
// a session is handled to completion on its loop, so reads and mutations of
// the game state are totally ordered without a lock.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkrijger/quizroom-backend/internal/code"
	"github.com/mkrijger/quizroom-backend/internal/game"
	"github.com/mkrijger/quizroom-backend/internal/types"
)

type Msg interface{ isSessionMsg() }

type Join struct {
	ClientID string
	PlayerID string // empty for hosts and spectators
	Outbox   chan types.ServerMessage
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

// AddPlayer allocates a player id unique within this session and inserts
// the player. Runs on the session loop so roster reads are race-free.
type AddPlayer struct {
	Name  string
	Reply chan AddPlayerResult
}

func (AddPlayer) isSessionMsg() {}

type AddPlayerResult struct {
	PlayerID string
	OK       bool
}

type FromClient struct {
	Cmd game.Command
}

func (FromClient) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type View struct {
	NumClients int
	State      game.State
}

type Config struct {
	PlayerIDLen  int
	TickInterval time.Duration // periodic leaderboard rebroadcast
}

type client struct {
	playerID string
	out      chan types.ServerMessage
}

type Session struct {
	joinCode string
	inbox    chan Msg
	state    game.State
	clients  map[string]client
	cfg      Config
	onEnd    func(joinCode string) // registry teardown hook
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, initial game.State, cfg Config, onEnd func(string), log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)

	if cfg.PlayerIDLen <= 0 {
		cfg.PlayerIDLen = 4
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	s := &Session{
		joinCode: initial.JoinCode,
		inbox:    make(chan Msg, 64),
		state:    initial,
		clients:  make(map[string]client),
		cfg:      cfg,
		onEnd:    onEnd,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) JoinCode() string { return s.joinCode }

// Done is closed once the loop has exited; callers waiting on a reply must
// select on it so a just-ended session degrades instead of hanging them.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-ticker.C:
			s.broadcast(s.leaderboardMsg())

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				// Idempotent: (re-)joining resends the current question to
				// the joiner and refreshes the room's leaderboard.
				s.clients[msg.ClientID] = client{playerID: msg.PlayerID, out: msg.Outbox}
				if view, ok := s.state.CurrentQuestion(); ok {
					s.send(msg.ClientID, types.ServerMessage{Type: types.MsgQuestion, Question: &view})
				}
				s.broadcast(s.leaderboardMsg())

			case Leave:
				delete(s.clients, msg.ClientID)

			case AddPlayer:
				id, err := code.Unique(s.cfg.PlayerIDLen, func(c string) bool {
					_, taken := s.state.Players[c]
					return taken
				})
				if err != nil {
					msg.Reply <- AddPlayerResult{}
					break
				}
				_, newState, err := game.Apply(s.state, game.Command{Type: game.CmdAddPlayer, PlayerID: id, Name: msg.Name})
				if err != nil {
					s.log.Debug("join rejected", zap.Error(err))
					msg.Reply <- AddPlayerResult{}
					break
				}
				s.state = newState
				msg.Reply <- AddPlayerResult{PlayerID: id, OK: true}
				s.broadcast(s.leaderboardMsg())

			case FromClient:
				events, newState, err := game.Apply(s.state, msg.Cmd)
				if err != nil {
					// Structural failures degrade to silent no-ops for
					// fire-and-forget inputs.
					s.log.Debug("command rejected",
						zap.String("cmd", string(msg.Cmd.Type)), zap.Error(err))
					break
				}
				s.state = newState
				if s.route(events) {
					return
				}

			case GetState:
				// The reply crosses goroutines (hub checkpoints read it),
				// so it must not alias this loop's live maps.
				msg.Reply <- View{NumClients: len(s.clients), State: s.state.Clone()}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// route delivers engine events to their audience. Returns true when the
// session ended and the loop must exit.
func (s *Session) route(events []game.Event) bool {
	for _, ev := range events {
		switch ev.Type {
		case game.EvtQuestion:
			s.broadcast(types.ServerMessage{Type: types.MsgQuestion, Question: ev.Question})
		case game.EvtLeaderboard:
			s.broadcast(s.leaderboardMsg())
		case game.EvtFeedback:
			s.sendToPlayer(ev.PlayerID, types.ServerMessage{Type: types.MsgFeedback, Feedback: ev.Feedback})
		case game.EvtEnded:
			s.broadcast(types.ServerMessage{Type: types.MsgEnd})
			s.log.Info("session ended", zap.String("join_code", s.joinCode))
			if s.onEnd != nil {
				s.onEnd(s.joinCode)
			}
			s.shutdown()
			return true
		}
	}
	return false
}

func (s *Session) leaderboardMsg() types.ServerMessage {
	return types.ServerMessage{Type: types.MsgLeaderboard, Leaderboard: game.Leaderboard(s.state)}
}

// Delivery never blocks and never closes the outbox: a re-join may hand the
// same channel back in, and the websocket writer watches its own context.
func (s *Session) send(clientID string, msg types.ServerMessage) {
	c, ok := s.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.out <- msg:
	default:
		delete(s.clients, clientID)
	}
}

func (s *Session) sendToPlayer(playerID string, msg types.ServerMessage) {
	for id, c := range s.clients {
		if c.playerID == playerID {
			s.send(id, msg)
		}
	}
}

func (s *Session) broadcast(msg types.ServerMessage) {
	for id, c := range s.clients {
		select {
		case c.out <- msg:
			// ok
		default:
			// Client is slow/full - drop them.
			delete(s.clients, id)
		}
	}
}

func (s *Session) shutdown() {
	clear(s.clients)
	s.cancel()
	s.drainInbox()
}

// drainInbox answers requests that were queued when the loop exited, so
// blocked callers get a failure reply instead of silence. Later arrivals
// are covered by Done.
func (s *Session) drainInbox() {
	for {
		select {
		case m := <-s.inbox:
			switch msg := m.(type) {
			case AddPlayer:
				select {
				case msg.Reply <- AddPlayerResult{}:
				default:
				}
			case GetState:
				select {
				case msg.Reply <- View{State: s.state.Clone()}:
				default:
				}
			}
		default:
			return
		}
	}
}
