// Package hub is the registry actor: it owns the quiz catalog and the map
// of live sessions keyed by join code. All access goes through its inbox,
// so there is no shared lock; sessions themselves run on their own loops.
package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkrijger/quizroom-backend/internal/code"
	"github.com/mkrijger/quizroom-backend/internal/config"
	"github.com/mkrijger/quizroom-backend/internal/game"
	"github.com/mkrijger/quizroom-backend/internal/quiz"
	"github.com/mkrijger/quizroom-backend/internal/session"
	"github.com/mkrijger/quizroom-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

type CreateQuiz struct {
	Name      string
	Questions []quiz.Question
	Reply     chan CreateQuizReply
}

type CreateQuizReply struct {
	QuizID   string
	HostCode string
	Err      error
}

type ListQuizzes struct {
	Reply chan []quiz.Summary
}

type StartSession struct {
	HostCode string
	Reply    chan StartSessionReply
}

type StartSessionReply struct {
	JoinCode string
	OK       bool
}

type GetSession struct {
	JoinCode string
	Reply    chan *session.Session
}

// RemoveSession ends a session; removing an absent code is a no-op.
type RemoveSession struct {
	JoinCode string
}

// Checkpoint requests a best-effort save of the current document.
type Checkpoint struct{}

type ShutdownHub struct{}

func (CreateQuiz) isHubMsg()    {}
func (ListQuizzes) isHubMsg()   {}
func (StartSession) isHubMsg()  {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (Checkpoint) isHubMsg()    {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	saves    chan store.Snapshot
	quizzes  map[string]quiz.Quiz
	sessions map[string]*session.Session
	cfg      config.Config
	store    store.Store
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, cfg config.Config, st store.Store, log *zap.Logger) (*Hub, error) {
	ctx, cancel := context.WithCancel(parent)

	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		saves:    make(chan store.Snapshot, 16),
		quizzes:  make(map[string]quiz.Quiz),
		sessions: make(map[string]*session.Session),
		cfg:      cfg,
		store:    st,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	snap, err := st.Load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	// Quizzes survive a restart; live sessions do not (their rooms are
	// gone with the connections, and crash recovery is out of contract).
	for id, q := range snap.Quizzes {
		h.quizzes[id] = q
	}

	go h.loop()
	go h.saver()
	return h, nil
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateQuiz:
				msg.Reply <- h.createQuiz(msg.Name, msg.Questions)

			case ListQuizzes:
				out := make([]quiz.Summary, 0, len(h.quizzes))
				for _, q := range h.quizzes {
					out = append(out, q.Summary())
				}
				msg.Reply <- out

			case StartSession:
				msg.Reply <- h.startSession(msg.HostCode)

			case GetSession:
				msg.Reply <- h.sessions[msg.JoinCode] // may be nil

			case RemoveSession:
				if sess := h.sessions[msg.JoinCode]; sess != nil {
					delete(h.sessions, msg.JoinCode)
					select {
					case sess.Inbox() <- session.Shutdown{}:
					default:
					}
					h.save()
				}

			case Checkpoint:
				h.save()

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) createQuiz(name string, questions []quiz.Question) CreateQuizReply {
	if err := quiz.Validate(name, questions); err != nil {
		return CreateQuizReply{Err: err}
	}

	hostCode, err := code.Unique(h.cfg.HostCodeLen, func(c string) bool {
		for _, q := range h.quizzes {
			if q.HostCode == c {
				return true
			}
		}
		return false
	})
	if err != nil {
		return CreateQuizReply{Err: err}
	}

	q := quiz.Quiz{
		ID:        uuid.NewString(),
		Name:      name,
		HostCode:  hostCode,
		Questions: questions,
	}
	h.quizzes[q.ID] = q
	h.log.Info("quiz created", zap.String("quiz_id", q.ID), zap.Int("questions", len(questions)))
	h.save()
	return CreateQuizReply{QuizID: q.ID, HostCode: hostCode}
}

func (h *Hub) startSession(hostCode string) StartSessionReply {
	var found *quiz.Quiz
	for _, q := range h.quizzes {
		if q.HostCode == hostCode {
			found = &q
			break
		}
	}
	if found == nil {
		return StartSessionReply{}
	}

	joinCode, err := code.Unique(h.cfg.JoinCodeLen, func(c string) bool {
		return h.sessions[c] != nil
	})
	if err != nil {
		return StartSessionReply{}
	}

	maxPowerUps := 0
	if h.cfg.PowerUpDivisor > 0 {
		maxPowerUps = len(found.Questions) / h.cfg.PowerUpDivisor
	}
	state := game.NewState(joinCode, *found, maxPowerUps, h.cfg.PowerUpBonus)

	sess := session.New(h.ctx, state,
		session.Config{PlayerIDLen: h.cfg.PlayerIDLen, TickInterval: h.cfg.LeaderboardInterval},
		h.onSessionEnd,
		h.log.Named("session").With(zap.String("join_code", joinCode)),
	)
	h.sessions[joinCode] = sess
	h.log.Info("session started", zap.String("join_code", joinCode), zap.String("quiz_id", found.ID))
	h.save()
	return StartSessionReply{JoinCode: joinCode, OK: true}
}

// onSessionEnd runs on the ending session's loop; it only posts a message.
func (h *Hub) onSessionEnd(joinCode string) {
	select {
	case h.inbox <- RemoveSession{JoinCode: joinCode}:
	default:
		h.log.Warn("dropped session removal, hub inbox full", zap.String("join_code", joinCode))
	}
}

// save checkpoints the document. Snapshot assembly happens on the hub loop;
// the write is queued to a single writer goroutine so snapshots reach the
// store in the order they were taken.
func (h *Hub) save() {
	select {
	case h.saves <- h.snapshot():
	default:
		// Writer is backed up; the next mutation checkpoints again.
		h.log.Debug("checkpoint skipped, writer busy")
	}
}

func (h *Hub) saver() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case snap := <-h.saves:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := h.store.Save(ctx, snap); err != nil {
				h.log.Warn("checkpoint failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func (h *Hub) snapshot() store.Snapshot {
	snap := store.NewSnapshot()
	for id, q := range h.quizzes {
		snap.Quizzes[id] = q
	}
	for joinCode, sess := range h.sessions {
		reply := make(chan session.View, 1)
		select {
		case sess.Inbox() <- session.GetState{Reply: reply}:
		default:
			continue
		}
		select {
		case v := <-reply:
			snap.Sessions[joinCode] = sessionRecord(v.State)
		case <-time.After(100 * time.Millisecond):
			// Best-effort: a wedged session just misses this checkpoint.
		}
	}
	return snap
}

func sessionRecord(s game.State) store.SessionRecord {
	rec := store.SessionRecord{
		QuizID:          s.QuizID,
		JoinCode:        s.JoinCode,
		CurrentQuestion: s.Current,
		Players:         map[string]store.PlayerRecord{},
	}
	for id, p := range s.Players {
		rec.Players[id] = store.PlayerRecord{
			Name:         p.Name,
			Score:        p.Score,
			Answered:     p.Answered,
			LastAnswer:   p.LastAnswer,
			PowerUpsUsed: p.PowerUpsUsed,
		}
	}
	return rec
}

func (h *Hub) shutdown() {
	for joinCode, sess := range h.sessions {
		select {
		case sess.Inbox() <- session.Shutdown{}:
		default:
		}
		delete(h.sessions, joinCode)
	}
	h.cancel()
}
