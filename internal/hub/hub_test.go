package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mkrijger/quizroom-backend/internal/config"
	"github.com/mkrijger/quizroom-backend/internal/game"
	"github.com/mkrijger/quizroom-backend/internal/quiz"
	"github.com/mkrijger/quizroom-backend/internal/session"
	"github.com/mkrijger/quizroom-backend/internal/store"
)

func advanceCmd() game.Command {
	return game.Command{Type: game.CmdAdvance}
}

func testQuestions() []quiz.Question {
	return []quiz.Question{
		{Text: "Capital of France?", Answers: []string{"Paris", "Lyon"}, Correct: "Paris"},
		{Text: "Capital of Italy?", Answers: []string{"Rome", "Milan"}, Correct: "Rome"},
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h, err := NewHub(ctx, config.Default(), store.NewMemory(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	return h
}

func createQuiz(t *testing.T, h *Hub) CreateQuizReply {
	t.Helper()
	reply := make(chan CreateQuizReply, 1)
	h.Inbox() <- CreateQuiz{Name: "capitals", Questions: testQuestions(), Reply: reply}
	res := <-reply
	if res.Err != nil {
		t.Fatalf("create quiz: %v", res.Err)
	}
	return res
}

func getSession(h *Hub, joinCode string) *session.Session {
	reply := make(chan *session.Session, 1)
	h.Inbox() <- GetSession{JoinCode: joinCode, Reply: reply}
	return <-reply
}

func TestHub_CreateStartJoinFlow(t *testing.T) {
	h := newTestHub(t)

	created := createQuiz(t, h)
	if created.QuizID == "" || len(created.HostCode) != 6 {
		t.Fatalf("created = %+v, want quiz id and 6-digit host code", created)
	}

	startReply := make(chan StartSessionReply, 1)
	h.Inbox() <- StartSession{HostCode: created.HostCode, Reply: startReply}
	started := <-startReply
	if !started.OK || len(started.JoinCode) != 5 {
		t.Fatalf("started = %+v, want ok with 5-digit join code", started)
	}

	if getSession(h, started.JoinCode) == nil {
		t.Fatalf("session %q not registered", started.JoinCode)
	}
}

func TestHub_StartSessionUnknownHostCode(t *testing.T) {
	h := newTestHub(t)

	reply := make(chan StartSessionReply, 1)
	h.Inbox() <- StartSession{HostCode: "000000", Reply: reply}
	if res := <-reply; res.OK {
		t.Fatalf("expected ok=false for unknown host code, got %+v", res)
	}
}

func TestHub_CreateQuizValidation(t *testing.T) {
	h := newTestHub(t)

	reply := make(chan CreateQuizReply, 1)
	h.Inbox() <- CreateQuiz{Name: "empty", Questions: nil, Reply: reply}
	res := <-reply
	if !errors.Is(res.Err, quiz.ErrInvalidQuiz) {
		t.Fatalf("want ErrInvalidQuiz, got %v", res.Err)
	}
}

func TestHub_ListQuizzes(t *testing.T) {
	h := newTestHub(t)
	created := createQuiz(t, h)

	reply := make(chan []quiz.Summary, 1)
	h.Inbox() <- ListQuizzes{Reply: reply}
	list := <-reply

	if len(list) != 1 || list[0].ID != created.QuizID || list[0].QuestionCount != 2 {
		t.Fatalf("list = %+v", list)
	}
}

func TestHub_RemoveSessionIsIdempotent(t *testing.T) {
	h := newTestHub(t)
	created := createQuiz(t, h)

	startReply := make(chan StartSessionReply, 1)
	h.Inbox() <- StartSession{HostCode: created.HostCode, Reply: startReply}
	started := <-startReply

	h.Inbox() <- RemoveSession{JoinCode: started.JoinCode}
	h.Inbox() <- RemoveSession{JoinCode: started.JoinCode} // absent: no-op
	h.Inbox() <- RemoveSession{JoinCode: "99999"}          // never existed: no-op

	if sess := getSession(h, started.JoinCode); sess != nil {
		t.Fatalf("session still registered after removal")
	}
}

func TestHub_CheckpointOverlapsPlayerJoins(t *testing.T) {
	h := newTestHub(t)
	created := createQuiz(t, h)

	startReply := make(chan StartSessionReply, 1)
	h.Inbox() <- StartSession{HostCode: created.HostCode, Reply: startReply}
	started := <-startReply

	sess := getSession(h, started.JoinCode)
	if sess == nil {
		t.Fatalf("session not registered")
	}

	// Snapshot assembly must never alias the session's live roster; run
	// joins and checkpoints concurrently to give the race detector a shot.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			reply := make(chan session.AddPlayerResult, 1)
			sess.Inbox() <- session.AddPlayer{Name: "p", Reply: reply}
			<-reply
		}
	}()
	for i := 0; i < 50; i++ {
		h.Inbox() <- Checkpoint{}
	}
	<-done

	reply := make(chan session.View, 1)
	sess.Inbox() <- session.GetState{Reply: reply}
	select {
	case view := <-reply:
		if len(view.State.Players) != 50 {
			t.Fatalf("roster size=%d, want 50", len(view.State.Players))
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out reading session state")
	}
}

type recordingStore struct {
	mu     sync.Mutex
	counts []int // quizzes per saved snapshot, in write order
}

func (r *recordingStore) Load(context.Context) (store.Snapshot, error) {
	return store.NewSnapshot(), nil
}

func (r *recordingStore) Save(_ context.Context, snap store.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, len(snap.Quizzes))
	return nil
}

func (r *recordingStore) saved() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.counts...)
}

func TestHub_CheckpointsPersistInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recordingStore{}
	h, err := NewHub(ctx, config.Default(), rec, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}

	for i := 0; i < 3; i++ {
		createQuiz(t, h)
	}

	// Wait for the writer to flush a snapshot holding all three quizzes.
	deadline := time.After(2 * time.Second)
	for {
		counts := rec.saved()
		if len(counts) > 0 && counts[len(counts)-1] == 3 {
			// Single serialized writer: quiz counts may only grow.
			for i := 1; i < len(counts); i++ {
				if counts[i] < counts[i-1] {
					t.Fatalf("older snapshot persisted after a newer one: %v", counts)
				}
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("never saw a snapshot with all quizzes; saves=%v", counts)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHub_SessionEndRemovesItFromRegistry(t *testing.T) {
	h := newTestHub(t)
	created := createQuiz(t, h)

	startReply := make(chan StartSessionReply, 1)
	h.Inbox() <- StartSession{HostCode: created.HostCode, Reply: startReply}
	started := <-startReply

	sess := getSession(h, started.JoinCode)
	if sess == nil {
		t.Fatalf("session not registered")
	}

	// Drive the game to its terminal state: two advances for two questions.
	sess.Inbox() <- session.FromClient{Cmd: advanceCmd()}
	sess.Inbox() <- session.FromClient{Cmd: advanceCmd()}

	deadline := time.After(2 * time.Second)
	for getSession(h, started.JoinCode) != nil {
		select {
		case <-deadline:
			t.Fatalf("terminal session still in registry")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
