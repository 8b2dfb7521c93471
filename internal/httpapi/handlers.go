package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkrijger/quizroom-backend/internal/hub"
	"github.com/mkrijger/quizroom-backend/internal/quiz"
	"github.com/mkrijger/quizroom-backend/internal/session"
)

// Request/response callers never see errors, only success flags; the
// failure detail stays in the log.

func CreateQuiz(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	type request struct {
		Name      string          `json:"name"`
		Questions []quiz.Question `json:"questions"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
			return
		}

		reply := make(chan hub.CreateQuizReply, 1)
		h.Inbox() <- hub.CreateQuiz{Name: req.Name, Questions: req.Questions, Reply: reply}
		res := <-reply
		if res.Err != nil {
			log.Debug("create quiz rejected", zap.Error(res.Err))
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"quizId":   res.QuizID,
			"hostCode": res.HostCode,
		})
	}
}

func ListQuizzes(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []quiz.Summary, 1)
		h.Inbox() <- hub.ListQuizzes{Reply: reply}
		writeJSON(w, http.StatusOK, <-reply)
	}
}

func HostSession(h *hub.Hub) http.HandlerFunc {
	type request struct {
		HostCode string `json:"hostCode"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
			return
		}

		reply := make(chan hub.StartSessionReply, 1)
		h.Inbox() <- hub.StartSession{HostCode: req.HostCode, Reply: reply}
		res := <-reply
		if !res.OK {
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"joinCode": res.JoinCode,
		})
	}
}

func JoinSession(h *hub.Hub) http.HandlerFunc {
	type request struct {
		JoinCode string `json:"joinCode"`
		Username string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
			return
		}

		sessReply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{JoinCode: req.JoinCode, Reply: sessReply}
		sess := <-sessReply
		if sess == nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}

		// Player id allocation happens on the session's own loop. Select on
		// Done throughout: the session may end between lookup and reply.
		addReply := make(chan session.AddPlayerResult, 1)
		select {
		case sess.Inbox() <- session.AddPlayer{Name: req.Username, Reply: addReply}:
		case <-sess.Done():
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}

		var res session.AddPlayerResult
		select {
		case res = <-addReply:
		case <-sess.Done():
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}
		if !res.OK {
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}
		h.Inbox() <- hub.Checkpoint{}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"playerId": res.PlayerID,
			"joinCode": req.JoinCode,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
