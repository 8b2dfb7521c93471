package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkrijger/quizroom-backend/internal/game"
	"github.com/mkrijger/quizroom-backend/internal/hub"
	"github.com/mkrijger/quizroom-backend/internal/session"
	"github.com/mkrijger/quizroom-backend/internal/types"
)

// Handler upgrades the connection and relays between it and a session.
// The first host-join/player-join message binds the connection to a room;
// everything after that is fire-and-forget into the session's inbox.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan types.ServerMessage, 8)

		var sess *session.Session
		defer func() {
			if sess != nil {
				sess.Inbox() <- session.Leave{ClientID: clientID}
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg := <-out:
					payload, _ := json.Marshal(msg)
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		// Reader loop. No per-read deadline: players sit idle for as long
		// as the host leaves a question open, so the connection lives until
		// the request context ends or the peer closes.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","error":"bad json"}`))
				continue
			}

			switch cm.Type {
			case types.MsgHostJoin, types.MsgPlayerJoin:
				if sess == nil {
					reply := make(chan *session.Session, 1)
					h.Inbox() <- hub.GetSession{JoinCode: cm.JoinCode, Reply: reply}
					sess = <-reply
					if sess == nil {
						// Unknown room: no error channel back to sockets.
						log.Debug("join for unknown session", zap.String("join_code", cm.JoinCode))
						continue
					}
				}
				// Re-joining just resends the current question.
				sess.Inbox() <- session.Join{ClientID: clientID, PlayerID: cm.PlayerID, Outbox: out}

			case types.MsgAnswer:
				if sess == nil {
					continue
				}
				sess.Inbox() <- session.FromClient{Cmd: game.Command{
					Type:     game.CmdSubmitAnswer,
					PlayerID: cm.PlayerID,
					Answer:   cm.Answer,
					At:       time.Now(),
				}}

			case types.MsgPowerUp:
				if sess == nil {
					continue
				}
				sess.Inbox() <- session.FromClient{Cmd: game.Command{
					Type:     game.CmdUsePowerUp,
					PlayerID: cm.PlayerID,
				}}

			case types.MsgNext:
				if sess == nil {
					continue
				}
				sess.Inbox() <- session.FromClient{Cmd: game.Command{Type: game.CmdAdvance}}

			default:
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","error":"unknown type"}`))
			}
		}
	}
}
