package types

import "github.com/mkrijger/quizroom-backend/internal/game"

// Client -> server event names.
const (
	MsgHostJoin   = "host-join"
	MsgPlayerJoin = "player-join"
	MsgAnswer     = "answer"
	MsgPowerUp    = "powerup"
	MsgNext       = "next"
)

// Server -> client event names.
const (
	MsgQuestion    = "question"
	MsgLeaderboard = "leaderboard"
	MsgFeedback    = "feedback"
	MsgEnd         = "end"
	MsgError       = "error"
)

type ClientMessage struct {
	Type     string `json:"type"`
	JoinCode string `json:"join_code,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

type ServerMessage struct {
	Type        string             `json:"type"`
	Question    *game.QuestionView `json:"question,omitempty"`
	Leaderboard []game.Standing    `json:"leaderboard,omitempty"`
	Feedback    *game.Feedback     `json:"feedback,omitempty"`
	Error       string             `json:"error,omitempty"`
}
