// Package store persists registry state as a single document with two
// top-level mappings, quizzes and sessions. Saves are best-effort; game
// correctness never depends on durability.
package store

import (
	"context"

	"github.com/mkrijger/quizroom-backend/internal/quiz"
)

type PlayerRecord struct {
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Answered     bool   `json:"answered"`
	LastAnswer   string `json:"last,omitempty"`
	PowerUpsUsed int    `json:"powerUpsUsed"`
}

type SessionRecord struct {
	QuizID          string                  `json:"quizId"`
	JoinCode        string                  `json:"joinCode"`
	CurrentQuestion int                     `json:"currentQ"`
	Players         map[string]PlayerRecord `json:"players"`
}

type Snapshot struct {
	Quizzes  map[string]quiz.Quiz     `json:"quizzes"`
	Sessions map[string]SessionRecord `json:"sessions"`
}

func NewSnapshot() Snapshot {
	return Snapshot{
		Quizzes:  map[string]quiz.Quiz{},
		Sessions: map[string]SessionRecord{},
	}
}

type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
