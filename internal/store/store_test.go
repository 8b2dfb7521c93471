package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrijger/quizroom-backend/internal/quiz"
)

func testSnapshot() Snapshot {
	snap := NewSnapshot()
	snap.Quizzes["quiz-1"] = quiz.Quiz{
		ID:       "quiz-1",
		Name:     "capitals",
		HostCode: "123456",
		Questions: []quiz.Question{
			{Text: "Capital of France?", Answers: []string{"Paris", "Lyon"}, Correct: "Paris"},
		},
	}
	snap.Sessions["54321"] = SessionRecord{
		QuizID:          "quiz-1",
		JoinCode:        "54321",
		CurrentQuestion: 0,
		Players: map[string]PlayerRecord{
			"1111": {Name: "alice", Score: 500},
		},
	}
	return snap
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	empty, err := m.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty.Quizzes)
	require.Empty(t, empty.Sessions)

	want := testSnapshot()
	require.NoError(t, m.Save(ctx, want))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := NewFile(filepath.Join(t.TempDir(), "db.json"))

	// Missing file is an empty document, not an error.
	empty, err := f.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty.Quizzes)
	require.Empty(t, empty.Sessions)

	want := testSnapshot()
	require.NoError(t, f.Save(ctx, want))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFile_LoadRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f := NewFile(path)
	_, err := f.Load(ctx)
	require.Error(t, err)
}
