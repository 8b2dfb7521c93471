package game

import "sort"

type Standing struct {
	Place int    `json:"place"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Leaderboard projects the roster into display order: descending by score,
// ties broken by join order so the output is deterministic. Place is the
// 1-based position in the sorted sequence; tied scores do not share a place.
func Leaderboard(s State) []Standing {
	ids := make([]string, len(s.Order))
	copy(ids, s.Order)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.Players[ids[i]].Score > s.Players[ids[j]].Score
	})

	board := make([]Standing, 0, len(ids))
	for i, id := range ids {
		p := s.Players[id]
		board = append(board, Standing{Place: i + 1, Name: p.Name, Score: p.Score})
	}
	return board
}
