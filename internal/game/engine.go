package game

import (
	"errors"
	"sort"
	"time"

	"github.com/mkrijger/quizroom-backend/internal/quiz"
)

var ErrSessionEnded = errors.New("session already ended")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrPlayerExists = errors.New("player id already taken")
var ErrAlreadyAnswered = errors.New("already answered this question")
var ErrPowerUpsExhausted = errors.New("power-ups exhausted")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Speed-ranked awards: the answer at 0-based rank i among all answers
// recorded this round scores max(500-50*i, 50) when correct, 0 otherwise.
const (
	MaxAward  = 500
	AwardStep = 50
	MinAward  = 50
)

type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Answered     bool   `json:"answered"`
	LastAnswer   string `json:"lastAnswer,omitempty"`
	PowerUpsUsed int    `json:"powerUpsUsed"`
}

// AnswerRecord captures arrival order for the current question only.
type AnswerRecord struct {
	PlayerID string
	At       time.Time
}

type State struct {
	JoinCode     string
	QuizID       string
	Questions    []quiz.Question
	Current      int // 0 <= Current <= len(Questions); == len means ended
	Players      map[string]*Player
	Order        []string // join order, leaderboard tie-break
	AnswerLog    []AnswerRecord
	MaxPowerUps  int
	PowerUpBonus int
}

func NewState(joinCode string, q quiz.Quiz, maxPowerUps, powerUpBonus int) State {
	return State{
		JoinCode:     joinCode,
		QuizID:       q.ID,
		Questions:    q.Questions,
		Current:      0,
		Players:      map[string]*Player{},
		MaxPowerUps:  maxPowerUps,
		PowerUpBonus: powerUpBonus,
	}
}

func (s State) Ended() bool { return s.Current >= len(s.Questions) }

// Clone deep-copies the mutable parts of the state so the copy can cross
// goroutine boundaries. Questions are immutable after quiz creation and
// stay shared.
func (s State) Clone() State {
	out := s
	out.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		out.Players[id] = &cp
	}
	out.Order = append([]string(nil), s.Order...)
	out.AnswerLog = append([]AnswerRecord(nil), s.AnswerLog...)
	return out
}

// CurrentQuestion is the public view sent to clients: never the correct answer.
func (s State) CurrentQuestion() (QuestionView, bool) {
	if s.Ended() {
		return QuestionView{}, false
	}
	q := s.Questions[s.Current]
	return QuestionView{
		Index:   s.Current,
		Total:   len(s.Questions),
		Text:    q.Text,
		Answers: q.Answers,
	}, true
}

type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
}

type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

type CommandType string

const (
	CmdAddPlayer    CommandType = "AddPlayer"
	CmdSubmitAnswer CommandType = "SubmitAnswer"
	CmdUsePowerUp   CommandType = "UsePowerUp"
	CmdAdvance      CommandType = "Advance"
)

type Command struct {
	Type     CommandType
	PlayerID string
	Name     string
	Answer   string
	At       time.Time
}

type EventType string

const (
	EvtQuestion    EventType = "Question"
	EvtFeedback    EventType = "Feedback"
	EvtLeaderboard EventType = "Leaderboard"
	EvtEnded       EventType = "Ended"
)

// Event is an outbound effect. PlayerID set means "deliver to that player
// only"; empty means the whole room.
type Event struct {
	Type     EventType
	PlayerID string
	Question *QuestionView
	Feedback *Feedback
}

func Apply(s State, cmd Command) ([]Event, State, error) {

	if s.Ended() {
		return nil, s, ErrSessionEnded
	}

	newState := s

	switch cmd.Type {
	case CmdAddPlayer:
		if _, taken := s.Players[cmd.PlayerID]; taken {
			return nil, s, ErrPlayerExists
		}
		newState.Players[cmd.PlayerID] = &Player{ID: cmd.PlayerID, Name: cmd.Name}
		newState.Order = append(newState.Order, cmd.PlayerID)
		return []Event{{Type: EvtLeaderboard}}, newState, nil

	case CmdSubmitAnswer:
		p, ok := s.Players[cmd.PlayerID]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if p.Answered {
			// Second submission for the same question is a no-op, not corruption.
			return nil, s, ErrAlreadyAnswered
		}
		p.Answered = true
		p.LastAnswer = cmd.Answer
		newState.AnswerLog = append(newState.AnswerLog, AnswerRecord{PlayerID: cmd.PlayerID, At: cmd.At})

		correct := cmd.Answer == s.Questions[s.Current].Correct
		fb := &Feedback{Correct: correct}
		if !correct {
			// Only wrong answers learn the correct one; everyone else waits.
			fb.CorrectAnswer = s.Questions[s.Current].Correct
		}
		events := []Event{
			{Type: EvtFeedback, PlayerID: cmd.PlayerID, Feedback: fb},
			{Type: EvtLeaderboard},
		}
		return events, newState, nil

	case CmdUsePowerUp:
		p, ok := s.Players[cmd.PlayerID]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if p.PowerUpsUsed >= s.MaxPowerUps {
			return nil, s, ErrPowerUpsExhausted
		}
		p.PowerUpsUsed++
		p.Score += s.PowerUpBonus
		return []Event{{Type: EvtLeaderboard}}, newState, nil

	case CmdAdvance:
		scoreRound(&newState)
		for _, id := range newState.Order {
			newState.Players[id].Answered = false
			newState.Players[id].LastAnswer = ""
		}
		newState.AnswerLog = nil
		newState.Current++

		if newState.Ended() {
			return []Event{{Type: EvtEnded}}, newState, nil
		}
		view, _ := newState.CurrentQuestion()
		events := []Event{
			{Type: EvtQuestion, Question: &view},
			{Type: EvtLeaderboard},
		}
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// scoreRound applies the speed-ranked policy for the current question.
// Rank is position among all recorded answers, correct or not; ties on
// timestamp keep submission order (stable sort).
func scoreRound(s *State) {
	log := make([]AnswerRecord, len(s.AnswerLog))
	copy(log, s.AnswerLog)
	sort.SliceStable(log, func(i, j int) bool { return log[i].At.Before(log[j].At) })

	correct := s.Questions[s.Current].Correct
	for i, rec := range log {
		p := s.Players[rec.PlayerID]
		if p == nil || p.LastAnswer != correct {
			continue
		}
		award := MaxAward - AwardStep*i
		if award < MinAward {
			award = MinAward
		}
		p.Score += award
	}
}
