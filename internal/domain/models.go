package domain

import "time"

// AnswerOption is one selectable answer of a question.
type AnswerOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Question is distributed by the controller (or the fallback bank) and never authored by a client.
type Question struct {
	ID         string         `json:"id"`
	Prompt     string         `json:"prompt"`
	Category   string         `json:"category,omitempty"`
	Difficulty string         `json:"difficulty,omitempty"`
	Options    []AnswerOption `json:"options"`
}

// CorrectIndex returns the index of the first option flagged correct, or -1.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt.Correct {
			return i
		}
	}
	return -1
}

// HasOption reports whether idx addresses one of the question's options.
func (q Question) HasOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// Phase is what the local participant currently sees.
type Phase string

const (
	PhaseWaitingForGame   Phase = "waiting_for_game"
	PhasePlaying          Phase = "playing"
	PhaseWaitingForOthers Phase = "waiting_for_others"
	PhaseAnswered         Phase = "answered"
	PhaseLeaderboard      Phase = "leaderboard"
	PhaseFinished         Phase = "finished"
)

// Phases lists every phase a client can be in.
var Phases = []Phase{
	PhaseWaitingForGame,
	PhasePlaying,
	PhaseWaitingForOthers,
	PhaseAnswered,
	PhaseLeaderboard,
	PhaseFinished,
}

// Valid reports whether p is one of the six defined phases.
func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// InGame reports whether the phase belongs to a running session.
func (p Phase) InGame() bool {
	switch p {
	case PhasePlaying, PhaseWaitingForOthers, PhaseAnswered, PhaseLeaderboard:
		return true
	}
	return false
}

// Correctness is the tri-state outcome shown after results.
type Correctness string

const (
	CorrectnessUnknown Correctness = "unknown"
	CorrectnessTrue    Correctness = "true"
	CorrectnessFalse   Correctness = "false"
)

// CorrectnessOf compares a chosen answer to the revealed correct index.
func CorrectnessOf(chosen, correct int, answered bool) Correctness {
	if !answered {
		return CorrectnessUnknown
	}
	if chosen == correct {
		return CorrectnessTrue
	}
	return CorrectnessFalse
}

// AnswerRecord is the locally chosen answer for one question.
type AnswerRecord struct {
	QuestionIndex  int       `json:"questionIndex"`
	AnswerIndex    int       `json:"answerIndex"`
	SubmittedAt    time.Time `json:"submittedAt"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
}

// Participant is someone present in the session, as reported by the controller.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// LeaderboardEntry is a controller-ranked scoreboard row.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
	Rank          int    `json:"rank"`
}

// Settings are the session options the host can change.
type Settings struct {
	QuestionTimeMs int64  `json:"questionTimeMs,omitempty"`
	TotalQuestions int    `json:"totalQuestions,omitempty"`
	Category       string `json:"category,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
}

// QuestionBank is a named, ordered set of questions.
type QuestionBank struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}
