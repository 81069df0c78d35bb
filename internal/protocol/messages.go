// Package protocol defines the closed set of messages exchanged between the
// authoritative controller and client instances.
package protocol

import "phone-trivia/internal/domain"

// Kind names a message on the wire.
type Kind string

// Controller -> clients.
const (
	KindQuestionShow    Kind = "question-show"
	KindResults         Kind = "results"
	KindLeaderboard     Kind = "leaderboard"
	KindPlayerUpdate    Kind = "player-update"
	KindGameStart       Kind = "game-start"
	KindGameEnd         Kind = "game-end"
	KindGameReset       Kind = "game-reset"
	KindSettingsUpdate  Kind = "settings-update"
	KindStateResponse   Kind = "state-response"
	KindHostChanged     Kind = "host-changed"
	KindControllerReady Kind = "controller-ready"
)

// Client -> controller.
const (
	KindAnswerSubmitted Kind = "answer-submitted"
	KindNextQuestion    Kind = "next-question"
	KindStateRequest    Kind = "state-request"
	KindSettingsChange  Kind = "settings-change"
	KindAwardPoints     Kind = "award-points"
	KindStartGame       Kind = "start-game"
	KindEndGame         Kind = "end-game"
	KindPlayAgain       Kind = "play-again"
)

// FromController reports whether kind is broadcast by the controller.
func (k Kind) FromController() bool {
	switch k {
	case KindQuestionShow, KindResults, KindLeaderboard, KindPlayerUpdate, KindGameStart,
		KindGameEnd, KindGameReset, KindSettingsUpdate, KindStateResponse, KindHostChanged,
		KindControllerReady:
		return true
	}
	return false
}

// Message is implemented only by the types in this package.
type Message interface {
	Kind() Kind
	isMessage()
}

// QuestionShow announces the question at QuestionIndex. Question may be nil,
// in which case clients resolve it from their local bank.
type QuestionShow struct {
	QuestionIndex  int              `json:"questionIndex"`
	TotalQuestions int              `json:"totalQuestions,omitempty"`
	Question       *domain.Question `json:"question,omitempty"`
	TimeLimitMs    int64            `json:"timeLimitMs,omitempty"`
}

// Results reveals the correct answer for QuestionIndex.
type Results struct {
	QuestionIndex      int                       `json:"questionIndex"`
	CorrectAnswerIndex int                       `json:"correctAnswerIndex"`
	AnswerCounts       []int                     `json:"answerCounts,omitempty"`
	Scores             map[string]int            `json:"scores,omitempty"`
	Leaderboard        []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
	ShowLeaderboard    bool                      `json:"showLeaderboard,omitempty"`
}

// Leaderboard carries ranking data after a question.
type Leaderboard struct {
	QuestionIndex int                       `json:"questionIndex"`
	Entries       []domain.LeaderboardEntry `json:"entries"`
}

// PlayerUpdate is the presence and answer tally of the session.
type PlayerUpdate struct {
	QuestionIndex int                  `json:"questionIndex"`
	Participants  []domain.Participant `json:"participants"`
	Answered      []string             `json:"answered,omitempty"`
	HostID        string               `json:"hostId,omitempty"`
}

// GameStart begins a session.
type GameStart struct {
	SessionID      string           `json:"sessionId,omitempty"`
	HostID         string           `json:"hostId,omitempty"`
	TotalQuestions int              `json:"totalQuestions,omitempty"`
	Settings       *domain.Settings `json:"settings,omitempty"`
}

// GameEnd finishes a session.
type GameEnd struct {
	Scores      map[string]int            `json:"scores,omitempty"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// GameReset returns every client to the waiting screen.
type GameReset struct {
	ClearHost bool `json:"clearHost,omitempty"`
}

// SettingsUpdate broadcasts the current session settings.
type SettingsUpdate struct {
	Settings domain.Settings `json:"settings"`
}

// StateResponse answers a StateRequest with a full snapshot.
type StateResponse struct {
	TargetParticipantID string   `json:"targetParticipantId"`
	RequestID           string   `json:"requestId,omitempty"`
	Snapshot            Snapshot `json:"snapshot"`
}

// HostChanged replaces the pinned host.
type HostChanged struct {
	HostID string `json:"hostId"`
}

// ControllerReady is broadcast whenever a controller registers.
type ControllerReady struct {
	ControllerID string `json:"controllerId,omitempty"`
}

// AnswerSubmitted is sent by a client once per local answer selection.
type AnswerSubmitted struct {
	ParticipantID  string `json:"participantId"`
	QuestionIndex  int    `json:"questionIndex"`
	AnswerIndex    int    `json:"answerIndex"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}

// NextQuestion asks the controller to advance (host only).
type NextQuestion struct {
	ParticipantID string `json:"participantId"`
	FromIndex     int    `json:"fromIndex"`
}

// StateRequest asks the controller for a snapshot.
type StateRequest struct {
	ParticipantID string `json:"participantId"`
	RequestID     string `json:"requestId,omitempty"`
}

// SettingsChange asks the controller to change settings (host only).
type SettingsChange struct {
	ParticipantID string          `json:"participantId"`
	Settings      domain.Settings `json:"settings"`
}

// AwardPoints acknowledges points awarded for one question.
type AwardPoints struct {
	ParticipantID string `json:"participantId"`
	QuestionIndex int    `json:"questionIndex"`
	Points        int    `json:"points"`
	Total         int    `json:"total"`
}

// StartGame asks the controller to start a session (host only).
type StartGame struct {
	ParticipantID string `json:"participantId"`
}

// EndGame asks the controller to end the session (host only).
type EndGame struct {
	ParticipantID string `json:"participantId"`
}

// PlayAgain asks the controller to reset the session (host only).
type PlayAgain struct {
	ParticipantID string `json:"participantId"`
}

func (QuestionShow) Kind() Kind    { return KindQuestionShow }
func (Results) Kind() Kind         { return KindResults }
func (Leaderboard) Kind() Kind     { return KindLeaderboard }
func (PlayerUpdate) Kind() Kind    { return KindPlayerUpdate }
func (GameStart) Kind() Kind       { return KindGameStart }
func (GameEnd) Kind() Kind         { return KindGameEnd }
func (GameReset) Kind() Kind       { return KindGameReset }
func (SettingsUpdate) Kind() Kind  { return KindSettingsUpdate }
func (StateResponse) Kind() Kind   { return KindStateResponse }
func (HostChanged) Kind() Kind     { return KindHostChanged }
func (ControllerReady) Kind() Kind { return KindControllerReady }
func (AnswerSubmitted) Kind() Kind { return KindAnswerSubmitted }
func (NextQuestion) Kind() Kind    { return KindNextQuestion }
func (StateRequest) Kind() Kind    { return KindStateRequest }
func (SettingsChange) Kind() Kind  { return KindSettingsChange }
func (AwardPoints) Kind() Kind     { return KindAwardPoints }
func (StartGame) Kind() Kind       { return KindStartGame }
func (EndGame) Kind() Kind         { return KindEndGame }
func (PlayAgain) Kind() Kind       { return KindPlayAgain }

func (QuestionShow) isMessage()    {}
func (Results) isMessage()         {}
func (Leaderboard) isMessage()     {}
func (PlayerUpdate) isMessage()    {}
func (GameStart) isMessage()       {}
func (GameEnd) isMessage()         {}
func (GameReset) isMessage()       {}
func (SettingsUpdate) isMessage()  {}
func (StateResponse) isMessage()   {}
func (HostChanged) isMessage()     {}
func (ControllerReady) isMessage() {}
func (AnswerSubmitted) isMessage() {}
func (NextQuestion) isMessage()    {}
func (StateRequest) isMessage()    {}
func (SettingsChange) isMessage()  {}
func (AwardPoints) isMessage()     {}
func (StartGame) isMessage()       {}
func (EndGame) isMessage()         {}
func (PlayAgain) isMessage()       {}
