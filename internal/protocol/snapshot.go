package protocol

import "phone-trivia/internal/domain"

// SnapshotPhase is the controller's view of the session phase.
type SnapshotPhase string

const (
	SnapshotWaiting     SnapshotPhase = "waiting"
	SnapshotPlaying     SnapshotPhase = "playing"
	SnapshotResults     SnapshotPhase = "results"
	SnapshotLeaderboard SnapshotPhase = "leaderboard"
	SnapshotFinished    SnapshotPhase = "finished"
)

// Snapshot is a full dump of session state, enough to rebuild a client
// without replaying history.
type Snapshot struct {
	SessionID          string                    `json:"sessionId,omitempty"`
	Phase              SnapshotPhase             `json:"phase"`
	QuestionIndex      int                       `json:"questionIndex"`
	TotalQuestions     int                       `json:"totalQuestions,omitempty"`
	Question           *domain.Question          `json:"question,omitempty"`
	TimeRemainingMs    int64                     `json:"timeRemainingMs,omitempty"`
	CorrectAnswerIndex int                       `json:"correctAnswerIndex"`
	AnswerCounts       []int                     `json:"answerCounts,omitempty"`
	Scores             map[string]int            `json:"scores,omitempty"`
	Leaderboard        []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
	Participants       []domain.Participant      `json:"participants,omitempty"`
	Answered           []string                  `json:"answered,omitempty"`
	HostID             string                    `json:"hostId,omitempty"`
	Settings           *domain.Settings          `json:"settings,omitempty"`
}
