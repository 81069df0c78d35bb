package app

import (
	"time"

	"github.com/google/uuid"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// maxRecoveryAttempts covers the first state-request and one retry.
const maxRecoveryAttempts = 2

type recoveryState struct {
	requestID string
	attempts  int
	awaiting  bool
}

func (c *Client) beginRecoveryLocked() {
	c.recovery = recoveryState{requestID: uuid.NewString(), attempts: 1, awaiting: true}
	c.sendStateRequestLocked()
}

func (c *Client) sendStateRequestLocked() {
	c.emit(protocol.StateRequest{
		ParticipantID: c.cfg.ParticipantID,
		RequestID:     c.recovery.requestID,
	})
	c.retry.Start(c.cfg.RecoveryRetryDelay, c.onRecoveryTimeout)
	c.dirty = true
}

func (c *Client) onRecoveryTimeout(gen uint64) {
	c.mu.Lock()
	defer c.release()

	if !c.retry.Claim(gen) || !c.recovery.awaiting {
		return
	}
	if c.recovery.attempts < maxRecoveryAttempts {
		c.recovery.attempts++
		c.log.Debug().Int("attempt", c.recovery.attempts).Msg("retrying state request")
		c.sendStateRequestLocked()
		return
	}
	c.recovery.awaiting = false
	c.degraded = true
	c.dirty = true
	c.log.Warn().Str("phase", string(c.phase)).Msg("no state response from controller, running degraded")
	c.maybeStartFallbackLocked()
}

func (c *Client) onStateResponse(m protocol.StateResponse) {
	if m.TargetParticipantID != c.cfg.ParticipantID {
		return
	}
	// Unstamped responses are pushed by the controller and still go through the
	// stale guards in applySnapshotLocked; stamped ones must answer our
	// latest request.
	if m.RequestID != "" && m.RequestID != c.recovery.requestID {
		c.log.Debug().Str("request_id", m.RequestID).Msg("ignoring state-response for another request")
		return
	}
	c.retry.Cancel()
	c.recovery.awaiting = false
	c.degraded = false
	c.dirty = true
	c.applySnapshotLocked(m.Snapshot)
}

// snapshotStage orders the in-game snapshot phases within one question.
func snapshotStage(p protocol.SnapshotPhase) int {
	switch p {
	case protocol.SnapshotResults:
		return 1
	case protocol.SnapshotLeaderboard:
		return 2
	}
	return 0
}

func (c *Client) stageLocked() int {
	switch c.phase {
	case domain.PhaseAnswered:
		return 1
	case domain.PhaseLeaderboard:
		return 2
	}
	return 0
}

func snapshotInGame(p protocol.SnapshotPhase) bool {
	switch p {
	case protocol.SnapshotPlaying, protocol.SnapshotResults, protocol.SnapshotLeaderboard:
		return true
	}
	return false
}

// applySnapshotLocked rebuilds state from a snapshot so the result matches a
// client that processed every broadcast since game-start. Snapshots older than
// what the client already shows are dropped.
func (c *Client) applySnapshotLocked(s protocol.Snapshot) {
	if s.Phase == protocol.SnapshotWaiting && c.phase.InGame() {
		c.log.Debug().Msg("ignoring waiting snapshot during a game")
		return
	}
	newSession := s.SessionID != "" && c.sessionID != "" && s.SessionID != c.sessionID
	if c.phase == domain.PhaseFinished && snapshotInGame(s.Phase) && (s.SessionID == "" || s.SessionID == c.sessionID) {
		c.log.Debug().Int("index", s.QuestionIndex).Str("phase", string(s.Phase)).Msg("stale snapshot for finished session")
		return
	}
	if snapshotInGame(s.Phase) && c.phase.InGame() && !newSession {
		if s.QuestionIndex < c.questionIndex ||
			(s.QuestionIndex == c.questionIndex && snapshotStage(s.Phase) < c.stageLocked()) {
			c.log.Debug().Int("index", s.QuestionIndex).Str("phase", string(s.Phase)).Msg("stale snapshot")
			return
		}
	}
	if newSession || (snapshotInGame(s.Phase) && !c.phase.InGame()) ||
		(s.Phase == protocol.SnapshotWaiting && c.phase == domain.PhaseFinished) {
		c.resetSessionLocked()
	}

	if s.SessionID != "" {
		c.sessionID = s.SessionID
	}
	if s.Settings != nil {
		c.settings = *s.Settings
		if s.Settings.TotalQuestions > 0 {
			c.totalQuestions = s.Settings.TotalQuestions
		}
	}
	if s.TotalQuestions > 0 {
		c.totalQuestions = s.TotalQuestions
	}
	if s.Participants != nil {
		c.participants = append([]domain.Participant(nil), s.Participants...)
		c.fetchAvatarsLocked(c.participantIDs())
	}
	if s.HostID != "" {
		c.host.Observe(s.HostID)
	}
	if v, ok := s.Scores[c.cfg.ParticipantID]; ok {
		c.score.confirm(v)
	}
	if s.Scores != nil {
		c.scores = cloneScores(s.Scores)
	}
	if len(s.Leaderboard) > 0 {
		c.setLeaderboardLocked(s.QuestionIndex, s.Leaderboard)
	}

	switch s.Phase {
	case protocol.SnapshotWaiting:
		c.setPhase(domain.PhaseWaitingForGame)
	case protocol.SnapshotPlaying:
		c.applyPlayingSnapshotLocked(s)
	case protocol.SnapshotResults, protocol.SnapshotLeaderboard:
		c.applyRevealSnapshotLocked(s)
	case protocol.SnapshotFinished:
		c.finishLocked()
	default:
		c.log.Debug().Str("phase", string(s.Phase)).Msg("unknown snapshot phase")
	}
}

func (c *Client) applyPlayingSnapshotLocked(s protocol.Snapshot) {
	if s.QuestionIndex < 0 {
		// started, no question shown yet
		c.setPhase(domain.PhasePlaying)
		return
	}
	remaining := time.Duration(s.TimeRemainingMs) * time.Millisecond
	if s.QuestionIndex != c.questionIndex {
		c.beginQuestionLocked(s.QuestionIndex, s.Question, remaining)
	} else {
		c.fillQuestionLocked(s.Question)
		if remaining > 0 {
			c.deadline = c.clock.Now().Add(remaining)
		}
	}
	for i := 0; i < s.QuestionIndex; i++ {
		c.ledger.Seal(i)
	}
	c.setAnsweredLocked(s.Answered)

	if c.phase == domain.PhasePlaying || c.phase == domain.PhaseWaitingForOthers {
		return
	}
	c.setPhase(domain.PhasePlaying)
}

func (c *Client) applyRevealSnapshotLocked(s protocol.Snapshot) {
	idx := s.QuestionIndex
	if idx < 0 {
		c.setPhase(domain.PhasePlaying)
		return
	}
	if idx != c.questionIndex {
		c.beginQuestionLocked(idx, s.Question, 0)
	} else {
		c.fillQuestionLocked(s.Question)
	}
	for i := 0; i <= idx; i++ {
		c.ledger.Seal(i)
	}
	if idx > c.resultsIndex {
		c.resultsIndex = idx
	}
	c.deadline = time.Time{}
	c.correctIndex = s.CorrectAnswerIndex
	c.answerCounts = append([]int(nil), s.AnswerCounts...)
	c.setAnsweredLocked(s.Answered)
	c.revealLocked(idx)
	// the snapshot score is already authoritative; no acknowledgment follows
	c.ledger.MarkAwarded(idx)

	if s.Phase == protocol.SnapshotLeaderboard {
		c.setPhase(domain.PhaseLeaderboard)
	} else {
		c.setPhase(domain.PhaseAnswered)
	}
	c.maybeStartFallbackLocked()
}
