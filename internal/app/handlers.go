package app

import (
	"time"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

func (c *Client) onQuestionShow(m protocol.QuestionShow) {
	if c.phase == domain.PhaseFinished || m.QuestionIndex < 0 {
		return
	}
	if m.QuestionIndex < c.questionIndex {
		c.log.Debug().Int("index", m.QuestionIndex).Int("current", c.questionIndex).Msg("stale question-show")
		return
	}
	if m.TotalQuestions > 0 {
		c.totalQuestions = m.TotalQuestions
	}
	if m.QuestionIndex == c.questionIndex {
		c.fillQuestionLocked(m.Question)
		return
	}
	if c.pastLastQuestion(m.QuestionIndex) {
		c.finishLocked()
		return
	}
	c.beginQuestionLocked(m.QuestionIndex, m.Question, time.Duration(m.TimeLimitMs)*time.Millisecond)
	c.setPhase(domain.PhasePlaying)
}

func (c *Client) onPlayerUpdate(m protocol.PlayerUpdate) {
	c.participants = append([]domain.Participant(nil), m.Participants...)
	if m.HostID != "" {
		c.host.Observe(m.HostID)
	}
	if c.questionIndex >= 0 && m.QuestionIndex == c.questionIndex {
		c.setAnsweredLocked(m.Answered)
	}
	c.dirty = true
	c.fetchAvatarsLocked(c.participantIDs())
}

func (c *Client) onResults(m protocol.Results) {
	if c.phase == domain.PhaseFinished || m.QuestionIndex < 0 {
		return
	}
	idx := m.QuestionIndex
	if idx < c.questionIndex {
		c.log.Debug().Int("index", idx).Int("current", c.questionIndex).Msg("stale results")
		return
	}
	if idx <= c.resultsIndex {
		c.log.Debug().Int("index", idx).Msg("duplicate results")
		return
	}
	if idx > c.questionIndex {
		if c.pastLastQuestion(idx) {
			c.finishLocked()
			return
		}
		c.beginQuestionLocked(idx, nil, 0)
	}

	c.ledger.Seal(idx)
	c.resultsIndex = idx
	c.correctIndex = m.CorrectAnswerIndex
	c.answerCounts = append([]int(nil), m.AnswerCounts...)
	if m.Scores != nil {
		c.scores = cloneScores(m.Scores)
	}
	c.revealLocked(idx)
	c.reconcileResultsLocked(idx, m.Scores)

	if len(m.Leaderboard) > 0 {
		c.setLeaderboardLocked(idx, m.Leaderboard)
	}
	if (m.ShowLeaderboard && len(m.Leaderboard) > 0) || c.boardIndex == idx {
		c.setPhase(domain.PhaseLeaderboard)
	} else {
		c.setPhase(domain.PhaseAnswered)
	}
	c.maybeStartFallbackLocked()
}

func (c *Client) onLeaderboard(m protocol.Leaderboard) {
	if c.phase == domain.PhaseFinished || m.QuestionIndex < 0 {
		return
	}
	idx := m.QuestionIndex
	if idx < c.questionIndex {
		c.log.Debug().Int("index", idx).Int("current", c.questionIndex).Msg("stale leaderboard")
		return
	}
	if idx > c.questionIndex {
		if c.pastLastQuestion(idx) {
			c.finishLocked()
			return
		}
		// results for idx were missed; leave resultsIndex behind so they still apply
		c.beginQuestionLocked(idx, nil, 0)
		c.ledger.Seal(idx)
		c.setLeaderboardLocked(idx, m.Entries)
		c.setPhase(domain.PhaseLeaderboard)
		c.maybeStartFallbackLocked()
		return
	}
	c.setLeaderboardLocked(idx, m.Entries)
	if c.resultsIndex >= idx && c.phase != domain.PhaseLeaderboard {
		c.setPhase(domain.PhaseLeaderboard)
		c.maybeStartFallbackLocked()
	}
}

func (c *Client) onGameStart(m protocol.GameStart) {
	// A finished session is left only for a new session id or through game-reset.
	if c.phase == domain.PhaseFinished && (m.SessionID == "" || m.SessionID == c.sessionID) {
		c.log.Debug().Str("session_id", m.SessionID).Msg("ignoring game-start for finished session")
		return
	}
	if c.phase.InGame() && (m.SessionID == "" || c.sessionID == "" || m.SessionID == c.sessionID) {
		if c.sessionID == "" {
			c.sessionID = m.SessionID
		}
		c.applyGameStartLocked(m)
		return
	}
	c.resetSessionLocked()
	c.sessionID = m.SessionID
	c.applyGameStartLocked(m)
	c.log.Info().Str("session_id", m.SessionID).Msg("game started")
	c.setPhase(domain.PhasePlaying)
}

func (c *Client) applyGameStartLocked(m protocol.GameStart) {
	if m.Settings != nil {
		c.settings = *m.Settings
		if m.Settings.TotalQuestions > 0 {
			c.totalQuestions = m.Settings.TotalQuestions
		}
	}
	if m.TotalQuestions > 0 {
		c.totalQuestions = m.TotalQuestions
	}
	if m.HostID != "" {
		c.host.Observe(m.HostID)
	}
	c.dirty = true
}

func (c *Client) onGameEnd(m protocol.GameEnd) {
	if v, ok := m.Scores[c.cfg.ParticipantID]; ok {
		c.score.confirm(v)
	}
	if m.Scores != nil {
		c.scores = cloneScores(m.Scores)
	}
	if len(m.Leaderboard) > 0 {
		c.setLeaderboardLocked(c.questionIndex, m.Leaderboard)
	}
	c.finishLocked()
}

func (c *Client) onGameReset(m protocol.GameReset) {
	c.resetSessionLocked()
	if m.ClearHost {
		c.host.Clear()
	}
	c.setPhase(domain.PhaseWaitingForGame)
}

func (c *Client) onSettingsUpdate(m protocol.SettingsUpdate) {
	c.settings = m.Settings
	c.dirty = true
	if m.Settings.TotalQuestions <= 0 {
		return
	}
	c.totalQuestions = m.Settings.TotalQuestions
	if c.phase.InGame() && c.pastLastQuestion(c.questionIndex) {
		c.finishLocked()
	}
}

func (c *Client) onHostChanged(m protocol.HostChanged) {
	c.host.Change(m.HostID)
	c.dirty = true
}

func (c *Client) onControllerReady(m protocol.ControllerReady) {
	c.log.Debug().Str("controller_id", m.ControllerID).Msg("controller registered")
	c.degraded = false
	c.beginRecoveryLocked()
}

// beginQuestionLocked switches to question idx and clears everything that
// belonged to the previous one. The ledger is left alone.
func (c *Client) beginQuestionLocked(idx int, q *domain.Question, limit time.Duration) {
	now := c.clock.Now()
	c.questionIndex = idx
	c.question, c.placeholder = c.resolveQuestion(idx, q)
	c.questionShownAt = now
	c.selection = nil
	c.answered = make(map[string]bool)
	c.correctness = domain.CorrectnessUnknown
	c.correctIndex = -1
	c.answerCounts = nil
	if limit <= 0 && c.settings.QuestionTimeMs > 0 {
		limit = time.Duration(c.settings.QuestionTimeMs) * time.Millisecond
	}
	c.deadline = time.Time{}
	if limit > 0 {
		c.deadline = now.Add(limit)
	}
	c.dirty = true
}

// fillQuestionLocked replaces a missing or placeholder question with one the
// controller supplied.
func (c *Client) fillQuestionLocked(q *domain.Question) {
	if q == nil || (c.question != nil && !c.placeholder) {
		return
	}
	c.question = cloneQuestion(q)
	c.placeholder = false
	c.dirty = true
}

func (c *Client) resolveQuestion(idx int, q *domain.Question) (*domain.Question, bool) {
	if q != nil {
		return cloneQuestion(q), false
	}
	if len(c.bank) == 0 {
		return nil, false
	}
	if idx < len(c.bank) {
		return cloneQuestion(&c.bank[idx]), c.bankIsFallback
	}
	if c.bankIsFallback {
		return cloneQuestion(&c.bank[idx%len(c.bank)]), true
	}
	return nil, false
}

// revealLocked derives correctness for idx from the ledger, never from the
// transient selection, and restores the selection if a re-render dropped it.
func (c *Client) revealLocked(idx int) {
	rec, ok := c.ledger.Get(idx)
	if ok {
		sel := rec.AnswerIndex
		c.selection = &sel
	}
	if c.correctIndex < 0 {
		c.correctness = domain.CorrectnessUnknown
	} else {
		c.correctness = domain.CorrectnessOf(rec.AnswerIndex, c.correctIndex, ok)
	}
	c.dirty = true
}

func (c *Client) setAnsweredLocked(ids []string) {
	c.answered = make(map[string]bool, len(ids)+1)
	for _, id := range ids {
		c.answered[id] = true
	}
	if _, ok := c.ledger.Get(c.questionIndex); ok {
		c.answered[c.cfg.ParticipantID] = true
	}
}

func (c *Client) setLeaderboardLocked(idx int, entries []domain.LeaderboardEntry) {
	c.leaderboard = append([]domain.LeaderboardEntry(nil), entries...)
	c.boardIndex = idx
	c.dirty = true
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ParticipantID)
	}
	c.fetchAvatarsLocked(ids)
}

func (c *Client) pastLastQuestion(idx int) bool {
	return c.totalQuestions > 0 && idx >= c.totalQuestions
}

func (c *Client) finishLocked() {
	c.deadline = time.Time{}
	if c.phase != domain.PhaseFinished {
		c.log.Info().Int("score", c.score.display()).Msg("game finished")
	}
	c.setPhase(domain.PhaseFinished)
}

func cloneQuestion(q *domain.Question) *domain.Question {
	if q == nil {
		return nil
	}
	out := *q
	out.Options = append([]domain.AnswerOption(nil), q.Options...)
	return &out
}

func cloneScores(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
