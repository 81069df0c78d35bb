package app

import (
	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// maybeStartFallbackLocked arms the local backstop after a revealed result
// when nobody else is around to keep the game moving or the controller has
// gone quiet.
func (c *Client) maybeStartFallbackLocked() {
	if c.phase != domain.PhaseAnswered && c.phase != domain.PhaseLeaderboard {
		return
	}
	if len(c.participants) > 1 && !c.degraded {
		return
	}
	c.fallback.Start(c.cfg.FallbackDelay, c.onFallbackExpired)
}

// onFallbackExpired only advances the local phase. Scores and rankings stay
// whatever the controller last said.
func (c *Client) onFallbackExpired(gen uint64) {
	c.mu.Lock()
	defer c.release()

	if !c.fallback.Claim(gen) {
		return
	}
	if c.phase != domain.PhaseAnswered && c.phase != domain.PhaseLeaderboard {
		return
	}
	if c.totalQuestions > 0 && c.questionIndex >= c.totalQuestions-1 {
		c.finishLocked()
		return
	}
	c.log.Info().Int("question_index", c.questionIndex).Msg("controller slow, advancing locally")
	c.question = nil
	c.placeholder = false
	c.selection = nil
	c.setPhase(domain.PhasePlaying)
	if c.host.IsHost(c.participantIDs()) {
		c.emit(protocol.NextQuestion{
			ParticipantID: c.cfg.ParticipantID,
			FromIndex:     c.questionIndex,
		})
	}
}

// fallbackQuestions keeps the UI populated until a real bank or a
// controller-supplied question arrives. Everything resolved from it is a
// placeholder.
func fallbackQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "fallback-1",
			Prompt:   "Which planet is known as the Red Planet?",
			Category: "science",
			Options: []domain.AnswerOption{
				{Text: "Venus"},
				{Text: "Mars", Correct: true},
				{Text: "Jupiter"},
				{Text: "Mercury"},
			},
		},
		{
			ID:       "fallback-2",
			Prompt:   "How many continents are there?",
			Category: "geography",
			Options: []domain.AnswerOption{
				{Text: "Five"},
				{Text: "Six"},
				{Text: "Seven", Correct: true},
				{Text: "Eight"},
			},
		},
		{
			ID:       "fallback-3",
			Prompt:   "What is the largest ocean on Earth?",
			Category: "geography",
			Options: []domain.AnswerOption{
				{Text: "Pacific", Correct: true},
				{Text: "Atlantic"},
				{Text: "Indian"},
				{Text: "Arctic"},
			},
		},
	}
}
