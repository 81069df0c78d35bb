package app

import (
	"context"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// SelectAnswer records the local choice for the current question and tells
// the controller. It reports false, without error, when the choice is not
// accepted: outside Playing, for an unknown option, or after results.
func (c *Client) SelectAnswer(answerIndex int) bool {
	c.mu.Lock()
	defer c.release()

	if c.phase != domain.PhasePlaying || c.questionIndex < 0 || answerIndex < 0 {
		return false
	}
	if c.ledger.Sealed(c.questionIndex) {
		return false
	}
	if c.question != nil && !c.question.HasOption(answerIndex) {
		return false
	}
	now := c.clock.Now()
	rt := now.Sub(c.questionShownAt).Milliseconds()
	if rt < 0 {
		rt = 0
	}
	if !c.ledger.Record(c.questionIndex, answerIndex, now, rt) {
		return false
	}
	sel := answerIndex
	c.selection = &sel
	c.answered[c.cfg.ParticipantID] = true
	c.dirty = true
	c.emit(protocol.AnswerSubmitted{
		ParticipantID:  c.cfg.ParticipantID,
		QuestionIndex:  c.questionIndex,
		AnswerIndex:    answerIndex,
		ResponseTimeMs: rt,
	})
	if len(c.participants) > 1 && !c.allAnswered() {
		c.setPhase(domain.PhaseWaitingForOthers)
	}
	return true
}

// Rerender drops the transient selection the way a UI rebuild does. The
// ledger keeps the answer.
func (c *Client) Rerender() {
	c.mu.Lock()
	defer c.release()
	c.selection = nil
	c.dirty = true
}

// StartGame starts a session from the local host. Calling it during a game
// is a no-op.
func (c *Client) StartGame() error {
	c.mu.Lock()
	defer c.release()

	if !c.host.IsHost(c.participantIDs()) {
		return domain.ErrNotHost
	}
	if c.phase.InGame() {
		return nil
	}
	c.host.Establish(c.participantIDs())
	c.resetSessionLocked()
	c.setPhase(domain.PhasePlaying)
	c.emit(protocol.StartGame{ParticipantID: c.cfg.ParticipantID})
	return nil
}

func (c *Client) NextQuestion() error {
	c.mu.Lock()
	defer c.release()

	if !c.host.IsHost(c.participantIDs()) {
		return domain.ErrNotHost
	}
	if !c.phase.InGame() {
		return domain.ErrNotStarted
	}
	c.emit(protocol.NextQuestion{ParticipantID: c.cfg.ParticipantID, FromIndex: c.questionIndex})
	return nil
}

func (c *Client) EndGame() error {
	c.mu.Lock()
	defer c.release()

	if !c.host.IsHost(c.participantIDs()) {
		return domain.ErrNotHost
	}
	if !c.phase.InGame() {
		return domain.ErrNotStarted
	}
	c.emit(protocol.EndGame{ParticipantID: c.cfg.ParticipantID})
	return nil
}

// PlayAgain returns the local host to the waiting screen and asks the
// controller to reset the session.
func (c *Client) PlayAgain() error {
	c.mu.Lock()
	defer c.release()

	if !c.host.IsHost(c.participantIDs()) {
		return domain.ErrNotHost
	}
	c.resetSessionLocked()
	c.setPhase(domain.PhaseWaitingForGame)
	c.emit(protocol.PlayAgain{ParticipantID: c.cfg.ParticipantID})
	return nil
}

// UpdateSettings asks the controller to change settings. Local settings
// follow the controller's settings-update.
func (c *Client) UpdateSettings(s domain.Settings) error {
	c.mu.Lock()
	defer c.release()

	if !c.host.IsHost(c.participantIDs()) {
		return domain.ErrNotHost
	}
	c.emit(protocol.SettingsChange{ParticipantID: c.cfg.ParticipantID, Settings: s})
	return nil
}

// ReloadQuestions fetches the question bank again, dropping any cached copy
// first. Questions already on screen are not replaced.
func (c *Client) ReloadQuestions(ctx context.Context) error {
	if c.questionSource == nil {
		return domain.ErrQuestionsNotFound
	}
	if r, ok := c.questionSource.(interface{ Refresh(context.Context) error }); ok {
		if err := r.Refresh(ctx); err != nil {
			return err
		}
	}
	return c.loadQuestions(ctx)
}
