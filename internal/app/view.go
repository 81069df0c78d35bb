package app

import (
	"context"
	"time"

	"phone-trivia/internal/domain"
)

// View is everything a rendering surface needs. It is a copy; mutating it
// does not affect the client.
type View struct {
	ParticipantID      string                    `json:"participantId"`
	SessionID          string                    `json:"sessionId,omitempty"`
	Phase              domain.Phase              `json:"phase"`
	QuestionIndex      int                       `json:"questionIndex"`
	TotalQuestions     int                       `json:"totalQuestions"`
	Question           *domain.Question          `json:"question,omitempty"`
	Placeholder        bool                      `json:"placeholder,omitempty"`
	SelectedAnswer     int                       `json:"selectedAnswer"`
	Correctness        domain.Correctness        `json:"correctness"`
	CorrectAnswerIndex int                       `json:"correctAnswerIndex"`
	AnswerCounts       []int                     `json:"answerCounts,omitempty"`
	Score              int                       `json:"score"`
	ConfirmedScore     int                       `json:"confirmedScore"`
	LifetimeScore      int                       `json:"lifetimeScore"`
	Scores             map[string]int            `json:"scores,omitempty"`
	Leaderboard        []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
	Avatars            map[string][]byte         `json:"-"`
	Participants       []domain.Participant      `json:"participants,omitempty"`
	AnsweredCount      int                       `json:"answeredCount"`
	IsHost             bool                      `json:"isHost"`
	HostID             string                    `json:"hostId,omitempty"`
	HostMissing        bool                      `json:"hostMissing,omitempty"`
	Answers            []domain.AnswerRecord     `json:"answers,omitempty"`
	Settings           domain.Settings           `json:"settings"`
	TimeRemaining      time.Duration             `json:"timeRemaining"`
	Degraded           bool                      `json:"degraded,omitempty"`
	Recovering         bool                      `json:"recovering,omitempty"`
}

func (c *Client) viewLocked() View {
	ids := c.participantIDs()
	v := View{
		ParticipantID:      c.cfg.ParticipantID,
		SessionID:          c.sessionID,
		Phase:              c.phase,
		QuestionIndex:      c.questionIndex,
		TotalQuestions:     c.totalQuestions,
		Question:           cloneQuestion(c.question),
		Placeholder:        c.placeholder,
		SelectedAnswer:     -1,
		Correctness:        c.correctness,
		CorrectAnswerIndex: c.correctIndex,
		AnswerCounts:       append([]int(nil), c.answerCounts...),
		Score:              c.score.display(),
		ConfirmedScore:     c.score.confirmed,
		LifetimeScore:      c.lifetime.value(),
		Scores:             cloneScores(c.scores),
		Leaderboard:        append([]domain.LeaderboardEntry(nil), c.leaderboard...),
		Participants:       append([]domain.Participant(nil), c.participants...),
		IsHost:             c.host.IsHost(ids),
		HostID:             c.host.Pinned(),
		HostMissing:        c.host.Missing(ids),
		Settings:           c.settings,
		Degraded:           c.degraded,
		Recovering:         c.recovery.awaiting,
	}
	if v.HostID == "" && len(ids) > 0 {
		v.HostID = ids[0]
	}
	if c.selection != nil {
		v.SelectedAnswer = *c.selection
	} else if rec, ok := c.ledger.Get(c.questionIndex); ok {
		v.SelectedAnswer = rec.AnswerIndex
	}
	if recs := c.ledger.Records(); len(recs) > 0 {
		v.Answers = recs
	}
	for _, answered := range c.answered {
		if answered {
			v.AnsweredCount++
		}
	}
	if len(c.avatars) > 0 {
		v.Avatars = make(map[string][]byte, len(c.avatars))
		for id, img := range c.avatars {
			v.Avatars[id] = append([]byte(nil), img...)
		}
	}
	if !c.deadline.IsZero() && (c.phase == domain.PhasePlaying || c.phase == domain.PhaseWaitingForOthers) {
		if left := c.deadline.Sub(c.clock.Now()); left > 0 {
			v.TimeRemaining = left
		}
	}
	return v
}

// fetchAvatarsLocked loads avatars not yet known. A failed lookup is stored as
// a nil image and rendered as a placeholder.
func (c *Client) fetchAvatarsLocked(ids []string) {
	if c.avatarService == nil || !c.started {
		return
	}
	ctx := c.ctx
	opts := AvatarOptions{Size: c.cfg.AvatarSize}
	for _, id := range ids {
		if id == "" || c.avatarsBusy[id] {
			continue
		}
		if _, ok := c.avatars[id]; ok {
			continue
		}
		c.avatarsBusy[id] = true
		go c.fetchAvatar(ctx, id, opts)
	}
}

func (c *Client) fetchAvatar(ctx context.Context, id string, opts AvatarOptions) {
	img, err := c.avatarService.GetAvatarImage(ctx, id, opts)
	if err != nil {
		c.log.Debug().Err(err).Str("avatar_for", id).Msg("avatar unavailable")
		img = nil
	}

	c.mu.Lock()
	defer c.release()
	delete(c.avatarsBusy, id)
	c.avatars[id] = img
	c.dirty = true
}
