package app

import (
	"context"
	"errors"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// pointsPerCorrect is the optimistic award for a correct answer when results
// carry no scores.
const pointsPerCorrect = 1

// scoreState is the controller-confirmed score plus an optimistic overlay
// keyed by question. Confirming drops the overlay, so no point is summed on
// top of a controller value twice.
type scoreState struct {
	confirmed int
	overlay   map[int]int
}

func (s *scoreState) reset() {
	s.confirmed = 0
	s.overlay = nil
}

func (s *scoreState) display() int {
	total := s.confirmed
	for _, pts := range s.overlay {
		total += pts
	}
	return total
}

func (s *scoreState) confirm(v int) {
	s.confirmed = v
	s.overlay = nil
}

func (s *scoreState) predict(questionIndex, pts int) {
	if s.overlay == nil {
		s.overlay = make(map[int]int)
	}
	s.overlay[questionIndex] = pts
}

// lifetimeScore mirrors the persisted per-participant score. delta collects
// awards made before the stored base finished loading.
type lifetimeScore struct {
	base     int
	delta    int
	loaded   bool
	disabled bool
}

func (l lifetimeScore) value() int {
	v := l.base + l.delta
	if v < 0 {
		return 0
	}
	return v
}

// reconcileResultsLocked settles the score for question idx. A score for the
// local participant in the results is authoritative; otherwise a correct
// answer earns an optimistic overlay until the controller reports a value.
func (c *Client) reconcileResultsLocked(idx int, scores map[string]int) {
	if v, ok := scores[c.cfg.ParticipantID]; ok {
		delta := v - c.score.display()
		c.score.confirm(v)
		c.awardLocked(idx, delta)
		return
	}
	if c.ledger.Awarded(idx) {
		return
	}
	pts := 0
	if c.correctness == domain.CorrectnessTrue {
		pts = pointsPerCorrect
		c.score.predict(idx, pts)
	}
	c.awardLocked(idx, pts)
}

// awardLocked is the single step that acknowledges points for a question.
// The ledger admits it once per question.
func (c *Client) awardLocked(idx, pts int) {
	if !c.ledger.MarkAwarded(idx) {
		return
	}
	c.emit(protocol.AwardPoints{
		ParticipantID: c.cfg.ParticipantID,
		QuestionIndex: idx,
		Points:        pts,
		Total:         c.score.display(),
	})
	c.dirty = true
	if pts == 0 {
		return
	}
	c.lifetime.delta += pts
	c.persistLifetimeLocked()
}

func (c *Client) loadLifetimeScore(ctx context.Context) {
	if c.scoreStore == nil {
		return
	}
	go c.runPersister(ctx)
	go func() {
		v, err := c.scoreStore.GetScore(ctx, c.cfg.ParticipantID)

		c.mu.Lock()
		defer c.release()
		switch {
		case err == nil:
			c.lifetime.base = v
		case errors.Is(err, domain.ErrScoreNotFound):
			c.lifetime.base = 0
		default:
			c.log.Warn().Err(err).Msg("score store unavailable, keeping score in memory")
			c.lifetime.disabled = true
			c.dirty = true
			return
		}
		c.lifetime.loaded = true
		c.dirty = true
		if c.lifetime.delta != 0 {
			c.persistLifetimeLocked()
		}
	}()
}

// persistLifetimeLocked queues the latest lifetime score; an unsent older
// value is replaced.
func (c *Client) persistLifetimeLocked() {
	if c.scoreStore == nil || c.lifetime.disabled || !c.lifetime.loaded {
		return
	}
	v := c.lifetime.value()
	select {
	case c.persistCh <- v:
		return
	default:
	}
	select {
	case <-c.persistCh:
	default:
	}
	select {
	case c.persistCh <- v:
	default:
	}
}

func (c *Client) runPersister(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-c.persistCh:
			if err := c.scoreStore.SetScore(ctx, c.cfg.ParticipantID, v); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Warn().Err(err).Int("score", v).Msg("persist score failed, keeping score in memory")
				c.mu.Lock()
				c.lifetime.disabled = true
				c.mu.Unlock()
			}
		}
	}
}
