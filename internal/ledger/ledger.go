// Package ledger keeps the locally chosen answer per question for one client
// session, independent of transient UI state.
package ledger

import (
	"sort"
	"time"

	"phone-trivia/internal/domain"
)

type entry struct {
	record  domain.AnswerRecord
	hasAns  bool
	sealed  bool
	awarded bool
}

// Ledger maps question index to the local answer. Not safe for concurrent
// use; the owning client serializes access.
type Ledger struct {
	entries map[int]*entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[int]*entry)}
}

// Record stores an answer for questionIndex, overwriting an earlier one.
// It returns false once results for the question have sealed it.
func (l *Ledger) Record(questionIndex, answerIndex int, submittedAt time.Time, responseTimeMs int64) bool {
	e := l.entry(questionIndex)
	if e.sealed {
		return false
	}
	e.record = domain.AnswerRecord{
		QuestionIndex:  questionIndex,
		AnswerIndex:    answerIndex,
		SubmittedAt:    submittedAt,
		ResponseTimeMs: responseTimeMs,
	}
	e.hasAns = true
	return true
}

// Get returns the answer recorded for questionIndex.
func (l *Ledger) Get(questionIndex int) (domain.AnswerRecord, bool) {
	e, ok := l.entries[questionIndex]
	if !ok || !e.hasAns {
		return domain.AnswerRecord{}, false
	}
	return e.record, true
}

// Seal forbids further submissions for questionIndex.
func (l *Ledger) Seal(questionIndex int) {
	l.entry(questionIndex).sealed = true
}

// Sealed reports whether results for questionIndex have been applied.
func (l *Ledger) Sealed(questionIndex int) bool {
	e, ok := l.entries[questionIndex]
	return ok && e.sealed
}

// MarkAwarded flags questionIndex as acknowledged and reports whether this
// call was the first to do so.
func (l *Ledger) MarkAwarded(questionIndex int) bool {
	e := l.entry(questionIndex)
	if e.awarded {
		return false
	}
	e.awarded = true
	return true
}

// Awarded reports whether points for questionIndex were acknowledged.
func (l *Ledger) Awarded(questionIndex int) bool {
	e, ok := l.entries[questionIndex]
	return ok && e.awarded
}

// Records returns all recorded answers ordered by question index.
func (l *Ledger) Records() []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, 0, len(l.entries))
	for _, e := range l.entries {
		if e.hasAns {
			out = append(out, e.record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionIndex < out[j].QuestionIndex
	})
	return out
}

// Reset drops everything, used when a new session begins.
func (l *Ledger) Reset() {
	l.entries = make(map[int]*entry)
}

func (l *Ledger) entry(questionIndex int) *entry {
	e, ok := l.entries[questionIndex]
	if !ok {
		e = &entry{}
		l.entries[questionIndex] = e
	}
	return e
}
