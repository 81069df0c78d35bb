package ledger

import (
	"testing"
	"time"
)

func TestRecordOverwritesUntilSealed(t *testing.T) {
	l := New()
	now := time.Unix(10, 0)

	if !l.Record(0, 1, now, 100) {
		t.Fatalf("expected first record accepted")
	}
	if !l.Record(0, 3, now.Add(time.Second), 1100) {
		t.Fatalf("expected overwrite accepted before results")
	}
	rec, ok := l.Get(0)
	if !ok || rec.AnswerIndex != 3 || rec.ResponseTimeMs != 1100 {
		t.Fatalf("expected latest answer 3, got %+v ok=%v", rec, ok)
	}

	l.Seal(0)
	if l.Record(0, 2, now, 0) {
		t.Fatalf("expected record rejected after seal")
	}
	if rec, _ := l.Get(0); rec.AnswerIndex != 3 {
		t.Fatalf("sealed answer changed to %d", rec.AnswerIndex)
	}
}

func TestSealWithoutAnswer(t *testing.T) {
	l := New()
	l.Seal(4)
	if _, ok := l.Get(4); ok {
		t.Fatalf("expected no answer for sealed empty question")
	}
	if !l.Sealed(4) {
		t.Fatalf("expected question sealed")
	}
	if l.Record(4, 0, time.Now(), 0) {
		t.Fatalf("expected late answer rejected")
	}
}

func TestMarkAwardedOnce(t *testing.T) {
	l := New()
	if !l.MarkAwarded(1) {
		t.Fatalf("expected first award")
	}
	if l.MarkAwarded(1) {
		t.Fatalf("expected second award refused")
	}
	if !l.Awarded(1) {
		t.Fatalf("expected awarded flag")
	}
}

func TestRecordsOrderedAndReset(t *testing.T) {
	l := New()
	l.Record(2, 0, time.Now(), 0)
	l.Record(0, 1, time.Now(), 0)
	l.Seal(1)

	recs := l.Records()
	if len(recs) != 2 || recs[0].QuestionIndex != 0 || recs[1].QuestionIndex != 2 {
		t.Fatalf("unexpected records %+v", recs)
	}

	l.Reset()
	if len(l.Records()) != 0 || l.Sealed(1) {
		t.Fatalf("expected empty ledger after reset")
	}
}
