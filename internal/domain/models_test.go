package domain

import "testing"

func TestCorrectnessOf(t *testing.T) {
	if got := CorrectnessOf(1, 1, true); got != CorrectnessTrue {
		t.Fatalf("expected true, got %s", got)
	}
	if got := CorrectnessOf(0, 1, true); got != CorrectnessFalse {
		t.Fatalf("expected false, got %s", got)
	}
	if got := CorrectnessOf(0, 0, false); got != CorrectnessUnknown {
		t.Fatalf("expected unknown without an answer, got %s", got)
	}
}

func TestPhaseValid(t *testing.T) {
	for _, p := range Phases {
		if !p.Valid() {
			t.Fatalf("expected %s valid", p)
		}
	}
	if Phase("lobby").Valid() {
		t.Fatalf("expected unknown phase invalid")
	}
}

func TestQuestionCorrectIndex(t *testing.T) {
	q := Question{Options: []AnswerOption{{Text: "a"}, {Text: "b", Correct: true}}}
	if q.CorrectIndex() != 1 {
		t.Fatalf("expected 1, got %d", q.CorrectIndex())
	}
	if (Question{}).CorrectIndex() != -1 {
		t.Fatalf("expected -1 for question without options")
	}
	if q.HasOption(2) || !q.HasOption(0) {
		t.Fatalf("unexpected HasOption result")
	}
}
