package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonASRTranscribe)
	if Reason(err) != ReasonASRTranscribe {
		t.Fatalf("expected reason %s, got %s", ReasonASRTranscribe, Reason(err))
	}
	if !HasReason(err, ReasonASRTranscribe) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonGrammarCorrect)
	second := Wrap(first, ReasonASRTranscribe)
	if Reason(second) != ReasonGrammarCorrect {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
