package searcherr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("llm timeout")
	err := fmt.Errorf("search: %w", Parse("queryparse.Parse", base))

	if !Is(err, KindParse) {
		t.Fatalf("expected parse kind, got %v", err)
	}
	if Is(err, KindProvider) {
		t.Fatalf("did not expect provider kind")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to be reachable")
	}
	if got := err.Error(); got != "search: queryparse.Parse: parse error: llm timeout" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("x")); ok {
		t.Fatalf("plain errors carry no kind")
	}
}
