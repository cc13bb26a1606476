package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(Synthesis, "model crashed")
	wrapped := fmt.Errorf("segment 3 (name %q): %w", "Asha", base)

	if !Is(wrapped, Synthesis) {
		t.Fatal("expected synthesis kind through fmt.Errorf wrapping")
	}
	if got := KindOf(wrapped); got != Synthesis {
		t.Fatalf("expected synthesis kind, got %q", got)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(Storage, nil, "write file"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Storage, cause, "write output file")

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to remain reachable")
	}
	if KindOf(err) != Storage {
		t.Fatalf("expected storage kind, got %q", KindOf(err))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty kind for plain error, got %q", got)
	}
}
