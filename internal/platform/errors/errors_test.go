package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeActionDeadTarget, "target is dead")
	wrapped := fmt.Errorf("validate action: %w", err)

	if !stderrors.Is(wrapped, New(CodeActionDeadTarget, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(wrapped, New(CodeActionSelfTarget, "")) {
		t.Fatal("expected errors.Is to reject a different code")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStorageFailed, "append event", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "append event" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWithMetadata(t *testing.T) {
	err := WithMetadata(CodePlayerUnknown, "no such player", map[string]string{"player_id": "p1"})
	if err.Metadata["player_id"] != "p1" {
		t.Fatalf("expected metadata to carry player id, got %v", err.Metadata)
	}
}
