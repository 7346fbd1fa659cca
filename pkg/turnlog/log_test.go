package turnlog

import (
	"testing"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

func TestAppendFragment_MergesSameRoleRun(t *testing.T) {
	l := New()
	l.AppendFragment(types.RoleUser, "Hel", false)
	l.AppendFragment(types.RoleUser, "lo", true)

	turns := l.Snapshot()
	if len(turns) != 1 {
		t.Fatalf("len(turns) = %d, want 1", len(turns))
	}
	if turns[0].Text != "Hello" {
		t.Errorf("Text = %q, want %q", turns[0].Text, "Hello")
	}
	if !turns[0].IsFinal {
		t.Error("turn should be final")
	}
}

func TestAppendFragment_NewTurnAfterFinal(t *testing.T) {
	l := New()
	l.AppendFragment(types.RoleUser, "Hel", false)
	l.AppendFragment(types.RoleUser, "lo", true)
	l.AppendFragment(types.RoleAgent, "Hi", false)

	turns := l.Snapshot()
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[1].Role != types.RoleAgent {
		t.Errorf("Role = %q, want agent", turns[1].Role)
	}
	if turns[1].IsFinal {
		t.Error("agent turn should be open")
	}

	l.ForceComplete()
	turns = l.Snapshot()
	if !turns[1].IsFinal {
		t.Error("agent turn should be final after ForceComplete")
	}
	if turns[1].Text != "Hi" {
		t.Errorf("Text = %q, want %q", turns[1].Text, "Hi")
	}
}

func TestAppendFragment_RoleMismatchOpensNewTurn(t *testing.T) {
	l := New()
	l.AppendFragment(types.RoleAgent, "thinking", false)
	l.AppendFragment(types.RoleUser, "wait", false)

	turns := l.Snapshot()
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	// The agent turn stays open but never merges with the user stream.
	if turns[0].IsFinal {
		t.Error("agent turn should still be open")
	}
	if turns[1].Role != types.RoleUser {
		t.Errorf("Role = %q, want user", turns[1].Role)
	}
}

func TestForceComplete_NoOpenTurn(t *testing.T) {
	l := New()
	l.ForceComplete() // empty log

	l.AppendFragment(types.RoleUser, "done", true)
	l.ForceComplete() // last turn already final

	turns := l.Snapshot()
	if len(turns) != 1 {
		t.Fatalf("len(turns) = %d, want 1", len(turns))
	}
}

func TestAppendContent_AccumulatesGrounding(t *testing.T) {
	l := New()
	l.AppendContent("According to ", nil)
	l.AppendContent("sources.", []types.GroundingRef{{URI: "https://example.com", Title: "Example"}})
	l.AppendReferences([]types.GroundingRef{{URI: "https://example.org"}})

	turns := l.Snapshot()
	if len(turns) != 1 {
		t.Fatalf("len(turns) = %d, want 1", len(turns))
	}
	if turns[0].Text != "According to sources." {
		t.Errorf("Text = %q", turns[0].Text)
	}
	if len(turns[0].Grounding) != 2 {
		t.Fatalf("len(Grounding) = %d, want 2", len(turns[0].Grounding))
	}
	if turns[0].Grounding[0].URI != "https://example.com" {
		t.Errorf("Grounding[0].URI = %q", turns[0].Grounding[0].URI)
	}
}

func TestAppendContent_EmptyEventIgnored(t *testing.T) {
	l := New()
	l.AppendContent("", nil)
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}

func TestAppendContent_RefsOnlyCreateEmptyTurn(t *testing.T) {
	// Documented quirk: references arriving with no text and no open
	// turn still create a new open agent turn with empty text.
	l := New()
	l.AppendReferences([]types.GroundingRef{{URI: "https://example.com"}})

	turns := l.Snapshot()
	if len(turns) != 1 {
		t.Fatalf("len(turns) = %d, want 1", len(turns))
	}
	if turns[0].Text != "" {
		t.Errorf("Text = %q, want empty", turns[0].Text)
	}
	if turns[0].IsFinal {
		t.Error("turn should be open")
	}
	if len(turns[0].Grounding) != 1 {
		t.Errorf("len(Grounding) = %d, want 1", len(turns[0].Grounding))
	}
}

func TestAppendContent_NeverMergesIntoFinalTurn(t *testing.T) {
	l := New()
	l.AppendFragment(types.RoleAgent, "done", true)
	l.AppendContent("more", nil)

	turns := l.Snapshot()
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Text != "done" {
		t.Errorf("final turn mutated: %q", turns[0].Text)
	}
}

func TestReset_ArchivePrependsHistory(t *testing.T) {
	l := New()
	l.AppendFragment(types.RoleUser, "first session", true)
	l.Reset(true)
	l.AppendFragment(types.RoleUser, "second session", true)
	l.Reset(true)

	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	history := l.History()
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0][0].Text != "second session" {
		t.Errorf("history[0] = %q, want most recent first", history[0][0].Text)
	}
}

func TestReset_ArchiveEmptySequenceSkipsHistory(t *testing.T) {
	l := New()
	l.Reset(true)
	if len(l.History()) != 0 {
		t.Error("empty sequence should not be archived")
	}
}

func TestReset_DiscardLeavesHistoryUntouched(t *testing.T) {
	l := New()
	l.AppendFragment(types.RoleUser, "old", true)
	l.Reset(true)
	l.AppendFragment(types.RoleUser, "current", true)

	l.Reset(false)
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if len(l.History()) != 1 {
		t.Errorf("len(history) = %d, want 1", len(l.History()))
	}
}

func TestSnapshot_IsImmutableCopy(t *testing.T) {
	l := New()
	l.AppendContent("text", []types.GroundingRef{{URI: "https://example.com"}})

	snap := l.Snapshot()
	snap[0].Text = "mutated"
	snap[0].Grounding[0].URI = "mutated"

	turns := l.Snapshot()
	if turns[0].Text != "text" {
		t.Error("snapshot mutation leaked into log text")
	}
	if turns[0].Grounding[0].URI != "https://example.com" {
		t.Error("snapshot mutation leaked into log grounding")
	}
}

func TestAddSystemTurn(t *testing.T) {
	l := New()
	l.AddSystemTurn("  connection lost, retrying  ")

	turn, ok := l.Last()
	if !ok {
		t.Fatal("expected a turn")
	}
	if turn.Role != types.RoleSystem {
		t.Errorf("Role = %q, want system", turn.Role)
	}
	if !turn.IsFinal {
		t.Error("system turns are always final")
	}
	if turn.Text != "connection lost, retrying" {
		t.Errorf("Text = %q", turn.Text)
	}
}
