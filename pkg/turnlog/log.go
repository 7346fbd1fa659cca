// Package turnlog maintains the ordered, append-only conversation log
// for a live session.
//
// Three independent streams (user transcription, agent transcription,
// agent content) interleave into one log. Each stream effectively has
// two states: Idle (no open turn) and Open (the last turn belongs to
// that stream's role and is not final). Every mutation goes through a
// single lock, so concurrent inbound events never interleave edits of
// the same open turn.
package turnlog

import (
	"strings"
	"sync"
	"time"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

// Log is the append-only sequence of conversation turns, plus the
// history of previously archived sequences.
//
// Invariants: turns are never reordered or deleted except by Reset;
// text only grows within a turn; finality is monotonic.
type Log struct {
	mu      sync.Mutex
	turns   []types.ConversationTurn
	history [][]types.ConversationTurn

	now func() time.Time
}

// New creates an empty log.
func New() *Log {
	return &Log{now: time.Now}
}

// AppendFragment merges an incoming text fragment into the log.
//
// If the last turn is open and belongs to the same role, the fragment
// is appended to it and the finality flag applied. Otherwise a new turn
// is created, including when the last turn is final or belongs to a
// different role. Fragments never merge across roles.
func (l *Log) AppendFragment(role types.Role, text string, isFinal bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last := l.openTurn(); last != nil && last.Role == role {
		last.Text += text
		last.IsFinal = isFinal
		return
	}
	l.turns = append(l.turns, types.ConversationTurn{
		Role:      role,
		Text:      text,
		IsFinal:   isFinal,
		Timestamp: l.now(),
	})
}

// AppendContent merges an agent content fragment carrying optional
// grounding references. Events with neither text nor references are
// ignored.
//
// When no agent turn is open, a new open turn is created even if the
// text is empty and only references arrived. That matches the original
// behavior and is kept deliberately.
func (l *Log) AppendContent(text string, refs []types.GroundingRef) {
	if text == "" && len(refs) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if last := l.openTurn(); last != nil && last.Role == types.RoleAgent {
		last.Text += text
		last.Grounding = append(last.Grounding, refs...)
		return
	}
	l.turns = append(l.turns, types.ConversationTurn{
		Role:      types.RoleAgent,
		Text:      text,
		Grounding: append([]types.GroundingRef(nil), refs...),
		Timestamp: l.now(),
	})
}

// AppendReferences accumulates grounding references independent of the
// text merge. Empty input is a no-op.
func (l *Log) AppendReferences(refs []types.GroundingRef) {
	l.AppendContent("", refs)
}

// ForceComplete finalizes the most recent non-final turn, regardless of
// which stream produced it. A no-op when no turn is open.
func (l *Log) ForceComplete() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last := l.openTurn(); last != nil {
		last.IsFinal = true
	}
}

// AddSystemTurn appends a final system-role turn. Used to surface
// transport failures in the conversation.
func (l *Log) AddSystemTurn(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, types.ConversationTurn{
		Role:      types.RoleSystem,
		Text:      strings.TrimSpace(text),
		IsFinal:   true,
		Timestamp: l.now(),
	})
}

// Reset clears the active sequence. With archive true the sequence is
// prepended onto history first; with archive false (logout) it is
// discarded. History itself is never touched by a reset.
func (l *Log) Reset(archive bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if archive && len(l.turns) > 0 {
		l.history = append([][]types.ConversationTurn{l.turns}, l.history...)
	}
	l.turns = nil
}

// Snapshot returns an immutable copy of the current turn sequence.
func (l *Log) Snapshot() []types.ConversationTurn {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.ConversationTurn, len(l.turns))
	for i, t := range l.turns {
		out[i] = t.Clone()
	}
	return out
}

// History returns copies of the archived sequences, most recent first.
func (l *Log) History() [][]types.ConversationTurn {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([][]types.ConversationTurn, len(l.history))
	for i, seq := range l.history {
		cp := make([]types.ConversationTurn, len(seq))
		for j, t := range seq {
			cp[j] = t.Clone()
		}
		out[i] = cp
	}
	return out
}

// Last returns a copy of the most recent turn and true, or false when
// the log is empty.
func (l *Log) Last() (types.ConversationTurn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.turns) == 0 {
		return types.ConversationTurn{}, false
	}
	return l.turns[len(l.turns)-1].Clone(), true
}

// Len returns the number of turns in the active sequence.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// openTurn returns the last turn when it is still mutable, else nil.
// Callers must hold l.mu.
func (l *Log) openTurn() *types.ConversationTurn {
	if len(l.turns) == 0 {
		return nil
	}
	last := &l.turns[len(l.turns)-1]
	if last.IsFinal {
		return nil
	}
	return last
}
