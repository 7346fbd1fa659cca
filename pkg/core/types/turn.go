package types

import "time"

// Role attributes a conversation turn to its speaker.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// GroundingRef is a citation attached to an agent turn.
type GroundingRef struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// ConversationTurn is one contiguous utterance attributed to a single
// role, accumulated from one or more fragments.
//
// A turn is mutable only while IsFinal is false, and only by appending
// to Text, appending Grounding entries, or flipping IsFinal to true.
// Finality never reverses.
type ConversationTurn struct {
	Role      Role           `json:"role"`
	Text      string         `json:"text"`
	IsFinal   bool           `json:"is_final"`
	Timestamp time.Time      `json:"timestamp"`
	Image     string         `json:"image,omitempty"` // data URL or backend URI
	Grounding []GroundingRef `json:"grounding,omitempty"`
}

// Clone returns a deep copy; Snapshot consumers must not be able to
// mutate log state through shared slices.
func (t ConversationTurn) Clone() ConversationTurn {
	out := t
	if len(t.Grounding) > 0 {
		out.Grounding = append([]GroundingRef(nil), t.Grounding...)
	}
	return out
}
